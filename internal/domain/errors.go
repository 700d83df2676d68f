package domain

import (
	"errors"
	"fmt"
)

// Domain errors returned by the engine. None of them indicate partial state:
// a rejected operation leaves the auction record untouched.
var (
	ErrAuctionNotFound  = errors.New("auction not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrAuctionClosed    = errors.New("auction is closed")
	ErrSelfBidForbidden = errors.New("seller cannot bid on their own auction")
	ErrForbidden        = errors.New("caller is not allowed to perform this operation")
	ErrInvalidState     = errors.New("auction state does not permit this operation")

	// ErrContention is surfaced after the optimistic-concurrency retry budget
	// is exhausted. Transient; safe for the caller to retry with backoff.
	ErrContention = errors.New("too much contention on auction, retry later")

	// ErrVersionConflict is the store-level CAS failure the engine retries on.
	ErrVersionConflict = errors.New("auction version conflict")
)

// BidTooLowError carries the minimum acceptable amount so the caller can
// retry without re-fetching the auction.
type BidTooLowError struct {
	Minimum float64
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid too low, minimum acceptable amount is %.2f", e.Minimum)
}
