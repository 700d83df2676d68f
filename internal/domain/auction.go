package domain

import (
	"time"
)

type AuctionStatus string

const (
	AuctionActive      AuctionStatus = "active"
	AuctionEndedSold   AuctionStatus = "ended_sold"
	AuctionEndedNoBids AuctionStatus = "ended_no_bids"
	AuctionCancelled   AuctionStatus = "cancelled"
)

// IsTerminal reports whether the status can never change again.
func (s AuctionStatus) IsTerminal() bool {
	switch s {
	case AuctionEndedSold, AuctionEndedNoBids, AuctionCancelled:
		return true
	}
	return false
}

type Auction struct {
	ID         string `json:"id"`
	SellerID   string `json:"seller_id"`
	SellerName string `json:"seller_name"`

	ProductName        string `json:"product_name"`
	ProductDescription string `json:"product_description"`
	Category           string `json:"category"`
	Condition          string `json:"condition"`
	SellerLocation     string `json:"seller_location,omitempty"`
	Brand              string `json:"brand,omitempty"`
	Model              string `json:"model,omitempty"`
	ImageURL           string `json:"image_url,omitempty"`

	BasePrice         float64 `json:"base_price"`
	CurrentHighestBid float64 `json:"current_highest_bid"`
	HighestBidderID   string  `json:"highest_bidder_id,omitempty"`
	HighestBidderName string  `json:"highest_bidder_name,omitempty"`

	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Status    AuctionStatus `json:"status"`

	BidHistory []Bid `json:"bid_history"`

	// Version guards compare-and-swap updates; bumped on every committed write.
	Version int64 `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Bid struct {
	ID         string    `json:"id"`
	BidderID   string    `json:"bidder_id"`
	BidderName string    `json:"bidder_name"`
	Amount     float64   `json:"amount"`
	AcceptedAt time.Time `json:"accepted_at"`
}

// HasBids is the "no bid yet" sentinel: CurrentHighestBid equals BasePrice
// until the first bid, so the history length is what distinguishes a real
// bid of BasePrice from no bids at all.
func (a *Auction) HasBids() bool {
	return len(a.BidHistory) > 0
}

// Biddable is the single authoritative "is it still open" predicate.
func (a *Auction) Biddable(now time.Time) bool {
	return a.Status == AuctionActive && now.Before(a.EndTime)
}

// Expired reports an active auction whose deadline has passed but which the
// sweeper has not yet finalized.
func (a *Auction) Expired(now time.Time) bool {
	return a.Status == AuctionActive && !now.Before(a.EndTime)
}

// Winner returns the winning bid of a sold auction.
func (a *Auction) Winner() (*Bid, bool) {
	if a.Status != AuctionEndedSold || len(a.BidHistory) == 0 {
		return nil, false
	}
	last := a.BidHistory[len(a.BidHistory)-1]
	return &last, true
}

// Clone returns a deep copy so callers can mutate a candidate state without
// touching the stored record.
func (a *Auction) Clone() *Auction {
	cp := *a
	cp.BidHistory = make([]Bid, len(a.BidHistory))
	copy(cp.BidHistory, a.BidHistory)
	return &cp
}
