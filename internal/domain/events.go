package domain

import (
	"time"
)

type AuctionEventType string

const (
	EventBidAccepted      AuctionEventType = "bid_accepted"
	EventAuctionFinalized AuctionEventType = "auction_finalized"
)

// AuctionEvent is published after (never before) a durable commit.
type AuctionEvent struct {
	Type      AuctionEventType `json:"type"`
	AuctionID string           `json:"auction_id"`
	Timestamp time.Time        `json:"timestamp"`

	// bid_accepted fields
	BidderID string  `json:"bidder_id,omitempty"`
	Amount   float64 `json:"amount,omitempty"`

	// auction_finalized fields
	Status        AuctionStatus `json:"status,omitempty"`
	WinnerID      string        `json:"winner_id,omitempty"`
	WinningAmount float64       `json:"winning_amount,omitempty"`
}
