package domain

import (
	"context"
	"time"
)

// ListFilter narrows ListActive results. Zero value means no filtering.
type ListFilter struct {
	Category string
	Search   string
	Limit    int
	Offset   int
}

// AuctionStore is the single shared mutable resource. Writes go through
// CompareAndSwap: the update is applied only when the stored version still
// equals expectedVersion, otherwise ErrVersionConflict is returned and the
// caller re-reads and re-validates.
type AuctionStore interface {
	Create(ctx context.Context, auction *Auction) error
	Get(ctx context.Context, auctionID string) (*Auction, error)

	// CompareAndSwap persists auction (whose Version field still holds
	// expectedVersion) and appends newBids to its history atomically.
	// The stored version is bumped on success.
	CompareAndSwap(ctx context.Context, auction *Auction, expectedVersion int64, newBids ...Bid) error

	// ListActive returns active auctions sorted by nearest end time first.
	ListActive(ctx context.Context, filter ListFilter) ([]*Auction, error)

	// ListEndedBefore returns active auctions whose deadline has passed,
	// i.e. the sweeper's work queue.
	ListEndedBefore(ctx context.Context, now time.Time) ([]*Auction, error)
}

// EventPublisher delivers engine events to external consumers.
type EventPublisher interface {
	PublishAuctionEvent(ctx context.Context, event *AuctionEvent) error
}

type EventHandler func(event *AuctionEvent) error

type EventSubscriber interface {
	SubscribeToAuctionEvents(ctx context.Context, handler EventHandler) error
}

// Clock supplies wall-clock time; injectable for deterministic tests.
type Clock interface {
	Now() time.Time
}

// UserInfo is the identity collaborator's view of a user, used only for
// denormalized display fields on auctions and bids.
type UserInfo struct {
	ID      string
	Name    string
	Contact string
}

type UserDirectory interface {
	ResolveUser(ctx context.Context, userID string) (*UserInfo, error)
}

// LeaderElection gates the sweeper so only one instance finalizes.
type LeaderElection interface {
	BecomeLeader(ctx context.Context, instanceID string) (bool, error)
	IsLeader(ctx context.Context, instanceID string) (bool, error)
	ReleaseLeadership(ctx context.Context, instanceID string) error
}
