package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"auction-engine/internal/domain"
	"auction-engine/pkg/logger"
	"auction-engine/pkg/utils"
)

type EngineConfig struct {
	// MaxRetries bounds the optimistic-concurrency loop; once exhausted the
	// call fails with ErrContention instead of spinning.
	MaxRetries int
	// RetryBackoff is the base delay between conflict retries, doubled per
	// attempt.
	RetryBackoff time.Duration
	// AllowCancelWithBids permits a seller to cancel an auction that already
	// has accepted bids. Off by default.
	AllowCancelWithBids bool
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxRetries:   5,
		RetryBackoff: 20 * time.Millisecond,
	}
}

// Engine is the only writer of auction state. Every mutation is a
// read-validate-CAS cycle scoped to one auction; auctions never share a lock.
type Engine struct {
	store      domain.AuctionStore
	users      domain.UserDirectory
	events     domain.EventPublisher
	increments *IncrementPolicy
	clock      domain.Clock
	cfg        EngineConfig
	log        logger.Logger
}

func NewEngine(
	store domain.AuctionStore,
	users domain.UserDirectory,
	events domain.EventPublisher,
	increments *IncrementPolicy,
	clock domain.Clock,
	cfg EngineConfig,
	log logger.Logger,
) *Engine {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultEngineConfig().MaxRetries
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = DefaultEngineConfig().RetryBackoff
	}
	return &Engine{
		store:      store,
		users:      users,
		events:     events,
		increments: increments,
		clock:      clock,
		cfg:        cfg,
		log:        log,
	}
}

type CreateAuctionParams struct {
	SellerID           string
	ProductName        string
	ProductDescription string
	Category           string
	Condition          string
	SellerLocation     string
	Brand              string
	Model              string
	ImageURL           string
	BasePrice          float64
	EndTime            time.Time
}

var (
	ErrInvalidBasePrice   = errors.New("base price must be a positive number")
	ErrInvalidEndTime     = errors.New("auction end time must be in the future")
	ErrMissingProductInfo = errors.New("product name, description, category and condition are required")
)

// CreateAuction persists a new active listing with an empty bid history.
func (e *Engine) CreateAuction(ctx context.Context, p CreateAuctionParams) (*domain.Auction, error) {
	now := e.clock.Now()

	if p.BasePrice <= 0 {
		return nil, ErrInvalidBasePrice
	}
	if !p.EndTime.After(now) {
		return nil, ErrInvalidEndTime
	}
	if strings.TrimSpace(p.ProductName) == "" || strings.TrimSpace(p.ProductDescription) == "" ||
		p.Category == "" || p.Condition == "" {
		return nil, ErrMissingProductInfo
	}

	seller, err := e.users.ResolveUser(ctx, p.SellerID)
	if err != nil {
		return nil, err
	}

	auction := &domain.Auction{
		ID:                 utils.GenerateID("auction"),
		SellerID:           seller.ID,
		SellerName:         seller.Name,
		ProductName:        strings.TrimSpace(p.ProductName),
		ProductDescription: strings.TrimSpace(p.ProductDescription),
		Category:           p.Category,
		Condition:          p.Condition,
		SellerLocation:     p.SellerLocation,
		Brand:              p.Brand,
		Model:              p.Model,
		ImageURL:           p.ImageURL,
		BasePrice:          p.BasePrice,
		CurrentHighestBid:  p.BasePrice,
		StartTime:          now,
		EndTime:            p.EndTime,
		Status:             domain.AuctionActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := e.store.Create(ctx, auction); err != nil {
		return nil, err
	}

	e.log.Info("Auction created", "auction_id", auction.ID, "seller_id", auction.SellerID,
		"base_price", auction.BasePrice, "end_time", auction.EndTime)
	return auction, nil
}

// SubmitBid validates and commits a bid. Validation order matters: the first
// failing condition wins and nothing is mutated on rejection.
func (e *Engine) SubmitBid(ctx context.Context, auctionID, bidderID string, amount float64) (*domain.Auction, error) {
	for attempt := 0; ; attempt++ {
		auction, err := e.store.Get(ctx, auctionID)
		if err != nil {
			return nil, err
		}

		now := e.clock.Now()
		if !auction.Biddable(now) {
			if auction.Expired(now) {
				// A late bid is a detection trigger: finalize instead of
				// silently dropping the deadline crossing.
				if _, ferr := e.Finalize(ctx, auctionID); ferr != nil {
					e.log.Warn("Finalize triggered by late bid failed",
						"auction_id", auctionID, "error", ferr)
				}
			}
			return nil, domain.ErrAuctionClosed
		}

		if bidderID == auction.SellerID {
			return nil, domain.ErrSelfBidForbidden
		}

		minimum := e.MinimumBid(auction)
		if amount < minimum {
			return nil, &domain.BidTooLowError{Minimum: minimum}
		}

		bidder, err := e.users.ResolveUser(ctx, bidderID)
		if err != nil {
			return nil, err
		}

		bid := domain.Bid{
			ID:         utils.GenerateID("bid"),
			BidderID:   bidder.ID,
			BidderName: bidder.Name,
			Amount:     amount,
			AcceptedAt: now,
		}

		next := auction.Clone()
		next.BidHistory = append(next.BidHistory, bid)
		next.CurrentHighestBid = amount
		next.HighestBidderID = bidder.ID
		next.HighestBidderName = bidder.Name
		next.UpdatedAt = now

		err = e.store.CompareAndSwap(ctx, next, auction.Version, bid)
		if errors.Is(err, domain.ErrVersionConflict) {
			if !e.backoff(attempt) {
				e.log.Warn("Bid retries exhausted", "auction_id", auctionID, "bidder_id", bidderID)
				return nil, domain.ErrContention
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		next.Version = auction.Version + 1

		e.log.Info("Bid accepted", "auction_id", auctionID, "bidder_id", bidderID, "amount", amount)
		e.emit(ctx, &domain.AuctionEvent{
			Type:      domain.EventBidAccepted,
			AuctionID: auctionID,
			BidderID:  bidder.ID,
			Amount:    amount,
			Timestamp: now,
		})
		return next, nil
	}
}

// MinimumBid returns the smallest acceptable amount for the next bid.
func (e *Engine) MinimumBid(auction *domain.Auction) float64 {
	if !auction.HasBids() {
		return auction.BasePrice
	}
	return auction.CurrentHighestBid + e.increments.Increment(auction.CurrentHighestBid)
}

// Finalize moves a past-deadline auction to its terminal status. Idempotent:
// already-terminal and not-yet-due auctions are returned unchanged and the
// finalize event is emitted only by the call that performed the transition.
func (e *Engine) Finalize(ctx context.Context, auctionID string) (*domain.Auction, error) {
	for attempt := 0; ; attempt++ {
		auction, err := e.store.Get(ctx, auctionID)
		if err != nil {
			return nil, err
		}

		now := e.clock.Now()
		if auction.Status.IsTerminal() {
			return auction, nil
		}
		if now.Before(auction.EndTime) {
			return auction, nil
		}

		next := auction.Clone()
		if next.HasBids() {
			next.Status = domain.AuctionEndedSold
		} else {
			next.Status = domain.AuctionEndedNoBids
		}
		next.UpdatedAt = now

		err = e.store.CompareAndSwap(ctx, next, auction.Version)
		if errors.Is(err, domain.ErrVersionConflict) {
			// Lost a race against a last-second bid or another finalizer;
			// re-read and re-decide. A committed bid is never reversed.
			if !e.backoff(attempt) {
				return nil, domain.ErrContention
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		next.Version = auction.Version + 1

		event := &domain.AuctionEvent{
			Type:      domain.EventAuctionFinalized,
			AuctionID: auctionID,
			Status:    next.Status,
			Timestamp: now,
		}
		if winner, ok := next.Winner(); ok {
			event.WinnerID = winner.BidderID
			event.WinningAmount = winner.Amount
		}
		e.log.Info("Auction finalized", "auction_id", auctionID, "status", next.Status,
			"winner_id", event.WinnerID)
		e.emit(ctx, event)
		return next, nil
	}
}

// Cancel lets the seller withdraw an active listing before its deadline.
func (e *Engine) Cancel(ctx context.Context, auctionID, callerID string) (*domain.Auction, error) {
	for attempt := 0; ; attempt++ {
		auction, err := e.store.Get(ctx, auctionID)
		if err != nil {
			return nil, err
		}

		if callerID != auction.SellerID {
			return nil, domain.ErrForbidden
		}

		now := e.clock.Now()
		if auction.Status.IsTerminal() {
			return nil, domain.ErrInvalidState
		}
		if auction.Expired(now) {
			if _, ferr := e.Finalize(ctx, auctionID); ferr != nil {
				e.log.Warn("Finalize triggered by late cancel failed",
					"auction_id", auctionID, "error", ferr)
			}
			return nil, domain.ErrInvalidState
		}
		if auction.HasBids() && !e.cfg.AllowCancelWithBids {
			return nil, domain.ErrInvalidState
		}

		next := auction.Clone()
		next.Status = domain.AuctionCancelled
		next.UpdatedAt = now

		err = e.store.CompareAndSwap(ctx, next, auction.Version)
		if errors.Is(err, domain.ErrVersionConflict) {
			if !e.backoff(attempt) {
				return nil, domain.ErrContention
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		next.Version = auction.Version + 1

		e.log.Info("Auction cancelled", "auction_id", auctionID, "seller_id", callerID)
		e.emit(ctx, &domain.AuctionEvent{
			Type:      domain.EventAuctionFinalized,
			AuctionID: auctionID,
			Status:    domain.AuctionCancelled,
			Timestamp: now,
		})
		return next, nil
	}
}

// GetAuction returns a full snapshot including bid history. A record whose
// deadline has passed is finalized on read so callers never act on a stale
// "active" status.
func (e *Engine) GetAuction(ctx context.Context, auctionID string) (*domain.Auction, error) {
	auction, err := e.store.Get(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	if auction.Expired(e.clock.Now()) {
		return e.Finalize(ctx, auctionID)
	}
	return auction, nil
}

// ListActive returns open auctions sorted soonest-ending first, sweeping any
// expired records beforehand so the listing never shows a past-deadline
// auction as active.
func (e *Engine) ListActive(ctx context.Context, filter domain.ListFilter) ([]*domain.Auction, error) {
	expired, err := e.store.ListEndedBefore(ctx, e.clock.Now())
	if err != nil {
		return nil, err
	}
	for _, auction := range expired {
		if _, err := e.Finalize(ctx, auction.ID); err != nil {
			e.log.Error("Failed to finalize expired auction during listing",
				"auction_id", auction.ID, "error", err)
		}
	}

	return e.store.ListActive(ctx, filter)
}

// backoff sleeps before the next CAS attempt and reports whether the retry
// budget allows one.
func (e *Engine) backoff(attempt int) bool {
	if attempt+1 >= e.cfg.MaxRetries {
		return false
	}
	time.Sleep(e.cfg.RetryBackoff << attempt)
	return true
}

// emit publishes after the durable commit; delivery failures are logged, not
// propagated, because the state change already happened.
func (e *Engine) emit(ctx context.Context, event *domain.AuctionEvent) {
	if e.events == nil {
		return
	}
	if err := e.events.PublishAuctionEvent(ctx, event); err != nil {
		e.log.Error("Failed to publish auction event", "type", event.Type,
			"auction_id", event.AuctionID, "error", err)
	}
}
