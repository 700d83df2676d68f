package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"auction-engine/internal/domain"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func seed(t *testing.T, s *Store, id string, endTime time.Time, mutate func(*domain.Auction)) *domain.Auction {
	t.Helper()
	auction := &domain.Auction{
		ID:                 id,
		SellerID:           "seller",
		ProductName:        "mechanical keyboard",
		ProductDescription: "tenkeyless, brown switches",
		Category:           "electronics",
		Condition:          "Good",
		BasePrice:          40,
		CurrentHighestBid:  40,
		StartTime:          endTime.Add(-time.Hour),
		EndTime:            endTime,
		Status:             domain.AuctionActive,
	}
	if mutate != nil {
		mutate(auction)
	}
	assert.Nil(t, s.Create(context.Background(), auction))
	return auction
}

func TestGet_Unknown(t *testing.T) {
	s := New()

	_, err := s.Get(context.Background(), "nope")
	check.True(t, errors.Is(err, domain.ErrAuctionNotFound))
}

func TestGet_ReturnsIsolatedCopy(t *testing.T) {
	s := New()
	ctx := context.Background()
	end := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seed(t, s, "a1", end, nil)

	first, err := s.Get(ctx, "a1")
	assert.Nil(t, err)
	first.CurrentHighestBid = 9999
	first.BidHistory = append(first.BidHistory, domain.Bid{ID: "rogue"})

	second, err := s.Get(ctx, "a1")
	assert.Nil(t, err)
	check.Equal(t, 40.0, second.CurrentHighestBid)
	check.Equal(t, 0, len(second.BidHistory))
}

func TestCompareAndSwap_VersionConflict(t *testing.T) {
	s := New()
	ctx := context.Background()
	end := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	seed(t, s, "a1", end, nil)

	stale, err := s.Get(ctx, "a1")
	assert.Nil(t, err)
	fresh, err := s.Get(ctx, "a1")
	assert.Nil(t, err)

	fresh.CurrentHighestBid = 55
	assert.Nil(t, s.CompareAndSwap(ctx, fresh, fresh.Version))

	// The second writer still holds the pre-swap version.
	stale.CurrentHighestBid = 50
	err = s.CompareAndSwap(ctx, stale, stale.Version)
	check.True(t, errors.Is(err, domain.ErrVersionConflict))

	stored, err := s.Get(ctx, "a1")
	assert.Nil(t, err)
	check.Equal(t, 55.0, stored.CurrentHighestBid)
	check.Equal(t, int64(1), stored.Version)
}

func TestCompareAndSwap_UnknownAuction(t *testing.T) {
	s := New()

	err := s.CompareAndSwap(context.Background(), &domain.Auction{ID: "nope"}, 0)
	check.True(t, errors.Is(err, domain.ErrAuctionNotFound))
}

func TestListActive_FiltersAndSorts(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	seed(t, s, "books-late", base.Add(3*time.Hour), func(a *domain.Auction) {
		a.Category = "books"
		a.ProductName = "first edition novel"
	})
	seed(t, s, "books-early", base.Add(time.Hour), func(a *domain.Auction) {
		a.Category = "books"
		a.ProductName = "signed paperback"
	})
	seed(t, s, "electronics", base.Add(2*time.Hour), nil)
	seed(t, s, "done", base.Add(4*time.Hour), func(a *domain.Auction) {
		a.Status = domain.AuctionEndedNoBids
	})

	all, err := s.ListActive(ctx, domain.ListFilter{})
	assert.Nil(t, err)
	assert.Equal(t, 3, len(all))
	check.Equal(t, "books-early", all[0].ID)
	check.Equal(t, "electronics", all[1].ID)
	check.Equal(t, "books-late", all[2].ID)

	books, err := s.ListActive(ctx, domain.ListFilter{Category: "books"})
	assert.Nil(t, err)
	assert.Equal(t, 2, len(books))
	check.Equal(t, "books-early", books[0].ID)

	searched, err := s.ListActive(ctx, domain.ListFilter{Search: "PAPERBACK"})
	assert.Nil(t, err)
	assert.Equal(t, 1, len(searched))
	check.Equal(t, "books-early", searched[0].ID)

	paged, err := s.ListActive(ctx, domain.ListFilter{Offset: 1, Limit: 1})
	assert.Nil(t, err)
	assert.Equal(t, 1, len(paged))
	check.Equal(t, "electronics", paged[0].ID)

	none, err := s.ListActive(ctx, domain.ListFilter{Offset: 10})
	assert.Nil(t, err)
	check.Equal(t, 0, len(none))
}

func TestListEndedBefore(t *testing.T) {
	s := New()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	seed(t, s, "past", base.Add(-time.Hour), nil)
	seed(t, s, "exactly-now", base, nil)
	seed(t, s, "future", base.Add(time.Hour), nil)
	seed(t, s, "past-terminal", base.Add(-2*time.Hour), func(a *domain.Auction) {
		a.Status = domain.AuctionCancelled
	})

	ended, err := s.ListEndedBefore(ctx, base)
	assert.Nil(t, err)
	assert.Equal(t, 2, len(ended))

	// A deadline equal to now counts as ended; terminal records are skipped.
	check.Equal(t, "past", ended[0].ID)
	check.Equal(t, "exactly-now", ended[1].ID)
}
