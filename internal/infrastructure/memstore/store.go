// Package memstore provides an in-memory AuctionStore with the same
// compare-and-swap contract as the MySQL store. Used by tests and
// single-node development runs.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"auction-engine/internal/domain"
)

type Store struct {
	mu       sync.RWMutex
	auctions map[string]*domain.Auction
}

func New() *Store {
	return &Store{
		auctions: make(map[string]*domain.Auction),
	}
}

func (s *Store) Create(_ context.Context, auction *domain.Auction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.auctions[auction.ID] = auction.Clone()
	return nil
}

func (s *Store) Get(_ context.Context, auctionID string) (*domain.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	auction, ok := s.auctions[auctionID]
	if !ok {
		return nil, domain.ErrAuctionNotFound
	}
	return auction.Clone(), nil
}

func (s *Store) CompareAndSwap(_ context.Context, auction *domain.Auction, expectedVersion int64, newBids ...domain.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.auctions[auction.ID]
	if !ok {
		return domain.ErrAuctionNotFound
	}
	if stored.Version != expectedVersion {
		return domain.ErrVersionConflict
	}

	next := auction.Clone()
	next.Version = expectedVersion + 1
	s.auctions[auction.ID] = next
	return nil
}

func (s *Store) ListActive(_ context.Context, filter domain.ListFilter) ([]*domain.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Auction
	for _, auction := range s.auctions {
		if auction.Status != domain.AuctionActive {
			continue
		}
		if filter.Category != "" && auction.Category != filter.Category {
			continue
		}
		if filter.Search != "" && !matchesSearch(auction, filter.Search) {
			continue
		}
		out = append(out, auction.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].EndTime.Before(out[j].EndTime)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *Store) ListEndedBefore(_ context.Context, now time.Time) ([]*domain.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Auction
	for _, auction := range s.auctions {
		if auction.Status == domain.AuctionActive && !now.Before(auction.EndTime) {
			out = append(out, auction.Clone())
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].EndTime.Before(out[j].EndTime)
	})
	return out, nil
}

func matchesSearch(auction *domain.Auction, search string) bool {
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(auction.ProductName), needle) ||
		strings.Contains(strings.ToLower(auction.ProductDescription), needle)
}
