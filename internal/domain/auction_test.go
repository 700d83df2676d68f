package domain

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/check"
)

func TestStatusIsTerminal(t *testing.T) {
	check.False(t, AuctionActive.IsTerminal())
	check.True(t, AuctionEndedSold.IsTerminal())
	check.True(t, AuctionEndedNoBids.IsTerminal())
	check.True(t, AuctionCancelled.IsTerminal())
}

func TestBiddableAndExpired(t *testing.T) {
	end := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	auction := &Auction{Status: AuctionActive, EndTime: end}

	check.True(t, auction.Biddable(end.Add(-time.Second)))
	check.False(t, auction.Biddable(end))
	check.False(t, auction.Expired(end.Add(-time.Second)))

	// The deadline itself counts as closed.
	check.True(t, auction.Expired(end))
	check.True(t, auction.Expired(end.Add(time.Hour)))

	auction.Status = AuctionCancelled
	check.False(t, auction.Biddable(end.Add(-time.Second)))
	check.False(t, auction.Expired(end.Add(time.Hour)))
}

func TestHasBids(t *testing.T) {
	auction := &Auction{BasePrice: 100, CurrentHighestBid: 100}
	check.False(t, auction.HasBids())

	auction.BidHistory = append(auction.BidHistory, Bid{ID: "b1", Amount: 100})
	check.True(t, auction.HasBids())
}

func TestWinner(t *testing.T) {
	auction := &Auction{
		Status: AuctionEndedSold,
		BidHistory: []Bid{
			{ID: "b1", BidderID: "u1", Amount: 100},
			{ID: "b2", BidderID: "u2", Amount: 140},
		},
	}

	winner, ok := auction.Winner()
	check.True(t, ok)
	check.Equal(t, "u2", winner.BidderID)
	check.Equal(t, 140.0, winner.Amount)

	noBids := &Auction{Status: AuctionEndedNoBids}
	_, ok = noBids.Winner()
	check.False(t, ok)
}

func TestCloneIsDeep(t *testing.T) {
	auction := &Auction{
		ID:         "a1",
		BidHistory: []Bid{{ID: "b1", Amount: 100}},
	}

	cp := auction.Clone()
	cp.BidHistory[0].Amount = 999
	cp.BidHistory = append(cp.BidHistory, Bid{ID: "b2"})

	check.Equal(t, 100.0, auction.BidHistory[0].Amount)
	check.Equal(t, 1, len(auction.BidHistory))
}
