package services

import (
	"context"
	"fmt"
	"time"

	"auction-engine/internal/domain"
	"auction-engine/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically finalizes auctions whose deadline has passed. It is a
// safety net behind the engine's lazy finalize paths: a longer interval only
// delays the status flip, never bid acceptance, because the engine treats
// now >= endTime as closed regardless of the stored status.
type Sweeper struct {
	cron       *cron.Cron
	engine     *Engine
	store      domain.AuctionStore
	leader     domain.LeaderElection
	clock      domain.Clock
	instanceID string
	interval   time.Duration
	log        logger.Logger
}

func NewSweeper(
	engine *Engine,
	store domain.AuctionStore,
	leader domain.LeaderElection,
	clock domain.Clock,
	instanceID string,
	interval time.Duration,
	log logger.Logger,
) *Sweeper {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Sweeper{
		cron:       cron.New(cron.WithSeconds()),
		engine:     engine,
		store:      store,
		leader:     leader,
		clock:      clock,
		instanceID: instanceID,
		interval:   interval,
		log:        log,
	}
}

func (s *Sweeper) Start(ctx context.Context) error {
	s.log.Info("Starting lifecycle sweeper", "interval", s.interval)

	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		s.sweep(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *Sweeper) Stop() error {
	s.log.Info("Stopping lifecycle sweeper")
	s.cron.Stop()
	return nil
}

func (s *Sweeper) sweep(ctx context.Context) {
	if s.leader != nil {
		isLeader, err := s.leader.IsLeader(ctx, s.instanceID)
		if err != nil {
			s.log.Error("Leadership check failed", "error", err)
			return
		}
		if !isLeader {
			return
		}
	}

	finalized, err := s.SweepOnce(ctx)
	if err != nil {
		s.log.Error("Sweep failed", "error", err)
		return
	}
	if finalized > 0 {
		s.log.Info("Sweep finalized auctions", "count", finalized)
	}
}

// SweepOnce scans for active auctions past their deadline and finalizes each,
// returning how many reached a terminal state. Errors on individual auctions
// are logged and do not stop the scan.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	expired, err := s.store.ListEndedBefore(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}

	finalized := 0
	for _, auction := range expired {
		updated, err := s.engine.Finalize(ctx, auction.ID)
		if err != nil {
			s.log.Error("Failed to finalize auction", "auction_id", auction.ID, "error", err)
			continue
		}
		if updated.Status.IsTerminal() {
			finalized++
		}
	}
	return finalized, nil
}
