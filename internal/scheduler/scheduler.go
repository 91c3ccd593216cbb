// Package scheduler manages the background goroutines that accompany the
// round ledger:
//  1. oddsBroadcastLoop – pushes the live odds of every open round to WS clients.
//  2. expiryLoop        – announces, once per round, that endsAt has passed.
//
// Neither loop mutates a round.  Expiry is advisory: an expired round keeps
// accepting bets until an operator resolves it.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/evetabi/liquidation-roulette/internal/config"
	"github.com/evetabi/liquidation-roulette/internal/service"
	"github.com/evetabi/liquidation-roulette/internal/ws"
	"golang.org/x/sync/errgroup"
)

// ──────────────────────────────────────────────────────────────────────────────
// WsHub interface
// ──────────────────────────────────────────────────────────────────────────────

// WsHub defines the broadcast operations the Scheduler needs from the WebSocket
// hub.
type WsHub interface {
	BroadcastOddsUpdate(msg ws.OddsUpdateMessage)
	BroadcastRoundExpired(msg ws.RoundExpiredMessage)
}

// ──────────────────────────────────────────────────────────────────────────────
// Scheduler
// ──────────────────────────────────────────────────────────────────────────────

// Scheduler runs the periodic loops.  Call Run(ctx) once from main(); cancel
// the context to shut it down.
type Scheduler struct {
	roundSvc *service.RoundService
	hub      WsHub
	cfg      *config.SchedulerConfig
	clock    service.Clock
	logger   *slog.Logger

	// round ids already announced as expired; owned by expiryLoop
	expired map[string]struct{}
}

// NewScheduler creates a Scheduler.
func NewScheduler(
	roundSvc *service.RoundService,
	hub WsHub,
	cfg *config.Config,
	clock service.Clock,
	logger *slog.Logger,
) *Scheduler {
	if clock == nil {
		clock = service.SystemClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		roundSvc: roundSvc,
		hub:      hub,
		cfg:      &cfg.Scheduler,
		clock:    clock,
		logger:   logger,
		expired:  make(map[string]struct{}),
	}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.oddsBroadcastLoop(ctx)
		return nil
	})
	g.Go(func() error {
		s.expiryLoop(ctx)
		return nil
	})
	s.logger.Info("scheduler started",
		"odds_interval", s.cfg.OddsInterval.String(),
		"expiry_interval", s.cfg.ExpiryInterval.String(),
	)
	return g.Wait()
}

// ──────────────────────────────────────────────────────────────────────────────
// oddsBroadcastLoop
// ──────────────────────────────────────────────────────────────────────────────

func (s *Scheduler) oddsBroadcastLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.OddsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("oddsBroadcastLoop: shutting down")
			return
		case <-ticker.C:
			s.broadcastOdds(ctx)
		}
	}
}

// broadcastOdds is the inner body of oddsBroadcastLoop, extracted so that
// a panic in one tick does not kill the loop.
func (s *Scheduler) broadcastOdds(ctx context.Context) {
	defer s.recoverAndLog("oddsBroadcastLoop")

	views, err := s.roundSvc.OpenViews(ctx)
	if err != nil {
		s.logger.Warn("oddsBroadcastLoop: list open rounds", "err", err)
		return
	}
	now := time.Now().UTC()
	for _, v := range views {
		s.hub.BroadcastOddsUpdate(ws.OddsUpdateMessage{
			Type:          ws.MsgTypeOddsUpdate,
			RoundID:       v.ID,
			TotalPool:     v.TotalPool,
			BetCount:      len(v.Bets),
			OddsBreakdown: v.OddsBreakdown,
			TimeRemaining: v.TimeRemaining,
			Timestamp:     now,
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// expiryLoop
// ──────────────────────────────────────────────────────────────────────────────

func (s *Scheduler) expiryLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.ExpiryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("expiryLoop: shutting down")
			return
		case <-ticker.C:
			s.checkExpiry(ctx)
		}
	}
}

// checkExpiry announces every open round whose endsAt has passed and that
// has not been announced before.  Rounds that are no longer open are
// forgotten.
func (s *Scheduler) checkExpiry(ctx context.Context) {
	defer s.recoverAndLog("expiryLoop")

	views, err := s.roundSvc.OpenViews(ctx)
	if err != nil {
		s.logger.Warn("expiryLoop: list open rounds", "err", err)
		return
	}

	now := s.clock()
	open := make(map[string]struct{}, len(views))
	for _, v := range views {
		open[v.ID] = struct{}{}
		if _, done := s.expired[v.ID]; done || !v.IsExpired(now) {
			continue
		}
		s.expired[v.ID] = struct{}{}
		s.logger.Warn("round past its end time and still open",
			"round_id", v.ID,
			"ends_at", v.EndsAt,
			"overdue", now.Sub(v.EndsAt).Round(time.Second).String(),
			"total_pool", v.TotalPool.String(),
		)
		s.hub.BroadcastRoundExpired(ws.RoundExpiredMessage{
			Type:      ws.MsgTypeRoundExpired,
			RoundID:   v.ID,
			EndsAt:    v.EndsAt,
			TotalPool: v.TotalPool,
			Timestamp: now,
		})
	}
	for id := range s.expired {
		if _, ok := open[id]; !ok {
			delete(s.expired, id)
		}
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Panic recovery
// ──────────────────────────────────────────────────────────────────────────────

// recoverAndLog is deferred inside each tick to catch unexpected panics,
// log them, and allow the scheduler to continue running.
func (s *Scheduler) recoverAndLog(loop string) {
	if r := recover(); r != nil {
		s.logger.Error("PANIC recovered in scheduler loop",
			"loop", loop, "panic", r)
	}
}
