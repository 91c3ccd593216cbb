package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/evetabi/liquidation-roulette/internal/catalogue"
	"github.com/evetabi/liquidation-roulette/internal/domain"
	"github.com/evetabi/liquidation-roulette/internal/repository"
)

// Settlement is the result of resolving a round.
type Settlement struct {
	Round           *domain.Round
	Winner          string
	WinnerName      string
	MaxLiquidations int64
	Payouts         []domain.Payout
}

// ResolutionService settles rounds against a reported outcome: it picks the
// winner, freezes the round and computes pari-mutuel payouts.
type ResolutionService struct {
	repo        *repository.RoundRepository
	catalogue   *catalogue.Catalogue
	clock       Clock
	logger      *slog.Logger
	broadcaster Broadcaster
}

// NewResolutionService builds a ResolutionService.
func NewResolutionService(
	repo *repository.RoundRepository,
	cat *catalogue.Catalogue,
	clock Clock,
	logger *slog.Logger,
) *ResolutionService {
	if clock == nil {
		clock = SystemClock
	}
	return &ResolutionService{
		repo:        repo,
		catalogue:   cat,
		clock:       clock,
		logger:      orDefaultLogger(logger),
		broadcaster: nopBroadcaster{},
	}
}

// SetBroadcaster injects the WS Hub dependency post-construction.
func (s *ResolutionService) SetBroadcaster(b Broadcaster) { s.broadcaster = b }

// ──────────────────────────────────────────────────────────────────────────────
// Resolve
// ──────────────────────────────────────────────────────────────────────────────

// Resolve settles roundID with the given liquidation counts.  The outcome is
// validated in full before the round is touched; a second call on the same
// round fails with ErrRoundAlreadyResolved.
func (s *ResolutionService) Resolve(ctx context.Context, roundID string, counts map[string]int64) (*Settlement, error) {
	var st Settlement

	snapshot, err := s.repo.Update(ctx, roundID, func(r *domain.Round) error {
		// ── Step 1: Validate outcome ─────────────────────────────────────────
		if err := r.ValidateOutcome(counts); err != nil {
			return err
		}

		// ── Step 2: Determine winner ─────────────────────────────────────────
		winner, top, _ := domain.SelectWinner(counts)
		name, ok := s.catalogue.Name(winner)
		if !ok {
			name = winner
		}

		// ── Step 3: Freeze ───────────────────────────────────────────────────
		r.Freeze(domain.Result{
			Winner:            winner,
			WinnerName:        name,
			LiquidationCounts: counts,
			MaxLiquidations:   top,
			ResolvedAt:        s.clock(),
		})

		// ── Step 4: Payouts ──────────────────────────────────────────────────
		st.Winner = winner
		st.WinnerName = name
		st.MaxLiquidations = top
		st.Payouts = domain.CalculatePayouts(r, winner)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("resolution_service.Resolve: %w", err)
	}
	st.Round = snapshot

	paid := domain.TotalPaid(st.Payouts)
	s.logger.Info("round resolved",
		"round_id", roundID,
		"winner", st.Winner,
		"max_liquidations", st.MaxLiquidations,
		"total_pool", snapshot.TotalPool.String(),
		"winning_bets", len(st.Payouts),
		"total_paid", paid.String(),
		"house_take", snapshot.TotalPool.Sub(paid).String(),
	)
	s.broadcaster.BroadcastRoundResolved(snapshot, st.Payouts)
	return &st, nil
}
