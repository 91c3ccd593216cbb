package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/evetabi/liquidation-roulette/internal/catalogue"
	"github.com/evetabi/liquidation-roulette/internal/domain"
	"github.com/evetabi/liquidation-roulette/internal/repository"
	"github.com/shopspring/decimal"
)

// PlaceBetResult is the outcome of a successful placement.  CurrentOdds is
// computed from the post-bet pools and is not stored anywhere.
type PlaceBetResult struct {
	Bet         domain.Bet
	TotalPool   decimal.Decimal
	CurrentOdds domain.OddsBreakdown
}

// ──────────────────────────────────────────────────────────────────────────────
// BetService
// ──────────────────────────────────────────────────────────────────────────────

// BetService records stakes against open rounds.
type BetService struct {
	repo        *repository.RoundRepository
	catalogue   *catalogue.Catalogue
	clock       Clock
	logger      *slog.Logger
	broadcaster Broadcaster
}

// NewBetService creates a BetService.
func NewBetService(
	repo *repository.RoundRepository,
	cat *catalogue.Catalogue,
	clock Clock,
	logger *slog.Logger,
) *BetService {
	if clock == nil {
		clock = SystemClock
	}
	return &BetService{
		repo:        repo,
		catalogue:   cat,
		clock:       clock,
		logger:      orDefaultLogger(logger),
		broadcaster: nopBroadcaster{},
	}
}

// SetBroadcaster injects the WS Hub dependency post-construction.
func (s *BetService) SetBroadcaster(b Broadcaster) { s.broadcaster = b }

// ──────────────────────────────────────────────────────────────────────────────
// PlaceBet
// ──────────────────────────────────────────────────────────────────────────────

// PlaceBet validates the request against the round and, under that round's
// lock, records the bet and grows the pools.  Preconditions are checked in
// order (round exists, round open, fields present, minimum stake, known
// protocol) and the first failure is returned with nothing mutated.
//
// After the lock is released a bet_placed event is broadcast.
func (s *BetService) PlaceBet(ctx context.Context, req domain.PlaceBetRequest) (*PlaceBetResult, error) {
	var res PlaceBetResult

	_, err := s.repo.Update(ctx, req.RoundID, func(r *domain.Round) error {
		// ── 1. Preconditions ─────────────────────────────────────────────────
		if err := r.ValidateBet(req.AgentID, req.CandidateID, req.Amount); err != nil {
			return err
		}

		// ── 2. Build the bet ─────────────────────────────────────────────────
		id, err := s.repo.NextBetID()
		if err != nil {
			return err
		}
		name, _ := s.catalogue.Name(req.CandidateID)
		bet := domain.Bet{
			ID:           id,
			RoundID:      r.ID,
			AgentID:      req.AgentID,
			ProtocolID:   req.CandidateID,
			ProtocolName: name,
			Amount:       req.Amount,
			Timestamp:    s.clock(),
		}

		// ── 3. Apply and price ───────────────────────────────────────────────
		r.ApplyBet(bet)
		res = PlaceBetResult{
			Bet:         bet,
			TotalPool:   r.TotalPool,
			CurrentOdds: domain.ComputeOdds(r),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bet_service.PlaceBet: %w", err)
	}

	s.logger.Info("bet placed",
		"round_id", req.RoundID,
		"bet_id", res.Bet.ID,
		"agent_id", res.Bet.AgentID,
		"protocol_id", res.Bet.ProtocolID,
		"amount", res.Bet.Amount.String(),
		"total_pool", res.TotalPool.String(),
	)
	s.broadcaster.BroadcastBetPlaced(res.Bet, res.TotalPool, res.CurrentOdds)
	return &res, nil
}
