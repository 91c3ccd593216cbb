package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/evetabi/liquidation-roulette/internal/catalogue"
	"github.com/evetabi/liquidation-roulette/internal/config"
	"github.com/evetabi/liquidation-roulette/internal/domain"
	"github.com/evetabi/liquidation-roulette/internal/repository"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Request / view types
// ──────────────────────────────────────────────────────────────────────────────

// CreateRoundRequest carries the optional round parameters.  Nil fields take
// the configured defaults.
type CreateRoundRequest struct {
	Duration *float64         // seconds
	MinBet   *decimal.Decimal // USDC
}

// RoundView is a round snapshot enriched with live pricing.
type RoundView struct {
	*domain.Round
	OddsBreakdown domain.OddsBreakdown `json:"oddsBreakdown"`
	TimeRemaining int64                `json:"timeRemaining"` // milliseconds
}

// RegistryStats is reported by the health endpoint.
type RegistryStats struct {
	TrackedProtocols int `json:"trackedProtocols"`
	repository.Stats
}

// ──────────────────────────────────────────────────────────────────────────────
// RoundService
// ──────────────────────────────────────────────────────────────────────────────

// MaxRoundDuration caps a requested round length.
const MaxRoundDuration = 365 * 24 * time.Hour

// RoundService handles round lifecycle: creation and querying.
type RoundService struct {
	repo        *repository.RoundRepository
	catalogue   *catalogue.Catalogue
	cfg         *config.RoundConfig
	clock       Clock
	logger      *slog.Logger
	broadcaster Broadcaster
}

// NewRoundService creates a RoundService.
func NewRoundService(
	repo *repository.RoundRepository,
	cat *catalogue.Catalogue,
	cfg *config.Config,
	clock Clock,
	logger *slog.Logger,
) *RoundService {
	if clock == nil {
		clock = SystemClock
	}
	return &RoundService{
		repo:        repo,
		catalogue:   cat,
		cfg:         &cfg.Round,
		clock:       clock,
		logger:      orDefaultLogger(logger),
		broadcaster: nopBroadcaster{},
	}
}

// SetBroadcaster injects the WS Hub dependency post-construction.
func (s *RoundService) SetBroadcaster(b Broadcaster) { s.broadcaster = b }

// ──────────────────────────────────────────────────────────────────────────────
// Create
// ──────────────────────────────────────────────────────────────────────────────

// Create opens a new round over every catalogue protocol, with a zero pool
// for each.
func (s *RoundService) Create(ctx context.Context, req CreateRoundRequest) (*domain.Round, error) {
	duration := s.cfg.DefaultDuration
	if req.Duration != nil {
		secs := *req.Duration
		if !(secs > 0) || secs > MaxRoundDuration.Seconds() {
			return nil, fmt.Errorf("round_service.Create: %w", domain.ErrInvalidDuration)
		}
		duration = time.Duration(secs * float64(time.Second))
		if duration <= 0 {
			return nil, fmt.Errorf("round_service.Create: %w", domain.ErrInvalidDuration)
		}
	}
	minBet := decimal.NewFromFloat(s.cfg.DefaultMinBet)
	if req.MinBet != nil {
		if !req.MinBet.IsPositive() {
			return nil, fmt.Errorf("round_service.Create: %w", domain.ErrInvalidMinBet)
		}
		minBet = *req.MinBet
	}

	id, err := s.repo.NextRoundID()
	if err != nil {
		return nil, fmt.Errorf("round_service.Create: %w", err)
	}
	r := domain.NewRound(id, s.catalogue.IDs(), minBet, s.clock(), duration)
	snapshot := r.Clone()
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("round_service.Create: %w", err)
	}

	s.logger.Info("round created",
		"round_id", id,
		"duration", duration.String(),
		"min_bet", minBet.String(),
		"ends_at", snapshot.EndsAt,
	)
	s.broadcaster.BroadcastRoundCreated(snapshot)
	return snapshot, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────────────────────────

// Get returns the round together with its odds breakdown and the time left
// until its nominal end.
func (s *RoundService) Get(ctx context.Context, id string) (*RoundView, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("round_service.Get: %w", err)
	}
	return s.view(r), nil
}

// Exists returns domain.ErrRoundNotFound when no round has id.
func (s *RoundService) Exists(id string) error {
	if !s.repo.HasRound(id) {
		return fmt.Errorf("round_service.Exists: %w", domain.ErrRoundNotFound)
	}
	return nil
}

// ListOpen summarises every open round in creation order.
func (s *RoundService) ListOpen(ctx context.Context) ([]domain.RoundSummary, error) {
	rounds, err := s.repo.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("round_service.ListOpen: %w", err)
	}
	now := s.clock()
	out := make([]domain.RoundSummary, 0, len(rounds))
	for _, r := range rounds {
		out = append(out, r.ToSummary(now))
	}
	return out, nil
}

// OpenViews returns a RoundView for every open round.  Used by the
// scheduler's odds broadcast.
func (s *RoundService) OpenViews(ctx context.Context) ([]*RoundView, error) {
	rounds, err := s.repo.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("round_service.OpenViews: %w", err)
	}
	out := make([]*RoundView, 0, len(rounds))
	for _, r := range rounds {
		out = append(out, s.view(r))
	}
	return out, nil
}

// GetBet returns a bet by id.
func (s *RoundService) GetBet(ctx context.Context, id string) (domain.Bet, error) {
	b, err := s.repo.GetBet(ctx, id)
	if err != nil {
		return domain.Bet{}, fmt.Errorf("round_service.GetBet: %w", err)
	}
	return b, nil
}

// Stats reports catalogue and registry counters.
func (s *RoundService) Stats() RegistryStats {
	return RegistryStats{
		TrackedProtocols: s.catalogue.Len(),
		Stats:            s.repo.Stats(),
	}
}

// Protocols returns the tracked protocol catalogue.
func (s *RoundService) Protocols() []domain.Candidate {
	return s.catalogue.All()
}

func (s *RoundService) view(r *domain.Round) *RoundView {
	return &RoundView{
		Round:         r,
		OddsBreakdown: domain.ComputeOdds(r).WithNames(s.catalogue.Name),
		TimeRemaining: r.TimeRemaining(s.clock()).Milliseconds(),
	}
}
