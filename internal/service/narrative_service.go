package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/evetabi/liquidation-roulette/internal/catalogue"
	"github.com/evetabi/liquidation-roulette/internal/config"
	"github.com/evetabi/liquidation-roulette/internal/domain"
	"github.com/evetabi/liquidation-roulette/internal/narrative"
	"github.com/evetabi/liquidation-roulette/internal/repository"
)

// NarrativeService wraps the narrative backend with a per-call timeout and
// a short-lived cache of the catalogue-wide risk analysis.  It only ever
// reads round snapshots, so no ledger lock is held while the backend runs.
type NarrativeService struct {
	narrator  narrative.Narrator // nil when no backend is configured
	repo      *repository.RoundRepository
	catalogue *catalogue.Catalogue
	cfg       *config.NarrativeConfig
	logger    *slog.Logger

	// risk analysis cache
	mu         sync.RWMutex
	cachedRisk string
	cacheTime  time.Time
}

// NewNarrativeService creates a NarrativeService.  A nil narrator disables
// every operation with domain.ErrNarrativeUnavailable.
func NewNarrativeService(
	narrator narrative.Narrator,
	repo *repository.RoundRepository,
	cat *catalogue.Catalogue,
	cfg *config.Config,
	logger *slog.Logger,
) *NarrativeService {
	return &NarrativeService{
		narrator:  narrator,
		repo:      repo,
		catalogue: cat,
		cfg:       &cfg.Narrative,
		logger:    orDefaultLogger(logger),
	}
}

// Enabled reports whether a backend is configured.
func (s *NarrativeService) Enabled() bool {
	return s.narrator != nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Public API
// ──────────────────────────────────────────────────────────────────────────────

// RiskAnalysis ranks the tracked protocols by liquidation risk.  A fresh
// result (< CacheTTL) is served from memory.
func (s *NarrativeService) RiskAnalysis(ctx context.Context) (string, error) {
	if !s.Enabled() {
		return "", domain.ErrNarrativeUnavailable
	}

	s.mu.RLock()
	if !s.cacheTime.IsZero() && time.Since(s.cacheTime) < s.cfg.CacheTTL {
		text := s.cachedRisk
		s.mu.RUnlock()
		return text, nil
	}
	s.mu.RUnlock()

	text, err := s.call(ctx, "risk_analysis", func(ctx context.Context) (string, error) {
		return s.narrator.RiskAnalysis(ctx, s.catalogue.All())
	})
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.cachedRisk = text
	s.cacheTime = time.Now()
	s.mu.Unlock()
	return text, nil
}

// PredictRound asks for a likely winner of roundID.
func (s *NarrativeService) PredictRound(ctx context.Context, roundID string) (string, error) {
	r, err := s.repo.Get(ctx, roundID)
	if err != nil {
		return "", fmt.Errorf("narrative_service.PredictRound: %w", err)
	}
	if !s.Enabled() {
		return "", domain.ErrNarrativeUnavailable
	}
	brief := narrative.NewRoundBrief(r)
	return s.call(ctx, "predict_round", func(ctx context.Context) (string, error) {
		return s.narrator.PredictRound(ctx, brief)
	})
}

// PostMortem explains the outcome of a resolved round.
func (s *NarrativeService) PostMortem(ctx context.Context, roundID string) (string, error) {
	r, err := s.repo.Get(ctx, roundID)
	if err != nil {
		return "", fmt.Errorf("narrative_service.PostMortem: %w", err)
	}
	if !r.IsResolved() {
		return "", fmt.Errorf("narrative_service.PostMortem: %w", domain.ErrRoundNotResolved)
	}
	if !s.Enabled() {
		return "", domain.ErrNarrativeUnavailable
	}
	brief := narrative.NewPostMortemBrief(r)
	return s.call(ctx, "post_mortem", func(ctx context.Context) (string, error) {
		return s.narrator.PostMortem(ctx, brief)
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

// call runs fn under the configured timeout and maps any failure to
// domain.ErrNarrativeFailed.
func (s *NarrativeService) call(ctx context.Context, op string, fn func(context.Context) (string, error)) (string, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := fn(ctx)
	if err != nil {
		s.logger.Warn("narrative call failed", "op", op, "elapsed", time.Since(start), "error", err)
		return "", fmt.Errorf("narrative_service.%s: %w: %v", op, domain.ErrNarrativeFailed, err)
	}
	s.logger.Debug("narrative call", "op", op, "elapsed", time.Since(start))
	return text, nil
}
