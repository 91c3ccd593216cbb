package service_test

import (
	"sync"
	"testing"
	"time"

	"github.com/evetabi/liquidation-roulette/internal/catalogue"
	"github.com/evetabi/liquidation-roulette/internal/config"
	"github.com/evetabi/liquidation-roulette/internal/domain"
	"github.com/evetabi/liquidation-roulette/internal/idgen"
	"github.com/evetabi/liquidation-roulette/internal/repository"
	"github.com/evetabi/liquidation-roulette/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// ── recording broadcaster ─────────────────────────────────────────────────────

type recorder struct {
	mu       sync.Mutex
	created  []string
	bets     []domain.Bet
	resolved []string
	payouts  [][]domain.Payout
}

func (r *recorder) BroadcastRoundCreated(rd *domain.Round) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, rd.ID)
}

func (r *recorder) BroadcastBetPlaced(b domain.Bet, _ decimal.Decimal, _ domain.OddsBreakdown) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bets = append(r.bets, b)
}

func (r *recorder) BroadcastRoundResolved(rd *domain.Round, p []domain.Payout) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolved = append(r.resolved, rd.ID)
	r.payouts = append(r.payouts, p)
}

// ── fixture ───────────────────────────────────────────────────────────────────

type fixture struct {
	cfg        *config.Config
	repo       *repository.RoundRepository
	cat        *catalogue.Catalogue
	rounds     *service.RoundService
	bets       *service.BetService
	resolution *service.ResolutionService
	events     *recorder

	mu  sync.Mutex
	now time.Time
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func testConfig() *config.Config {
	return &config.Config{
		Round: config.RoundConfig{
			DefaultDuration: time.Hour,
			DefaultMinBet:   5,
			IDFormat:        "hex",
		},
		Narrative: config.NarrativeConfig{
			Timeout:  time.Second,
			CacheTTL: time.Minute,
		},
	}
}

// newFixture wires the services over a two-protocol catalogue {X, Y}.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	cat, err := catalogue.New([]domain.Candidate{
		{ID: "X", Name: "Protocol X"},
		{ID: "Y", Name: "Protocol Y"},
	})
	require.NoError(t, err)

	f := &fixture{
		cfg:    testConfig(),
		repo:   repository.NewRoundRepository(idgen.NewHex()),
		cat:    cat,
		events: &recorder{},
		now:    t0,
	}
	f.rounds = service.NewRoundService(f.repo, cat, f.cfg, f.clock, nil)
	f.bets = service.NewBetService(f.repo, cat, f.clock, nil)
	f.resolution = service.NewResolutionService(f.repo, cat, f.clock, nil)
	f.rounds.SetBroadcaster(f.events)
	f.bets.SetBroadcaster(f.events)
	f.resolution.SetBroadcaster(f.events)
	return f
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func (f *fixture) openRound(t *testing.T) string {
	t.Helper()
	r, err := f.rounds.Create(t.Context(), service.CreateRoundRequest{})
	require.NoError(t, err)
	return r.ID
}

func (f *fixture) bet(t *testing.T, roundID, agent, candidate, amount string) *service.PlaceBetResult {
	t.Helper()
	res, err := f.bets.PlaceBet(t.Context(), domain.PlaceBetRequest{
		RoundID:     roundID,
		AgentID:     agent,
		CandidateID: candidate,
		Amount:      dec(amount),
	})
	require.NoError(t, err)
	return res
}
