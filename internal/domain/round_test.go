package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/evetabi/liquidation-roulette/internal/domain"
	"github.com/shopspring/decimal"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestRound() *domain.Round {
	return domain.NewRound("r1", []string{"X", "Y"}, decimal.NewFromInt(5), t0, time.Hour)
}

func bet(id, agent, candidate string, amount int64) domain.Bet {
	return domain.Bet{
		ID:         id,
		RoundID:    "r1",
		AgentID:    agent,
		ProtocolID: candidate,
		Amount:     decimal.NewFromInt(amount),
		Timestamp:  t0,
	}
}

// ── Creation ──────────────────────────────────────────────────────────────────

func TestNewRound_ZeroPools(t *testing.T) {
	r := newTestRound()

	if r.Status != domain.StatusOpen {
		t.Errorf("status = %s, want open", r.Status)
	}
	if !r.TotalPool.IsZero() {
		t.Errorf("totalPool = %s, want 0", r.TotalPool)
	}
	for _, id := range []string{"X", "Y"} {
		if !r.Pools[id].IsZero() {
			t.Errorf("pool %s = %s, want 0", id, r.Pools[id])
		}
	}
	if !r.EndsAt.Equal(t0.Add(time.Hour)) {
		t.Errorf("endsAt = %s, want createdAt+1h", r.EndsAt)
	}
	if r.Result != nil {
		t.Error("new round must not carry a result")
	}
}

func TestRound_TimeRemaining(t *testing.T) {
	r := newTestRound()
	if got := r.TimeRemaining(t0.Add(15 * time.Minute)); got != 45*time.Minute {
		t.Errorf("TimeRemaining = %s, want 45m", got)
	}
	if got := r.TimeRemaining(t0.Add(2 * time.Hour)); got != 0 {
		t.Errorf("TimeRemaining after end = %s, want 0", got)
	}
	if !r.IsExpired(t0.Add(time.Hour)) {
		t.Error("round should be expired at endsAt")
	}
}

// ── Bet validation ────────────────────────────────────────────────────────────

func TestRound_ValidateBet(t *testing.T) {
	resolved := newTestRound()
	resolved.Freeze(domain.Result{Winner: "X", LiquidationCounts: map[string]int64{"X": 1}})

	tests := []struct {
		name      string
		round     *domain.Round
		agent     string
		candidate string
		amount    int64
		want      error
	}{
		{"ok", newTestRound(), "A", "X", 100, nil},
		{"exactly min", newTestRound(), "A", "X", 5, nil},
		{"resolved round", resolved, "A", "X", 100, domain.ErrRoundNotOpen},
		{"resolved beats missing fields", resolved, "", "", 0, domain.ErrRoundNotOpen},
		{"missing agent", newTestRound(), "", "X", 100, domain.ErrMissingBetFields},
		{"blank agent", newTestRound(), "   ", "X", 100, domain.ErrMissingBetFields},
		{"missing candidate", newTestRound(), "A", "", 100, domain.ErrMissingBetFields},
		{"zero amount", newTestRound(), "A", "X", 0, domain.ErrMissingBetFields},
		{"below min", newTestRound(), "A", "X", 2, domain.ErrBetTooSmall},
		{"negative", newTestRound(), "A", "X", -10, domain.ErrBetTooSmall},
		{"below min beats unknown candidate", newTestRound(), "A", "Z", 2, domain.ErrBetTooSmall},
		{"unknown candidate", newTestRound(), "A", "Z", 100, domain.ErrCandidateNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.round.ValidateBet(tc.agent, tc.candidate, decimal.NewFromInt(tc.amount))
			if tc.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRound_ValidateBet_MinimumInMessage(t *testing.T) {
	err := newTestRound().ValidateBet("A", "X", decimal.NewFromInt(2))
	if err == nil || err.Error() != "bet amount is below the minimum: minimum bet is 5 USDC" {
		t.Errorf("message = %v", err)
	}
}

func TestRound_ApplyBet_KeepsInvariants(t *testing.T) {
	r := newTestRound()
	r.ApplyBet(bet("b1", "A", "X", 100))
	r.ApplyBet(bet("b2", "B", "Y", 300))
	r.ApplyBet(bet("b3", "C", "X", 7))

	if err := r.CheckInvariants(); err != nil {
		t.Fatal(err)
	}
	if !r.TotalPool.Equal(decimal.NewFromInt(407)) {
		t.Errorf("totalPool = %s, want 407", r.TotalPool)
	}
	if !r.Pools["X"].Equal(decimal.NewFromInt(107)) {
		t.Errorf("pool X = %s, want 107", r.Pools["X"])
	}
	if r.Bets[0].ID != "b1" || r.Bets[2].ID != "b3" {
		t.Error("bets must keep insertion order")
	}
}

func TestRound_CheckInvariants_DetectsDrift(t *testing.T) {
	r := newTestRound()
	r.ApplyBet(bet("b1", "A", "X", 100))
	r.TotalPool = decimal.NewFromInt(99)
	if err := r.CheckInvariants(); err == nil {
		t.Error("expected invariant violation")
	}
}

// ── Outcome validation & freeze ───────────────────────────────────────────────

func TestRound_ValidateOutcome(t *testing.T) {
	resolved := newTestRound()
	resolved.Freeze(domain.Result{Winner: "X"})

	tests := []struct {
		name   string
		round  *domain.Round
		counts map[string]int64
		want   error
	}{
		{"ok", newTestRound(), map[string]int64{"X": 10, "Y": 50}, nil},
		{"partial report", newTestRound(), map[string]int64{"Y": 1}, nil},
		{"already resolved", resolved, map[string]int64{"X": 1}, domain.ErrRoundAlreadyResolved},
		{"empty", newTestRound(), map[string]int64{}, domain.ErrEmptyOutcome},
		{"nil", newTestRound(), nil, domain.ErrEmptyOutcome},
		{"negative", newTestRound(), map[string]int64{"X": -1}, domain.ErrNegativeCount},
		{"unknown", newTestRound(), map[string]int64{"Q": 4}, domain.ErrCandidateNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.round.ValidateOutcome(tc.counts)
			if tc.want == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRound_Freeze_CopiesCounts(t *testing.T) {
	r := newTestRound()
	counts := map[string]int64{"X": 10, "Y": 50}
	r.Freeze(domain.Result{Winner: "Y", LiquidationCounts: counts, MaxLiquidations: 50, ResolvedAt: t0})

	counts["X"] = 999
	if r.Result.LiquidationCounts["X"] != 10 {
		t.Error("result must not alias the caller's map")
	}
	if !r.IsResolved() || r.IsOpen() {
		t.Error("round should be resolved")
	}
}

func TestRound_Clone_IsDeep(t *testing.T) {
	r := newTestRound()
	r.ApplyBet(bet("b1", "A", "X", 100))
	r.Freeze(domain.Result{Winner: "X", LiquidationCounts: map[string]int64{"X": 3}})

	cp := r.Clone()
	cp.Pools["X"] = decimal.NewFromInt(1)
	cp.Bets[0].AgentID = "mallory"
	cp.Result.LiquidationCounts["X"] = 0

	if !r.Pools["X"].Equal(decimal.NewFromInt(100)) {
		t.Error("clone shares pools")
	}
	if r.Bets[0].AgentID != "A" {
		t.Error("clone shares bets")
	}
	if r.Result.LiquidationCounts["X"] != 3 {
		t.Error("clone shares result counts")
	}
}

func TestRound_ToSummary(t *testing.T) {
	r := newTestRound()
	r.ApplyBet(bet("b1", "A", "X", 100))

	s := r.ToSummary(t0.Add(30 * time.Minute))
	if s.BetCount != 1 || !s.TotalPool.Equal(decimal.NewFromInt(100)) {
		t.Errorf("summary = %+v", s)
	}
	if s.TimeRemaining != (30 * time.Minute).Milliseconds() {
		t.Errorf("timeRemaining = %d", s.TimeRemaining)
	}
}
