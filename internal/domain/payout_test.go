package domain_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/evetabi/liquidation-roulette/internal/domain"
	"github.com/shopspring/decimal"
)

// TestSelectWinner covers the tie-break rule: equal counts go to the
// lexicographically smallest candidate id.
func TestSelectWinner(t *testing.T) {
	tests := []struct {
		name   string
		counts map[string]int64
		want   string
		top    int64
		ok     bool
	}{
		{"clear winner", map[string]int64{"X": 10, "Y": 50}, "Y", 50, true},
		{"tie smallest id", map[string]int64{"solend": 45, "drift": 45, "mango": 8}, "drift", 45, true},
		{"all zero", map[string]int64{"b": 0, "a": 0}, "a", 0, true},
		{"single", map[string]int64{"kamino": 3}, "kamino", 3, true},
		{"empty", map[string]int64{}, "", 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, top, ok := domain.SelectWinner(tc.counts)
			if got != tc.want || top != tc.top || ok != tc.ok {
				t.Errorf("SelectWinner = (%q, %d, %v), want (%q, %d, %v)", got, top, ok, tc.want, tc.top, tc.ok)
			}
		})
	}
}

// TestSelectWinner_StableAcrossRuns guards against map-order dependence.
func TestSelectWinner_StableAcrossRuns(t *testing.T) {
	for i := 0; i < 200; i++ {
		counts := map[string]int64{"e": 7, "c": 9, "a": 1, "d": 9, "b": 9}
		if w, _, _ := domain.SelectWinner(counts); w != "b" {
			t.Fatalf("run %d: winner = %s, want b", i, w)
		}
	}
}

// Scenario: 100 on X (agent A), 300 on Y (agent B), Y wins.
//
//	payout(B) = 300/300 × 400 × 0.95 = 380.00
func TestCalculatePayouts_SingleWinner(t *testing.T) {
	r := newTestRound()
	r.ApplyBet(bet("b1", "A", "X", 100))
	r.ApplyBet(bet("b2", "B", "Y", 300))

	payouts := domain.CalculatePayouts(r, "Y")
	if len(payouts) != 1 {
		t.Fatalf("len(payouts) = %d, want 1", len(payouts))
	}
	p := payouts[0]
	if p.AgentID != "B" || p.BetID != "b2" {
		t.Errorf("payout to %s/%s, want B/b2", p.AgentID, p.BetID)
	}
	if !p.Payout.Equal(decimal.NewFromInt(380)) {
		t.Errorf("payout = %s, want 380.00", p.Payout.StringFixed(2))
	}
	if !p.Bet.Equal(decimal.NewFromInt(300)) {
		t.Errorf("bet = %s, want 300", p.Bet)
	}
}

// Three winners sharing a pool that does not divide evenly.
//
//	total = 1000, distributable = 950, winning pool = 700
//	100/700 × 950 = 135.714… → 135.71
//	250/700 × 950 = 339.285… → 339.29
//	350/700 × 950 = 475.00
func TestCalculatePayouts_Rounding(t *testing.T) {
	r := newTestRound()
	r.ApplyBet(bet("b1", "A", "X", 100))
	r.ApplyBet(bet("b2", "B", "Y", 300))
	r.ApplyBet(bet("b3", "C", "X", 250))
	r.ApplyBet(bet("b4", "D", "X", 350))

	payouts := domain.CalculatePayouts(r, "X")
	want := []string{"135.71", "339.29", "475.00"}
	if len(payouts) != len(want) {
		t.Fatalf("len = %d, want %d", len(payouts), len(want))
	}
	for i, w := range want {
		if got := payouts[i].Payout.StringFixed(2); got != w {
			t.Errorf("payout[%d] = %s, want %s", i, got, w)
		}
	}
}

func TestCalculatePayouts_NoWinningStake(t *testing.T) {
	r := newTestRound()
	r.ApplyBet(bet("b1", "A", "X", 100))

	payouts := domain.CalculatePayouts(r, "Y")
	if payouts == nil || len(payouts) != 0 {
		t.Errorf("payouts = %v, want empty list", payouts)
	}
}

func TestCalculatePayouts_EmptyRound(t *testing.T) {
	if got := domain.CalculatePayouts(newTestRound(), "X"); len(got) != 0 {
		t.Errorf("payouts = %v, want empty", got)
	}
}

// TestCalculatePayouts_HouseCutBound checks Σpayout ≤ totalPool × 0.95 plus
// half a cent per payout over randomly generated rounds.
func TestCalculatePayouts_HouseCutBound(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	halfCent := decimal.NewFromFloat(0.005)
	candidates := []string{"X", "Y"}

	for round := 0; round < 500; round++ {
		r := newTestRound()
		n := 1 + rng.Intn(40)
		for i := 0; i < n; i++ {
			amt := decimal.NewFromInt(int64(5 + rng.Intn(1000))).Add(decimal.New(int64(rng.Intn(100)), -2))
			r.ApplyBet(domain.Bet{
				ID:         fmt.Sprintf("b%d", i),
				AgentID:    fmt.Sprintf("agent-%d", i),
				ProtocolID: candidates[rng.Intn(len(candidates))],
				Amount:     amt,
			})
		}
		for _, winner := range candidates {
			payouts := domain.CalculatePayouts(r, winner)
			paid := domain.TotalPaid(payouts)
			distributable := domain.Distributable(r.TotalPool)
			slack := halfCent.Mul(decimal.NewFromInt(int64(len(payouts))))
			if paid.GreaterThan(distributable.Add(slack)) {
				t.Fatalf("round %d winner %s: paid %s > %s + %s", round, winner, paid, distributable, slack)
			}
			if r.Pools[winner].IsPositive() && paid.LessThan(distributable.Sub(slack)) {
				t.Fatalf("round %d winner %s: paid %s too far below %s", round, winner, paid, distributable)
			}
		}
	}
}

func TestDistributable(t *testing.T) {
	got := domain.Distributable(decimal.NewFromInt(400))
	if !got.Equal(decimal.NewFromInt(380)) {
		t.Errorf("Distributable(400) = %s, want 380", got)
	}
}
