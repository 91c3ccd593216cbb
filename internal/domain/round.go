// Package domain defines the core business entities and types for the
// Liquidation Roulette round ledger: rounds, bets, candidates, odds and the
// settlement arithmetic.
package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Types & constants
// ──────────────────────────────────────────────────────────────────────────────

// RoundStatus represents the lifecycle state of a round.
type RoundStatus string

const (
	StatusOpen     RoundStatus = "open"     // accepting bets
	StatusResolved RoundStatus = "resolved" // winner determined, terminal
)

// HouseCut is the fraction of the total pool retained by the operator (5 %).
var HouseCut = decimal.NewFromFloat(0.05)

// ──────────────────────────────────────────────────────────────────────────────
// Result
// ──────────────────────────────────────────────────────────────────────────────

// Result is attached to a round exactly once, when it is resolved.
type Result struct {
	Winner            string           `json:"winner"`
	WinnerName        string           `json:"winnerName"`
	LiquidationCounts map[string]int64 `json:"liquidationCounts"`
	MaxLiquidations   int64            `json:"maxLiquidations"`
	ResolvedAt        time.Time        `json:"resolvedAt"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Round
// ──────────────────────────────────────────────────────────────────────────────

// Round is one timed betting window with its own pools, bets and outcome.
//
// Invariants (checked by CheckInvariants):
//
//	TotalPool == Σ Pools[c] == Σ Bets[i].Amount
//
// Once Status is StatusResolved, Pools, Bets and TotalPool never change.
type Round struct {
	ID        string                     `json:"id"`
	Status    RoundStatus                `json:"status"`
	Pools     map[string]decimal.Decimal `json:"pools"`
	Bets      []Bet                      `json:"bets"`
	MinBet    decimal.Decimal            `json:"minBet"`
	TotalPool decimal.Decimal            `json:"totalPool"`
	CreatedAt time.Time                  `json:"createdAt"`
	EndsAt    time.Time                  `json:"endsAt"`
	Result    *Result                    `json:"result"`
}

// NewRound builds an open round with a zero pool for every candidate id.
func NewRound(id string, candidateIDs []string, minBet decimal.Decimal, createdAt time.Time, duration time.Duration) *Round {
	pools := make(map[string]decimal.Decimal, len(candidateIDs))
	for _, c := range candidateIDs {
		pools[c] = decimal.Zero
	}
	return &Round{
		ID:        id,
		Status:    StatusOpen,
		Pools:     pools,
		Bets:      []Bet{},
		MinBet:    minBet,
		TotalPool: decimal.Zero,
		CreatedAt: createdAt,
		EndsAt:    createdAt.Add(duration),
	}
}

// IsOpen returns true while the round is accepting bets.
func (r *Round) IsOpen() bool {
	return r.Status == StatusOpen
}

// IsResolved returns true after the round has been settled.
func (r *Round) IsResolved() bool {
	return r.Status == StatusResolved
}

// HasCandidate reports whether id was part of the catalogue at creation.
func (r *Round) HasCandidate(id string) bool {
	_, ok := r.Pools[id]
	return ok
}

// CandidateIDs returns the round's candidate ids in ascending order.
func (r *Round) CandidateIDs() []string {
	ids := make([]string, 0, len(r.Pools))
	for id := range r.Pools {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TimeRemaining returns max(0, EndsAt − now).
func (r *Round) TimeRemaining(now time.Time) time.Duration {
	remaining := r.EndsAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// IsExpired reports whether the nominal end time has passed.  Expiry is
// advisory: an expired round that is still open keeps accepting bets.
func (r *Round) IsExpired(now time.Time) bool {
	return !now.Before(r.EndsAt)
}

// ──────────────────────────────────────────────────────────────────────────────
// Bet placement
// ──────────────────────────────────────────────────────────────────────────────

// ValidateBet checks the placement preconditions that depend on the round,
// in order: status, required fields, minimum stake, known candidate.
// It never mutates the round.
func (r *Round) ValidateBet(agentID, candidateID string, amount decimal.Decimal) error {
	if !r.IsOpen() {
		return ErrRoundNotOpen
	}
	if strings.TrimSpace(agentID) == "" || strings.TrimSpace(candidateID) == "" || amount.IsZero() {
		return ErrMissingBetFields
	}
	if amount.LessThan(r.MinBet) {
		return fmt.Errorf("%w: minimum bet is %s USDC", ErrBetTooSmall, r.MinBet.String())
	}
	if !r.HasCandidate(candidateID) {
		return ErrCandidateNotFound
	}
	return nil
}

// ApplyBet records a validated bet: append, then bump the candidate pool and
// the grand total.  Callers must run ValidateBet first, under the same lock.
func (r *Round) ApplyBet(b Bet) {
	r.Bets = append(r.Bets, b)
	r.Pools[b.ProtocolID] = r.Pools[b.ProtocolID].Add(b.Amount)
	r.TotalPool = r.TotalPool.Add(b.Amount)
}

// ──────────────────────────────────────────────────────────────────────────────
// Resolution
// ──────────────────────────────────────────────────────────────────────────────

// ValidateOutcome checks that the round can be resolved with counts.
func (r *Round) ValidateOutcome(counts map[string]int64) error {
	if r.IsResolved() {
		return ErrRoundAlreadyResolved
	}
	if len(counts) == 0 {
		return ErrEmptyOutcome
	}
	for _, id := range sortedKeys(counts) {
		if counts[id] < 0 {
			return fmt.Errorf("%w: %s=%d", ErrNegativeCount, id, counts[id])
		}
		if !r.HasCandidate(id) {
			return fmt.Errorf("%w: %s", ErrCandidateNotFound, id)
		}
	}
	return nil
}

// Freeze moves the round to StatusResolved and attaches res.  After this
// call nothing but Result may be read as new state.
func (r *Round) Freeze(res Result) {
	counts := make(map[string]int64, len(res.LiquidationCounts))
	for k, v := range res.LiquidationCounts {
		counts[k] = v
	}
	res.LiquidationCounts = counts
	r.Status = StatusResolved
	r.Result = &res
}

// WinningPool returns the pool staked on the winner, or zero while open.
func (r *Round) WinningPool() decimal.Decimal {
	if r.Result == nil {
		return decimal.Zero
	}
	return r.Pools[r.Result.Winner]
}

// ──────────────────────────────────────────────────────────────────────────────
// Snapshots & invariants
// ──────────────────────────────────────────────────────────────────────────────

// Clone returns a deep copy safe to hand out of the registry lock.
func (r *Round) Clone() *Round {
	cp := *r
	cp.Pools = make(map[string]decimal.Decimal, len(r.Pools))
	for k, v := range r.Pools {
		cp.Pools[k] = v
	}
	cp.Bets = make([]Bet, len(r.Bets))
	copy(cp.Bets, r.Bets)
	if r.Result != nil {
		res := *r.Result
		res.LiquidationCounts = make(map[string]int64, len(r.Result.LiquidationCounts))
		for k, v := range r.Result.LiquidationCounts {
			res.LiquidationCounts[k] = v
		}
		cp.Result = &res
	}
	return &cp
}

// CheckInvariants verifies the pool accounting identities.
func (r *Round) CheckInvariants() error {
	var poolSum, betSum decimal.Decimal
	for _, v := range r.Pools {
		if v.IsNegative() {
			return fmt.Errorf("round %s: negative pool %s", r.ID, v)
		}
		poolSum = poolSum.Add(v)
	}
	for _, b := range r.Bets {
		betSum = betSum.Add(b.Amount)
	}
	if !poolSum.Equal(r.TotalPool) {
		return fmt.Errorf("round %s: Σpools=%s != totalPool=%s", r.ID, poolSum, r.TotalPool)
	}
	if !betSum.Equal(r.TotalPool) {
		return fmt.Errorf("round %s: Σbets=%s != totalPool=%s", r.ID, betSum, r.TotalPool)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// RoundSummary: lightweight read model for the list endpoint
// ──────────────────────────────────────────────────────────────────────────────

// RoundSummary is a derived, read-only view of an open round.
type RoundSummary struct {
	ID            string          `json:"id"`
	TotalPool     decimal.Decimal `json:"totalPool"`
	BetCount      int             `json:"betCount"`
	EndsAt        time.Time       `json:"endsAt"`
	TimeRemaining int64           `json:"timeRemaining"` // milliseconds
}

// ToSummary builds a RoundSummary relative to now.
func (r *Round) ToSummary(now time.Time) RoundSummary {
	return RoundSummary{
		ID:            r.ID,
		TotalPool:     r.TotalPool,
		BetCount:      len(r.Bets),
		EndsAt:        r.EndsAt,
		TimeRemaining: r.TimeRemaining(now).Milliseconds(),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
