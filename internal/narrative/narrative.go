// Package narrative produces free-text commentary on the protocol catalogue
// and on individual rounds.  The ledger never depends on it: every caller
// treats a narrative failure as a soft error.
package narrative

import (
	"context"
	"time"

	"github.com/evetabi/liquidation-roulette/internal/domain"
	"github.com/shopspring/decimal"
)

// Narrator turns market data into short analyst-style text.
type Narrator interface {
	RiskAnalysis(ctx context.Context, protocols []domain.Candidate) (string, error)
	PredictRound(ctx context.Context, brief RoundBrief) (string, error)
	PostMortem(ctx context.Context, brief PostMortemBrief) (string, error)
}

// BetBrief is the part of a bet the model gets to see.
type BetBrief struct {
	AgentID    string          `json:"agentId"`
	ProtocolID string          `json:"protocolId"`
	Amount     decimal.Decimal `json:"amount"`
}

// RoundBrief describes an open round for a prediction.
type RoundBrief struct {
	RoundID   string
	Duration  time.Duration
	Protocols []string
	Bets      []BetBrief
}

// PostMortemBrief describes a settled round.
type PostMortemBrief struct {
	RoundID      string
	Winner       string
	WinnerName   string
	Liquidations map[string]int64
	TotalPool    decimal.Decimal
}

// NewRoundBrief builds a RoundBrief from a round snapshot.
func NewRoundBrief(r *domain.Round) RoundBrief {
	bets := make([]BetBrief, 0, len(r.Bets))
	for _, b := range r.Bets {
		bets = append(bets, BetBrief{AgentID: b.AgentID, ProtocolID: b.ProtocolID, Amount: b.Amount})
	}
	return RoundBrief{
		RoundID:   r.ID,
		Duration:  r.EndsAt.Sub(r.CreatedAt),
		Protocols: r.CandidateIDs(),
		Bets:      bets,
	}
}

// NewPostMortemBrief builds a PostMortemBrief from a resolved round.  The
// caller must check r.IsResolved first.
func NewPostMortemBrief(r *domain.Round) PostMortemBrief {
	return PostMortemBrief{
		RoundID:      r.ID,
		Winner:       r.Result.Winner,
		WinnerName:   r.Result.WinnerName,
		Liquidations: r.Result.LiquidationCounts,
		TotalPool:    r.TotalPool,
	}
}
