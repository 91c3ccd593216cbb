package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Bet
// ──────────────────────────────────────────────────────────────────────────────

// Bet represents a single agent wager inside a Round.  Bets are immutable
// once recorded.
type Bet struct {
	ID           string          `json:"id"`
	RoundID      string          `json:"roundId"`
	AgentID      string          `json:"agentId"`
	ProtocolID   string          `json:"protocolId"`
	ProtocolName string          `json:"protocolName,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Timestamp    time.Time       `json:"timestamp"`
}

// ──────────────────────────────────────────────────────────────────────────────
// PlaceBetRequest: value object used by BetService
// ──────────────────────────────────────────────────────────────────────────────

// PlaceBetRequest carries the inputs for placing a bet.  Presence of the
// fields is checked by Round.ValidateBet, after the round lookup.
type PlaceBetRequest struct {
	RoundID     string
	AgentID     string
	CandidateID string
	Amount      decimal.Decimal
}
