// Package ws holds WebSocket message types and the Hub implementation.
// messages.go defines all message structs broadcast to connected clients.
package ws

import (
	"time"

	"github.com/evetabi/liquidation-roulette/internal/domain"
	"github.com/shopspring/decimal"
)

// MsgType identifies the kind of WS message so clients can switch on it.
type MsgType string

const (
	MsgTypeRoundCreated  MsgType = "round_created"
	MsgTypeBetPlaced     MsgType = "bet_placed"
	MsgTypeRoundResolved MsgType = "round_resolved"
	MsgTypeOddsUpdate    MsgType = "odds_update"
	MsgTypeRoundExpired  MsgType = "round_expired"
	MsgTypeError         MsgType = "error"
)

// ──────────────────────────────────────────────────────────────────────────────
// RoundCreatedMessage: broadcast when an operator opens a round.
// ──────────────────────────────────────────────────────────────────────────────

// RoundCreatedMessage carries the identity and window of a new round.
type RoundCreatedMessage struct {
	Type      MsgType         `json:"type"`
	RoundID   string          `json:"roundId"`
	Protocols []string        `json:"protocols"`
	MinBet    decimal.Decimal `json:"minBet"`
	CreatedAt time.Time       `json:"createdAt"`
	EndsAt    time.Time       `json:"endsAt"`
	Timestamp time.Time       `json:"timestamp"`
}

// ──────────────────────────────────────────────────────────────────────────────
// BetPlacedMessage: broadcast after a bet is accepted so odds refresh for all.
// ──────────────────────────────────────────────────────────────────────────────

// BetPlacedMessage notifies all clients that the pool ratios have changed.
type BetPlacedMessage struct {
	Type        MsgType              `json:"type"`
	RoundID     string               `json:"roundId"`
	BetID       string               `json:"betId"`
	AgentID     string               `json:"agentId"`
	ProtocolID  string               `json:"protocolId"`
	Amount      decimal.Decimal      `json:"amount"`
	TotalPool   decimal.Decimal      `json:"totalPool"`
	CurrentOdds domain.OddsBreakdown `json:"currentOdds"`
	Timestamp   time.Time            `json:"timestamp"`
}

// ──────────────────────────────────────────────────────────────────────────────
// RoundResolvedMessage: broadcast when a round is settled.
// ──────────────────────────────────────────────────────────────────────────────

// RoundResolvedMessage tells clients which protocol won and who got paid.
type RoundResolvedMessage struct {
	Type              MsgType          `json:"type"`
	RoundID           string           `json:"roundId"`
	Winner            string           `json:"winner"`
	WinnerName        string           `json:"winnerName"`
	LiquidationCounts map[string]int64 `json:"liquidationCounts"`
	TotalPool         decimal.Decimal  `json:"totalPool"`
	Winners           []domain.Payout  `json:"winners"`
	Timestamp         time.Time        `json:"timestamp"`
}

// ──────────────────────────────────────────────────────────────────────────────
// OddsUpdateMessage: periodic snapshot of every open round.
// ──────────────────────────────────────────────────────────────────────────────

// OddsUpdateMessage carries the live pricing of one open round.
type OddsUpdateMessage struct {
	Type          MsgType              `json:"type"`
	RoundID       string               `json:"roundId"`
	TotalPool     decimal.Decimal      `json:"totalPool"`
	BetCount      int                  `json:"betCount"`
	OddsBreakdown domain.OddsBreakdown `json:"oddsBreakdown"`
	TimeRemaining int64                `json:"timeRemaining"` // milliseconds
	Timestamp     time.Time            `json:"timestamp"`
}

// ──────────────────────────────────────────────────────────────────────────────
// RoundExpiredMessage: advisory, sent once when endsAt passes.
// ──────────────────────────────────────────────────────────────────────────────

// RoundExpiredMessage tells clients a round has passed its nominal end.  The
// round stays open for bets until it is resolved.
type RoundExpiredMessage struct {
	Type      MsgType         `json:"type"`
	RoundID   string          `json:"roundId"`
	EndsAt    time.Time       `json:"endsAt"`
	TotalPool decimal.Decimal `json:"totalPool"`
	Timestamp time.Time       `json:"timestamp"`
}

// ──────────────────────────────────────────────────────────────────────────────
// ErrorMessage: sent to a single client on a non-fatal error.
// ──────────────────────────────────────────────────────────────────────────────

// ErrorMessage is sent directly to one client (not broadcast).
type ErrorMessage struct {
	Type    MsgType `json:"type"`
	Code    string  `json:"code"`
	Message string  `json:"message"`
}
