package service

import (
	"log/slog"
	"time"

	"github.com/evetabi/liquidation-roulette/internal/domain"
	"github.com/shopspring/decimal"
)

// Clock returns the current time.  Services take one so tests can pin it.
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}

// Broadcaster is the minimal interface the services need from the WS hub.
// Implemented by ws.Hub.  Calls must not block.
type Broadcaster interface {
	BroadcastRoundCreated(r *domain.Round)
	BroadcastBetPlaced(bet domain.Bet, totalPool decimal.Decimal, odds domain.OddsBreakdown)
	BroadcastRoundResolved(r *domain.Round, payouts []domain.Payout)
}

// nopBroadcaster is used until SetBroadcaster is called.
type nopBroadcaster struct{}

func (nopBroadcaster) BroadcastRoundCreated(*domain.Round)                                  {}
func (nopBroadcaster) BroadcastBetPlaced(domain.Bet, decimal.Decimal, domain.OddsBreakdown) {}
func (nopBroadcaster) BroadcastRoundResolved(*domain.Round, []domain.Payout)                {}

func orDefaultLogger(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
