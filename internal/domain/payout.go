package domain

import (
	"github.com/shopspring/decimal"
)

// payoutPlaces is the currency precision of a payout.
const payoutPlaces = 2

// Payout is the amount credited to one winning bet.
type Payout struct {
	BetID   string          `json:"betId"`
	AgentID string          `json:"agentId"`
	Bet     decimal.Decimal `json:"bet"`
	Payout  decimal.Decimal `json:"payout"`
}

// SelectWinner returns the candidate with the greatest count.  Ties go to
// the lexicographically smallest candidate id, so the result never depends
// on map iteration order.  ok is false for an empty map.  An all-zero
// outcome still has a winner (the smallest id), and its backers are paid.
func SelectWinner(counts map[string]int64) (winner string, top int64, ok bool) {
	for _, id := range sortedKeys(counts) {
		c := counts[id]
		if !ok || c > top {
			winner, top, ok = id, c, true
		}
	}
	return winner, top, ok
}

// Distributable returns totalPool × (1 − HouseCut).
func Distributable(totalPool decimal.Decimal) decimal.Decimal {
	return totalPool.Mul(decimal.NewFromInt(1).Sub(HouseCut))
}

// CalculatePayouts splits the distributable pool across the bets on winner
// in proportion to their stake:
//
//	payout(b) = b.Amount / winningPool × totalPool × (1 − HouseCut)
//
// rounded half-up to two decimals.  When nobody backed the winner the list
// is empty and the house keeps the whole pool.  Bets are returned in
// placement order.
func CalculatePayouts(r *Round, winner string) []Payout {
	winningPool := r.Pools[winner]
	if !winningPool.IsPositive() {
		return []Payout{}
	}
	distributable := Distributable(r.TotalPool)

	payouts := make([]Payout, 0)
	for _, b := range r.Bets {
		if b.ProtocolID != winner {
			continue
		}
		amt := b.Amount.Mul(distributable).Div(winningPool).Round(payoutPlaces)
		payouts = append(payouts, Payout{
			BetID:   b.ID,
			AgentID: b.AgentID,
			Bet:     b.Amount,
			Payout:  amt,
		})
	}
	return payouts
}

// TotalPaid sums a payout list.
func TotalPaid(payouts []Payout) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range payouts {
		sum = sum.Add(p.Payout)
	}
	return sum
}
