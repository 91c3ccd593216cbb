package domain

import (
	"github.com/shopspring/decimal"
)

// NoOdds is rendered for a candidate nobody has staked on yet.
const NoOdds = "N/A"

var hundred = decimal.NewFromInt(100)

// ──────────────────────────────────────────────────────────────────────────────
// Odds / Probability value types
// ──────────────────────────────────────────────────────────────────────────────

// Odds is a pari-mutuel decimal multiplier (totalPool / pool), before the
// house cut.  Defined is false when the candidate pool is empty.
type Odds struct {
	Value   decimal.Decimal
	Defined bool
}

// String renders the multiplier with two decimals, or NoOdds.
func (o Odds) String() string {
	if !o.Defined {
		return NoOdds
	}
	return o.Value.StringFixed(2)
}

// MarshalJSON encodes Odds as a string such as "4.00" or "N/A".
func (o Odds) MarshalJSON() ([]byte, error) {
	return []byte(`"` + o.String() + `"`), nil
}

// Probability is the candidate's share of the total pool in percent.
// Defined is false while the total pool is empty.
type Probability struct {
	Value   decimal.Decimal
	Defined bool
}

// String renders one decimal and a percent sign ("25.0%"), or "0%" for an
// empty pool.
func (p Probability) String() string {
	if !p.Defined {
		return "0%"
	}
	return p.Value.StringFixed(1) + "%"
}

// MarshalJSON encodes the probability as its display string.
func (p Probability) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// ──────────────────────────────────────────────────────────────────────────────
// OddsBreakdown
// ──────────────────────────────────────────────────────────────────────────────

// OddsEntry is the pricing of one candidate in a round.
type OddsEntry struct {
	Name        string          `json:"name,omitempty"`
	Pool        decimal.Decimal `json:"pool"`
	Odds        Odds            `json:"odds"`
	Probability Probability     `json:"probability"`
}

// OddsBreakdown maps candidate id to its pricing.
type OddsBreakdown map[string]OddsEntry

// ComputeOdds derives odds and implied probability from the round's pools.
// It reads nothing but the pool snapshot, so it is valid for open and
// resolved rounds alike.
//
//	odds        = totalPool / pool          (undefined when pool == 0)
//	probability = pool / totalPool × 100    (0 when totalPool == 0)
func ComputeOdds(r *Round) OddsBreakdown {
	out := make(OddsBreakdown, len(r.Pools))
	for id, pool := range r.Pools {
		e := OddsEntry{Pool: pool}
		if pool.IsPositive() {
			e.Odds = Odds{Value: r.TotalPool.Div(pool), Defined: true}
		}
		if r.TotalPool.IsPositive() {
			e.Probability = Probability{Value: pool.Div(r.TotalPool).Mul(hundred), Defined: true}
		}
		out[id] = e
	}
	return out
}

// WithNames attaches display names from lookup; ids lookup does not know
// keep their id as the name.
func (b OddsBreakdown) WithNames(lookup func(id string) (string, bool)) OddsBreakdown {
	for id, e := range b {
		if name, ok := lookup(id); ok {
			e.Name = name
		} else {
			e.Name = id
		}
		b[id] = e
	}
	return b
}
