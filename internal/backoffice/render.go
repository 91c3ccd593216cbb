package backoffice

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/evetabi/liquidation-roulette/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// RenderHealth prints the registry counters.
func RenderHealth(w io.Writer, h *Health) error {
	table := tablewriter.NewWriter(w)
	table.Header("Status", "Protocols", "Rounds", "Open", "Bets")
	table.Append(
		h.Status,
		fmt.Sprintf("%d", h.Stats.TrackedProtocols),
		fmt.Sprintf("%d", h.Stats.ActiveRounds),
		fmt.Sprintf("%d", h.Stats.OpenRounds),
		fmt.Sprintf("%d", h.Stats.TotalBets),
	)
	return table.Render()
}

// RenderProtocols prints the catalogue in server order.
func RenderProtocols(w io.Writer, protocols []domain.Candidate) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Name", "TVL", "At risk", "Health", "Liq 24h", "Risk")
	for _, p := range protocols {
		table.Append(
			p.ID,
			p.Name,
			fmt.Sprintf("$%.0f", p.TVL),
			fmt.Sprintf("%d ($%.0f)", p.AtRiskPositions, p.AtRiskValue),
			fmt.Sprintf("%.2f", p.AvgHealthFactor),
			fmt.Sprintf("%d", p.Liquidations24h),
			p.RiskLevel,
		)
	}
	return table.Render()
}

// RenderRounds prints open round summaries.
func RenderRounds(w io.Writer, rounds []domain.RoundSummary) error {
	if len(rounds) == 0 {
		_, err := fmt.Fprintln(w, "no open rounds")
		return err
	}
	table := tablewriter.NewWriter(w)
	table.Header("Round", "Pool (USDC)", "Bets", "Ends", "Remaining")
	for _, r := range rounds {
		table.Append(
			r.ID,
			r.TotalPool.StringFixed(2),
			fmt.Sprintf("%d", r.BetCount),
			r.EndsAt.UTC().Format(time.RFC3339),
			remaining(r.TimeRemaining),
		)
	}
	return table.Render()
}

// RenderRound prints a round header followed by its odds table, candidates
// sorted by id.
func RenderRound(w io.Writer, r *RoundDetail) error {
	fmt.Fprintf(w, "round %s  status=%s  pool=%s USDC  minBet=%s  bets=%d  remaining=%s\n",
		r.ID, r.Status, r.TotalPool.StringFixed(2), r.MinBet.String(), len(r.Bets), remaining(r.TimeRemaining))

	ids := make([]string, 0, len(r.OddsBreakdown))
	for id := range r.OddsBreakdown {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	table := tablewriter.NewWriter(w)
	table.Header("Protocol", "Name", "Pool", "Odds", "Probability")
	for _, id := range ids {
		row := r.OddsBreakdown[id]
		table.Append(id, row.Name, row.Pool.StringFixed(2), row.Odds, row.Probability)
	}
	if err := table.Render(); err != nil {
		return err
	}

	if r.Result != nil {
		_, err := fmt.Fprintf(w, "winner: %s (%d liquidations)\n", r.Result.Winner, r.Result.MaxLiquidations)
		return err
	}
	return nil
}

// RenderSettlement prints the payout list of a resolved round.
func RenderSettlement(w io.Writer, s *Settlement) error {
	fmt.Fprintln(w, s.Message)
	if len(s.Winners) == 0 {
		_, err := fmt.Fprintln(w, "no winning bets, house keeps the pool")
		return err
	}
	table := tablewriter.NewWriter(w)
	table.Header("Bet", "Agent", "Stake", "Payout")
	for _, p := range s.Winners {
		table.Append(p.BetID, p.AgentID, p.Bet.StringFixed(2), p.Payout.StringFixed(2))
	}
	table.Footer("", "Total", "", domain.TotalPaid(s.Winners).StringFixed(2))
	return table.Render()
}

// RenderBet prints a single bet.
func RenderBet(w io.Writer, b *domain.Bet) error {
	table := tablewriter.NewWriter(w)
	table.Header("Bet", "Round", "Agent", "Protocol", "Amount", "Placed")
	table.Append(b.ID, b.RoundID, b.AgentID, b.ProtocolID, b.Amount.StringFixed(2), b.Timestamp.UTC().Format(time.RFC3339))
	return table.Render()
}

func remaining(ms int64) string {
	if ms <= 0 {
		return "ended"
	}
	return (time.Duration(ms) * time.Millisecond).Round(time.Second).String()
}
