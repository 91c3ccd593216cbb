package narrative

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/evetabi/liquidation-roulette/internal/domain"
)

// Per-prompt token budgets.
const (
	riskMaxTokens       = 500
	predictionMaxTokens = 400
	postMortemMaxTokens = 400
)

func riskPrompt(protocols []domain.Candidate) string {
	type row struct {
		Name               string  `json:"name"`
		TVL                float64 `json:"tvl"`
		AvgHealthFactor    float64 `json:"avgHealthFactor"`
		RecentLiquidations int     `json:"recentLiquidations"`
		AtRiskPositions    int     `json:"atRiskPositions"`
		RiskLevel          string  `json:"riskLevel"`
	}
	rows := make([]row, 0, len(protocols))
	for _, p := range protocols {
		rows = append(rows, row{
			Name:               p.Name,
			TVL:                p.TVL,
			AvgHealthFactor:    p.AvgHealthFactor,
			RecentLiquidations: p.Liquidations24h,
			AtRiskPositions:    p.AtRiskPositions,
			RiskLevel:          p.RiskLevel,
		})
	}
	return fmt.Sprintf(`You are a DeFi liquidation analyst specializing in Solana protocols. Analyze liquidation risk:
Protocols: %s

Which protocol is most likely to see mass liquidations next? Consider: collateral types, health factor distributions, oracle dependencies, and market volatility. Rank protocols by liquidation risk. Style like a risk report (3-4 sentences).`,
		mustJSON(rows))
}

func predictionPrompt(b RoundBrief) string {
	return fmt.Sprintf(`Predict the outcome of this Liquidation Roulette round:
Round: %s, Duration: %s
Protocols in play: %s
Current bets: %s

Which protocol will have the most liquidations? Analyze current market conditions, recent volatility, and Solana-specific DeFi risks. Give your pick with confidence %%.`,
		b.RoundID, b.Duration, strings.Join(b.Protocols, ", "), mustJSON(b.Bets))
}

func postMortemPrompt(b PostMortemBrief) string {
	winner := b.WinnerName
	if winner == "" {
		winner = b.Winner
	}
	return fmt.Sprintf(`Write a post-mortem analysis for a completed Liquidation Roulette round:
Winner: %s
Liquidations: %s
Total pot: $%s

What caused the liquidation cascade? Were there warning signs? What can traders learn? Brief analysis style (3-4 sentences).`,
		winner, mustJSON(b.Liquidations), b.TotalPool.StringFixed(2))
}

// mustJSON marshals plain data structures that cannot fail to encode.
func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}
