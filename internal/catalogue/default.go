package catalogue

import "github.com/evetabi/liquidation-roulette/internal/domain"

// defaultProtocols are the Solana lending/perp venues tracked out of the box.
var defaultProtocols = []domain.Candidate{
	{
		ID: "marinade", Name: "Marinade Finance",
		TVL: 850_000_000, AtRiskPositions: 234, AtRiskValue: 12_500_000,
		AvgHealthFactor: 1.45, Liquidations24h: 12, LiquidationVolume24h: 450_000,
		RiskLevel: "medium",
	},
	{
		ID: "solend", Name: "Solend",
		TVL: 420_000_000, AtRiskPositions: 567, AtRiskValue: 28_000_000,
		AvgHealthFactor: 1.25, Liquidations24h: 34, LiquidationVolume24h: 1_200_000,
		RiskLevel: "high",
	},
	{
		ID: "mango", Name: "Mango Markets",
		TVL: 180_000_000, AtRiskPositions: 123, AtRiskValue: 8_500_000,
		AvgHealthFactor: 1.55, Liquidations24h: 8, LiquidationVolume24h: 280_000,
		RiskLevel: "low",
	},
	{
		ID: "drift", Name: "Drift Protocol",
		TVL: 320_000_000, AtRiskPositions: 345, AtRiskValue: 18_000_000,
		AvgHealthFactor: 1.32, Liquidations24h: 23, LiquidationVolume24h: 890_000,
		RiskLevel: "medium-high",
	},
	{
		ID: "kamino", Name: "Kamino Finance",
		TVL: 560_000_000, AtRiskPositions: 189, AtRiskValue: 9_200_000,
		AvgHealthFactor: 1.48, Liquidations24h: 15, LiquidationVolume24h: 520_000,
		RiskLevel: "medium",
	},
}

// Default returns the built-in catalogue.
func Default() *Catalogue {
	c, err := New(defaultProtocols)
	if err != nil {
		panic(err)
	}
	return c
}
