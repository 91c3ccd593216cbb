package domain

// Candidate is one tracked protocol bettors can stake on.  The catalogue is
// reference data: the ledger reads it at round creation and never changes it.
type Candidate struct {
	ID                   string  `json:"id"                   yaml:"id"`
	Name                 string  `json:"name"                 yaml:"name"`
	TVL                  float64 `json:"tvl"                  yaml:"tvl"`
	AtRiskPositions      int     `json:"atRiskPositions"      yaml:"at_risk_positions"`
	AtRiskValue          float64 `json:"atRiskValue"          yaml:"at_risk_value"`
	AvgHealthFactor      float64 `json:"avgHealthFactor"      yaml:"avg_health_factor"`
	Liquidations24h      int     `json:"liquidations24h"      yaml:"liquidations_24h"`
	LiquidationVolume24h float64 `json:"liquidationVolume24h" yaml:"liquidation_volume_24h"`
	RiskLevel            string  `json:"riskLevel"            yaml:"risk_level"`
}
