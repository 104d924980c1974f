package domain

// Danger categories, from safest to most dangerous.
const (
	CategorySafe     = "SAFE"
	CategoryLowRisk  = "LOW_RISK"
	CategoryModerate = "MODERATE"
	CategoryHighRisk = "HIGH_RISK"
	CategoryExtreme  = "EXTREME"
)

// AnalysisResult is the scoring engine output for one TokenRecord.
type AnalysisResult struct {
	Passed          bool                   `json:"passed"` // score >= config.MinScore
	Score           int                    `json:"score"`  // 0..100
	Flags           []string               `json:"flags"`
	Breakdown       map[string]CheckResult `json:"breakdown"`
	DangerScore     DangerScore            `json:"dangerScore"`
	CompositeRisks  CompositeRisks         `json:"compositeRisks"`
	PositiveSignals []string               `json:"positiveSignals"`
}

// CheckResult is one check's contribution to the breakdown.
type CheckResult struct {
	Penalty  int      `json:"penalty"` // already capped at MaxScore
	MaxScore int      `json:"maxScore"`
	Flags    []string `json:"flags"`
}

// DangerScore is the inverse safety score boosted by composite risks.
type DangerScore struct {
	Overall         int      `json:"overall"`    // 0..100
	Confidence      string   `json:"confidence"` // high | medium | low
	Category        string   `json:"category"`
	PrimaryRisks    []string `json:"primaryRisks"` // at most 3
	PositiveSignals []string `json:"positiveSignals"`
}

// CompositeRisks are booleans derived from two or more base signals.
type CompositeRisks struct {
	RugInProgress       bool `json:"rugInProgress"`
	PumpSetup           bool `json:"pumpSetup"`
	WashTrading         bool `json:"washTrading"`
	CoordinatedDump     bool `json:"coordinatedDump"`
	InsiderAccumulation bool `json:"insiderAccumulation"`
}
