package model

// RiskTier is one of the seven ordered risk categories, highest risk first.
type RiskTier string

const (
	TierCriticalHigh  RiskTier = "critical_high"
	TierExtremelyHigh RiskTier = "extremely_high"
	TierVeryHigh      RiskTier = "very_high"
	TierHigh          RiskTier = "high"
	TierModerate      RiskTier = "moderate"
	TierLow           RiskTier = "low"
	TierVeryLow       RiskTier = "very_low"
)

// Methodology identifies which scoring strategy produced a result.
type Methodology string

const (
	// MethodologyMultiplicative combines sub-scores as a weighted geometric
	// product, so elevated factors compound rather than average out.
	MethodologyMultiplicative Methodology = "multiplicative"
	// MethodologyWeighted is the legacy additive weighted-average variant,
	// kept selectable so both can be compared side by side.
	MethodologyWeighted Methodology = "weighted"
)

// Priority ranks a recommendation.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Recommendation is a single mitigation action derived from the assessment.
// Impact, cost, and timeframe are qualitative; no numeric score change is
// implied.
type Recommendation struct {
	Category  string   `json:"category"`
	Priority  Priority `json:"priority"`
	Action    string   `json:"action"`
	Impact    string   `json:"impact"`
	Cost      string   `json:"cost"`
	Timeframe string   `json:"timeframe"`
}

// AssessmentResult is the immutable output of one scoring invocation.
// It carries no ID or timestamp so that identical inputs against the same
// table version produce bit-identical results; the audit store assigns
// those at persistence time.
type AssessmentResult struct {
	TableVersion          string             `json:"table_version"`
	Methodology           Methodology        `json:"methodology"`
	ProfessionalComponent float64            `json:"professional_component"` // 0-100
	IndustryComponent     float64            `json:"industry_component"`     // 0-100
	BaseScore             float64            `json:"base_score"`             // 0-100, before external adjustments
	FinalScore            float64            `json:"final_score"`            // 0-100
	RiskTier              RiskTier           `json:"risk_tier"`
	Confidence            float64            `json:"confidence"` // 0-100
	SubScores             map[string]float64 `json:"sub_scores"`
	Adjustments           map[string]float64 `json:"adjustments,omitempty"`
	DefaultedFields       []string           `json:"defaulted_fields,omitempty"`
	Recommendations       []Recommendation   `json:"recommendations,omitempty"`
}
