package engine

import (
	"math"

	"github.com/sells-group/cci-engine/internal/model"
	"github.com/sells-group/cci-engine/internal/tables"
)

// Adjustment keys recorded in the result for explainability.
const (
	AdjCyber      = "cyber_multiplier"
	AdjRegulatory = "regulatory_multiplier"
	AdjVolatility = "volatility_uplift"
)

// applyAdjustments uplifts the base score for external risk signals and
// clamps the result to [0, 100]. Each uplift is bounded: incident and
// finding counts are capped before the per-unit uplift applies, so a noisy
// signal cannot run the score away. An empty context returns the base score
// unchanged with no adjustments recorded.
func applyAdjustments(ts *tables.Set, base float64, ctx model.ExternalRiskContext) (float64, map[string]float64) {
	if ctx.Empty() {
		return clamp(base), nil
	}

	p := ts.Adjustments
	score := base
	adjustments := map[string]float64{}

	if ctx.CyberIncidents > 0 {
		effective := min(ctx.CyberIncidents, p.CyberMaxIncidents)
		// Severity widens the per-incident uplift by up to 2x.
		mult := 1 + p.CyberPerIncident*float64(effective)*(1+ctx.CyberSeverity)
		score *= mult
		adjustments[AdjCyber] = mult
	}

	if ctx.ComplianceFindings > 0 {
		effective := min(ctx.ComplianceFindings, p.RegulatoryMaxFindings)
		mult := 1 + p.RegulatoryPerFinding*float64(effective)
		score *= mult
		adjustments[AdjRegulatory] = mult
	}

	if ctx.MarketVolatility > p.VolatilityThreshold {
		score += p.VolatilityUplift
		adjustments[AdjVolatility] = p.VolatilityUplift
	}

	return clamp(score), adjustments
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
