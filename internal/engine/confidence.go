package engine

import (
	"math"

	"github.com/sells-group/cci-engine/internal/tables"
)

// estimateConfidence quantifies how much of the score rests on real data.
// Base confidence is the populated fraction of all recognized factors,
// scaled to 0-100. If any critical factor was defaulted, confidence is
// further scaled by the fraction of critical factors present. The result
// never drops below the configured floor, and supplying a missing field can
// only raise it.
func estimateConfidence(ts *tables.Set, totalFactors int, defaulted []string) float64 {
	if totalFactors == 0 {
		return ts.Confidence.Floor
	}

	defaultedSet := make(map[string]bool, len(defaulted))
	for _, name := range defaulted {
		defaultedSet[name] = true
	}

	populated := totalFactors - len(defaulted)
	confidence := float64(populated) / float64(totalFactors) * 100

	critical := ts.Confidence.CriticalFields
	if len(critical) > 0 {
		present := 0
		for _, name := range critical {
			if !defaultedSet[name] {
				present++
			}
		}
		if present < len(critical) {
			confidence *= float64(present) / float64(len(critical))
		}
	}

	return math.Max(confidence, ts.Confidence.Floor)
}
