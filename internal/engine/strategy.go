// Package engine combines factor sub-scores into the CCI composite score,
// applies external adjustments, assigns a risk tier, estimates confidence,
// and generates mitigation recommendations. Everything here is pure
// computation over an immutable table set.
package engine

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/cci-engine/internal/factors"
	"github.com/sells-group/cci-engine/internal/model"
	"github.com/sells-group/cci-engine/internal/tables"
)

// Strategy combines one component's factor sub-scores into a 0-100 value.
// Two methodologies exist side by side; the active one is always recorded
// in the result.
type Strategy interface {
	Name() model.Methodology
	Combine(ts *tables.Set, names []string, subs map[string]factors.Sub) float64
}

// ForMethodology returns the strategy for a methodology identifier.
func ForMethodology(m model.Methodology) (Strategy, error) {
	switch m {
	case model.MethodologyMultiplicative:
		return multiplicative{}, nil
	case model.MethodologyWeighted:
		return weighted{}, nil
	default:
		return nil, eris.Errorf("engine: unknown methodology %q", m)
	}
}

// multiplicative treats factors as independent hazard multipliers and
// combines them as a weighted geometric product, ∏ sᵢ^wᵢ with the exponent
// weights normalized to sum to 1 per component. The normalization keeps the
// component on the sub-score scale regardless of factor count; a raw
// product of ten sub-scores would collapse toward zero.
type multiplicative struct{}

func (multiplicative) Name() model.Methodology { return model.MethodologyMultiplicative }

func (multiplicative) Combine(ts *tables.Set, names []string, subs map[string]factors.Sub) float64 {
	var weightSum, logSum float64
	for _, name := range names {
		w := ts.FactorWeight(name)
		weightSum += w
		logSum += w * math.Log(subs[name].Score)
	}
	if weightSum == 0 {
		return 0
	}
	return math.Exp(logSum/weightSum) * 100
}

// weighted is the legacy additive variant: a weighted arithmetic average of
// the sub-scores. Kept selectable so both methodologies can be compared on
// identical inputs.
type weighted struct{}

func (weighted) Name() model.Methodology { return model.MethodologyWeighted }

func (weighted) Combine(ts *tables.Set, names []string, subs map[string]factors.Sub) float64 {
	var weightSum, total float64
	for _, name := range names {
		w := ts.FactorWeight(name)
		weightSum += w
		total += w * subs[name].Score
	}
	if weightSum == 0 {
		return 0
	}
	return total / weightSum * 100
}
