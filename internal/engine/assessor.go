package engine

import (
	"math"
	"sort"

	"github.com/sells-group/cci-engine/internal/factors"
	"github.com/sells-group/cci-engine/internal/model"
	"github.com/sells-group/cci-engine/internal/tables"
)

// Assessor is the engine's single public entry point. It sequences
// validation, factor scoring, aggregation, external adjustment, tier
// assignment, confidence estimation, and recommendation generation into one
// pure computation. It holds only immutable state and is safe for
// concurrent use.
type Assessor struct {
	tables   *tables.Set
	strategy Strategy
}

// New creates an Assessor using the methodology named in the table set.
func New(ts *tables.Set) (*Assessor, error) {
	return NewWithMethodology(ts, ts.Methodology)
}

// NewWithMethodology creates an Assessor with an explicit methodology
// override, for running both strategies side by side on the same tables.
func NewWithMethodology(ts *tables.Set, m model.Methodology) (*Assessor, error) {
	strategy, err := ForMethodology(m)
	if err != nil {
		return nil, err
	}
	return &Assessor{tables: ts, strategy: strategy}, nil
}

// Tables returns the reference table set this assessor scores against.
func (a *Assessor) Tables() *tables.Set { return a.tables }

// Assess scores one professional/company pair under the supplied external
// risk context. It returns a model.ValidationError for structurally invalid
// input before any scoring occurs. Identical inputs against the same table
// version yield bit-identical results; the caller's profiles are never
// mutated.
func (a *Assessor) Assess(prof model.ProfessionalProfile, comp model.CompanyProfile, ctx model.ExternalRiskContext) (*model.AssessmentResult, error) {
	// Validation normalizes the DTI unit in place, so work on copies.
	if err := model.ValidateProfiles(&prof, &comp); err != nil {
		return nil, err
	}
	if err := model.ValidateContext(&ctx); err != nil {
		return nil, err
	}

	profSubs := factors.ScoreProfessional(a.tables, &prof)
	compSubs := factors.ScoreCompany(a.tables, &comp)

	professional := a.strategy.Combine(a.tables, factors.Professional, profSubs)
	industry := a.strategy.Combine(a.tables, factors.Industry, compSubs)

	base := a.tables.Weights.Professional*professional + a.tables.Weights.Industry*industry
	adjusted, adjustments := applyAdjustments(a.tables, base, ctx)

	// Round before tier assignment so the reported score and tier agree at
	// boundaries.
	final := round2(adjusted)

	subScores := make(map[string]float64, len(profSubs)+len(compSubs))
	var defaulted []string
	for _, subs := range []map[string]factors.Sub{profSubs, compSubs} {
		for name, sub := range subs {
			subScores[name] = sub.Score
			if sub.Defaulted {
				defaulted = append(defaulted, name)
			}
		}
	}
	sort.Strings(defaulted)

	totalFactors := len(factors.Professional) + len(factors.Industry)
	confidence := estimateConfidence(a.tables, totalFactors, defaulted)

	tier := a.tables.TierFor(final)

	return &model.AssessmentResult{
		TableVersion:          a.tables.Version,
		Methodology:           a.strategy.Name(),
		ProfessionalComponent: round2(professional),
		IndustryComponent:     round2(industry),
		BaseScore:             round2(base),
		FinalScore:            final,
		RiskTier:              tier,
		Confidence:            round2(confidence),
		SubScores:             subScores,
		Adjustments:           adjustments,
		DefaultedFields:       defaulted,
		Recommendations:       recommend(a.tables, tier, merge(profSubs, compSubs)),
	}, nil
}

func merge(a, b map[string]factors.Sub) map[string]factors.Sub {
	out := make(map[string]factors.Sub, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
