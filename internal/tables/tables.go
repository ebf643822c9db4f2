// Package tables holds the versioned reference tables driving all factor
// scoring: categorical score maps, numeric band tables, tier boundaries,
// and adjustment/confidence parameters. A Set is immutable after Load; to
// tune scores, publish a new versioned table document.
package tables

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/cci-engine/internal/model"
)

// Sub-score bounds. Zero is never reachable so multiplicative combination
// cannot collapse a component from a single factor.
const (
	MinSubScore = 0.40
	MaxSubScore = 0.95
)

// Band maps a half-open value range to a sub-score. The lower bound is
// inclusive; the band extends up to the next higher band's Min.
type Band struct {
	Min   float64 `yaml:"min"`
	Score float64 `yaml:"score"`
}

// BandTable is an ordered set of bands. Lookup walks bands from highest Min
// to lowest and returns the first band whose Min the value meets. Values
// below every band clamp to the lowest band rather than erroring.
type BandTable []Band

// Score returns the sub-score for v.
func (t BandTable) Score(v float64) float64 {
	for _, b := range t {
		if v >= b.Min {
			return b.Score
		}
	}
	// Below the lowest band: clamp to it.
	return t[len(t)-1].Score
}

// CategoricalTable maps canonical category names to sub-scores, with a
// single documented default for unrecognized input.
type CategoricalTable struct {
	Default float64            `yaml:"default"`
	Scores  map[string]float64 `yaml:"scores"`
}

// Lookup resolves a canonicalized category. It reports defaulted=true when
// the category is unknown and the default-medium-risk score applies.
func (c CategoricalTable) Lookup(category string) (score float64, defaulted bool) {
	if s, ok := c.Scores[category]; ok {
		return s, false
	}
	return c.Default, true
}

// Categories returns the known category names, sorted.
func (c CategoricalTable) Categories() []string {
	names := make([]string, 0, len(c.Scores))
	for name := range c.Scores {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TierRange assigns a risk tier to a half-open score range [Min, Max);
// the highest tier is closed at Max.
type TierRange struct {
	Name model.RiskTier `yaml:"name"`
	Min  float64        `yaml:"min"`
	Max  float64        `yaml:"max"`
}

// ComponentWeights blends the professional and industry components into the
// base composite score.
type ComponentWeights struct {
	Professional float64 `yaml:"professional"`
	Industry     float64 `yaml:"industry"`
}

// AdjustmentParams tunes the bounded external-risk uplifts.
type AdjustmentParams struct {
	CyberPerIncident      float64 `yaml:"cyber_per_incident"`
	CyberMaxIncidents     int     `yaml:"cyber_max_incidents"`
	RegulatoryPerFinding  float64 `yaml:"regulatory_per_finding"`
	RegulatoryMaxFindings int     `yaml:"regulatory_max_findings"`
	VolatilityThreshold   float64 `yaml:"volatility_threshold"`
	VolatilityUplift      float64 `yaml:"volatility_uplift"`
}

// ConfidenceParams tunes the confidence estimator.
type ConfidenceParams struct {
	Floor          float64  `yaml:"floor"`           // minimum confidence, 0-100
	CriticalFields []string `yaml:"critical_fields"` // defaulting any of these scales confidence down
}

// Set is one versioned, immutable reference table set.
type Set struct {
	Version       string                      `yaml:"version"`
	Methodology   model.Methodology           `yaml:"methodology"`
	Weights       ComponentWeights            `yaml:"weights"`
	FactorWeights map[string]float64          `yaml:"factor_weights"`
	Categorical   map[string]CategoricalTable `yaml:"categorical"`
	Bands         map[string]BandTable        `yaml:"bands"`
	Tiers         []TierRange                 `yaml:"tiers"`
	Adjustments   AdjustmentParams            `yaml:"adjustments"`
	Confidence    ConfidenceParams            `yaml:"confidence"`

	// DefaultSubScore is the documented default-medium-risk sub-score
	// applied when a numeric input is missing entirely.
	DefaultSubScore float64 `yaml:"default_sub_score"`

	// RecommendThreshold is the sub-score at or above which a factor
	// triggers a factor-level recommendation.
	RecommendThreshold float64 `yaml:"recommend_threshold"`
}

// TierFor maps a final score to its risk tier. Lower bounds are inclusive,
// upper bounds exclusive, and the highest tier is closed at its Max.
// Scores below the lowest tier floor clamp to the lowest-risk tier.
func (s *Set) TierFor(score float64) model.RiskTier {
	last := len(s.Tiers) - 1
	for i, tr := range s.Tiers {
		if score >= tr.Min && (score < tr.Max || (i == last && score <= tr.Max)) {
			return tr.Name
		}
	}
	return s.Tiers[0].Name
}

// FactorWeight returns the tuning weight for a factor, defaulting to 1.
func (s *Set) FactorWeight(name string) float64 {
	if w, ok := s.FactorWeights[name]; ok {
		return w
	}
	return 1
}

// normalize sorts band tables descending by Min and tiers ascending by Min
// so lookups can rely on ordering regardless of document order.
func (s *Set) normalize() {
	for _, bt := range s.Bands {
		sort.Slice(bt, func(i, j int) bool { return bt[i].Min > bt[j].Min })
	}
	sort.Slice(s.Tiers, func(i, j int) bool { return s.Tiers[i].Min < s.Tiers[j].Min })
}

// Every table set must score every factor; a missing table would silently
// default an entire factor for all requests.
var (
	requiredCategorical = []string{"industry_type", "education", "job_title", "practice_field", "state"}
	requiredBands       = []string{
		"fico", "dti", "payment_history", "experience", "job_tenure", "age",
		"operating_margin", "company_size", "company_age", "pe_ratio",
	}
)

var knownTiers = map[model.RiskTier]bool{
	model.TierCriticalHigh:  true,
	model.TierExtremelyHigh: true,
	model.TierVeryHigh:      true,
	model.TierHigh:          true,
	model.TierModerate:      true,
	model.TierLow:           true,
	model.TierVeryLow:       true,
}

// Validate checks a table set for internal consistency. Any failure here is
// fatal at startup: a process must never score against a defective set.
func (s *Set) Validate() error {
	var errs []string

	if s.Version == "" {
		errs = append(errs, "version is required")
	}
	if s.Methodology != model.MethodologyMultiplicative && s.Methodology != model.MethodologyWeighted {
		errs = append(errs, fmt.Sprintf("unknown methodology %q", s.Methodology))
	}

	if sum := s.Weights.Professional + s.Weights.Industry; math.Abs(sum-1) > 0.001 {
		errs = append(errs, fmt.Sprintf("component weights must sum to 1, got %.3f", sum))
	}

	for name, ct := range s.Categorical {
		if !subScoreInRange(ct.Default) {
			errs = append(errs, fmt.Sprintf("categorical %s: default %.2f outside [%.2f, %.2f]", name, ct.Default, MinSubScore, MaxSubScore))
		}
		for cat, score := range ct.Scores {
			if !subScoreInRange(score) {
				errs = append(errs, fmt.Sprintf("categorical %s[%s]: score %.2f outside [%.2f, %.2f]", name, cat, score, MinSubScore, MaxSubScore))
			}
		}
	}

	for name, bt := range s.Bands {
		if len(bt) == 0 {
			errs = append(errs, fmt.Sprintf("band table %s is empty", name))
			continue
		}
		for i, b := range bt {
			if !subScoreInRange(b.Score) {
				errs = append(errs, fmt.Sprintf("band table %s[%d]: score %.2f outside [%.2f, %.2f]", name, i, b.Score, MinSubScore, MaxSubScore))
			}
			if i > 0 && b.Min >= bt[i-1].Min {
				errs = append(errs, fmt.Sprintf("band table %s: duplicate lower bound %.2f", name, b.Min))
			}
		}
	}

	errs = append(errs, s.validateTiers()...)

	if s.Adjustments.CyberPerIncident < 0 || s.Adjustments.RegulatoryPerFinding < 0 || s.Adjustments.VolatilityUplift < 0 {
		errs = append(errs, "adjustment uplifts must be >= 0")
	}
	if s.Adjustments.CyberMaxIncidents < 0 || s.Adjustments.RegulatoryMaxFindings < 0 {
		errs = append(errs, "adjustment caps must be >= 0")
	}

	if s.Confidence.Floor < 0 || s.Confidence.Floor > 100 {
		errs = append(errs, fmt.Sprintf("confidence floor must be between 0 and 100, got %.1f", s.Confidence.Floor))
	}
	if !subScoreInRange(s.DefaultSubScore) {
		errs = append(errs, fmt.Sprintf("default sub-score %.2f outside [%.2f, %.2f]", s.DefaultSubScore, MinSubScore, MaxSubScore))
	}
	if s.RecommendThreshold < MinSubScore || s.RecommendThreshold > MaxSubScore {
		errs = append(errs, fmt.Sprintf("recommend threshold %.2f outside sub-score range", s.RecommendThreshold))
	}

	for _, name := range requiredCategorical {
		if _, ok := s.Categorical[name]; !ok {
			errs = append(errs, fmt.Sprintf("missing categorical table %q", name))
		}
	}
	for _, name := range requiredBands {
		if _, ok := s.Bands[name]; !ok {
			errs = append(errs, fmt.Sprintf("missing band table %q", name))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("tables: validation failed for version %q: %s", s.Version, strings.Join(errs, "; "))
	}
	return nil
}

// validateTiers enforces that the tier ranges partition [0, 100] without
// gaps or overlaps. The upstream boundary data historically overlapped at
// the 20 and 30 marks; lower-inclusive/upper-exclusive ranges are the fix,
// and this check keeps tuned table sets from reintroducing the defect.
func (s *Set) validateTiers() []string {
	var errs []string

	if len(s.Tiers) != len(knownTiers) {
		errs = append(errs, fmt.Sprintf("expected %d tiers, got %d", len(knownTiers), len(s.Tiers)))
	}

	seen := map[model.RiskTier]bool{}
	for _, tr := range s.Tiers {
		if !knownTiers[tr.Name] {
			errs = append(errs, fmt.Sprintf("unknown tier %q", tr.Name))
		}
		if seen[tr.Name] {
			errs = append(errs, fmt.Sprintf("duplicate tier %q", tr.Name))
		}
		seen[tr.Name] = true
		if tr.Max <= tr.Min {
			errs = append(errs, fmt.Sprintf("tier %q: max %.1f must exceed min %.1f", tr.Name, tr.Max, tr.Min))
		}
	}

	if len(s.Tiers) > 0 {
		if s.Tiers[0].Min != 0 {
			errs = append(errs, fmt.Sprintf("tier coverage must start at 0, got %.1f", s.Tiers[0].Min))
		}
		for i := 1; i < len(s.Tiers); i++ {
			if s.Tiers[i].Min != s.Tiers[i-1].Max {
				errs = append(errs, fmt.Sprintf("gap or overlap between tiers %q and %q at %.1f/%.1f",
					s.Tiers[i-1].Name, s.Tiers[i].Name, s.Tiers[i-1].Max, s.Tiers[i].Min))
			}
		}
		if s.Tiers[len(s.Tiers)-1].Max != 100 {
			errs = append(errs, fmt.Sprintf("tier coverage must end at 100, got %.1f", s.Tiers[len(s.Tiers)-1].Max))
		}
	}

	return errs
}

func subScoreInRange(v float64) bool {
	return v >= MinSubScore && v <= MaxSubScore
}
