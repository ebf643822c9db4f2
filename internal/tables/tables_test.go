package tables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/cci-engine/internal/model"
)

func TestDefaultSetValidates(t *testing.T) {
	ts := Default()
	require.NoError(t, ts.Validate())
	assert.Equal(t, "2025.1", ts.Version)
	assert.Equal(t, model.MethodologyMultiplicative, ts.Methodology)
	assert.Len(t, ts.Tiers, 7)
}

func TestBandTableScore(t *testing.T) {
	fico := Default().Bands["fico"]

	tests := []struct {
		name  string
		value float64
		want  float64
	}{
		{"exceptional", 820, 0.40},
		{"boundary inclusive", 800, 0.40},
		{"very good", 750, 0.45},
		{"good", 700, 0.55},
		{"fair", 600, 0.75},
		{"poor", 400, 0.95},
		{"lowest band boundary", 300, 0.95},
		{"below lowest band clamps", 100, 0.95},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, fico.Score(tt.value), 1e-9)
		})
	}
}

func TestBandTableNegativeBounds(t *testing.T) {
	margin := Default().Bands["operating_margin"]
	assert.InDelta(t, 0.85, margin.Score(-5), 1e-9)
	assert.InDelta(t, 0.95, margin.Score(-50), 1e-9)
	assert.InDelta(t, 0.72, margin.Score(0), 1e-9)
}

func TestCategoricalLookup(t *testing.T) {
	edu := Default().Categorical["education"]

	score, defaulted := edu.Lookup("master")
	assert.InDelta(t, 0.48, score, 1e-9)
	assert.False(t, defaulted)

	score, defaulted = edu.Lookup("astronaut school")
	assert.InDelta(t, edu.Default, score, 1e-9)
	assert.True(t, defaulted)
}

func TestCategoricalCategoriesSorted(t *testing.T) {
	cats := Default().Categorical["education"].Categories()
	require.NotEmpty(t, cats)
	assert.IsIncreasing(t, cats)
}

func TestTierFor(t *testing.T) {
	ts := Default()

	tests := []struct {
		score float64
		want  model.RiskTier
	}{
		{0, model.TierVeryLow},
		{19.99, model.TierVeryLow},
		{20, model.TierLow},
		{29.99, model.TierLow},
		{30, model.TierModerate},
		{49.99, model.TierModerate},
		{50, model.TierHigh},
		{69.99, model.TierHigh},
		{70, model.TierVeryHigh},
		{80, model.TierExtremelyHigh},
		{90, model.TierCriticalHigh},
		{99.99, model.TierCriticalHigh},
		{100, model.TierCriticalHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ts.TierFor(tt.score), "score %.2f", tt.score)
	}
}

// Every possible score must land in exactly one tier.
func TestTierCoverage(t *testing.T) {
	ts := Default()
	for score := 0.0; score <= 100.0; score += 0.25 {
		tier := ts.TierFor(score)
		assert.Contains(t, knownTiers, tier, "score %.2f", score)
	}
}

func TestFactorWeight(t *testing.T) {
	ts := Default()
	assert.InDelta(t, 1.0, ts.FactorWeight("fico"), 1e-9)
	assert.InDelta(t, 1.0, ts.FactorWeight("no_such_factor"), 1e-9)

	ts2 := &Set{FactorWeights: map[string]float64{"fico": 2.5}}
	assert.InDelta(t, 2.5, ts2.FactorWeight("fico"), 1e-9)
}

func TestValidateRejectsDefects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Set)
		wantErr string
	}{
		{
			"missing version",
			func(s *Set) { s.Version = "" },
			"version is required",
		},
		{
			"unknown methodology",
			func(s *Set) { s.Methodology = "quantum" },
			"unknown methodology",
		},
		{
			"component weights off",
			func(s *Set) { s.Weights.Professional = 0.9 },
			"must sum to 1",
		},
		{
			"tier gap",
			func(s *Set) { s.Tiers[2].Min = 31 },
			"gap or overlap",
		},
		{
			"tier overlap",
			func(s *Set) { s.Tiers[1].Max = 35 },
			"gap or overlap",
		},
		{
			"coverage not ending at 100",
			func(s *Set) { s.Tiers[len(s.Tiers)-1].Max = 99 },
			"must end at 100",
		},
		{
			"unknown tier name",
			func(s *Set) { s.Tiers[0].Name = "catastrophic" },
			"unknown tier",
		},
		{
			"sub-score out of range",
			func(s *Set) { s.Bands["fico"][0].Score = 0.2 },
			"outside",
		},
		{
			"categorical default out of range",
			func(s *Set) {
				ct := s.Categorical["state"]
				ct.Default = 1.5
				s.Categorical["state"] = ct
			},
			"outside",
		},
		{
			"missing band table",
			func(s *Set) { delete(s.Bands, "dti") },
			`missing band table "dti"`,
		},
		{
			"missing categorical table",
			func(s *Set) { delete(s.Categorical, "industry_type") },
			`missing categorical table "industry_type"`,
		},
		{
			"negative adjustment uplift",
			func(s *Set) { s.Adjustments.CyberPerIncident = -0.1 },
			"uplifts must be >= 0",
		},
		{
			"confidence floor out of range",
			func(s *Set) { s.Confidence.Floor = 120 },
			"confidence floor",
		},
		{
			"default sub-score out of range",
			func(s *Set) { s.DefaultSubScore = 0.1 },
			"default sub-score",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := Default()
			tt.mutate(ts)
			err := ts.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNormalizeOrdersBandsAndTiers(t *testing.T) {
	ts := &Set{
		Bands: map[string]BandTable{
			"x": {{Min: 0, Score: 0.9}, {Min: 10, Score: 0.5}, {Min: 5, Score: 0.7}},
		},
		Tiers: []TierRange{
			{Name: model.TierHigh, Min: 50, Max: 100},
			{Name: model.TierVeryLow, Min: 0, Max: 50},
		},
	}
	ts.normalize()

	assert.InDelta(t, 10.0, ts.Bands["x"][0].Min, 1e-9)
	assert.InDelta(t, 0.0, ts.Bands["x"][2].Min, 1e-9)
	assert.Equal(t, model.TierVeryLow, ts.Tiers[0].Name)
}
