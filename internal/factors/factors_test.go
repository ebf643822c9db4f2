package factors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/cci-engine/internal/model"
	"github.com/sells-group/cci-engine/internal/tables"
)

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

func TestCategoricalFactor(t *testing.T) {
	ts := tables.Default()

	tests := []struct {
		name          string
		table         string
		raw           string
		wantScore     float64
		wantDefaulted bool
	}{
		{"known education", Education, "master", 0.48, false},
		{"fuzzy education", Education, "Master of Science", 0.48, false},
		{"unknown education", Education, "night school", 0.65, true},
		{"empty education", Education, "", 0.65, true},
		{"known state", State, "Minnesota", 0.52, false},
		{"unknown state", State, "puerto rico", 0.60, true},
		{"known industry", IndustryType, "technology", 0.55, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := Categorical(ts, tt.table, tt.raw)
			assert.InDelta(t, tt.wantScore, sub.Score, 1e-9)
			assert.Equal(t, tt.wantDefaulted, sub.Defaulted)
		})
	}
}

func TestBandFactorMissingDefaults(t *testing.T) {
	ts := tables.Default()

	sub := band(ts, FICO, nil)
	assert.True(t, sub.Defaulted)
	assert.InDelta(t, ts.DefaultSubScore, sub.Score, 1e-9)

	sub = intBand(ts, FICO, nil)
	assert.True(t, sub.Defaulted)
	assert.InDelta(t, ts.DefaultSubScore, sub.Score, 1e-9)
}

func TestBandFactorPresent(t *testing.T) {
	ts := tables.Default()

	sub := intBand(ts, FICO, intp(750))
	assert.False(t, sub.Defaulted)
	assert.InDelta(t, 0.45, sub.Score, 1e-9)

	sub = band(ts, DTI, floatp(0.35))
	assert.False(t, sub.Defaulted)
	assert.InDelta(t, 0.55, sub.Score, 1e-9)
}

func TestScoreProfessionalCoversAllFactors(t *testing.T) {
	ts := tables.Default()
	p := &model.ProfessionalProfile{
		Education:       "bachelor",
		YearsExperience: intp(12),
		JobTitle:        "engineer",
		JobTenureYears:  floatp(6),
		PracticeField:   "technology",
		Age:             intp(40),
		State:           "texas",
		FICO:            intp(750),
		DTI:             floatp(0.30),
		PaymentHistory:  floatp(97),
	}

	subs := ScoreProfessional(ts, p)
	require.Len(t, subs, len(Professional))
	for _, name := range Professional {
		sub, ok := subs[name]
		require.True(t, ok, "missing factor %s", name)
		assert.False(t, sub.Defaulted, "factor %s should not default", name)
		assert.GreaterOrEqual(t, sub.Score, tables.MinSubScore)
		assert.LessOrEqual(t, sub.Score, tables.MaxSubScore)
	}
}

func TestScoreProfessionalEmptyDefaultsEverything(t *testing.T) {
	ts := tables.Default()
	subs := ScoreProfessional(ts, &model.ProfessionalProfile{})
	require.Len(t, subs, len(Professional))
	for name, sub := range subs {
		assert.True(t, sub.Defaulted, "factor %s should default", name)
	}
}

func TestScoreCompanyCoversAllFactors(t *testing.T) {
	ts := tables.Default()
	c := &model.CompanyProfile{
		IndustryType:    "healthcare",
		OperatingMargin: floatp(12),
		EmployeeCount:   intp(300),
		CompanyAgeYears: intp(15),
		PERatio:         floatp(18),
	}

	subs := ScoreCompany(ts, c)
	require.Len(t, subs, len(Industry))
	for _, name := range Industry {
		sub, ok := subs[name]
		require.True(t, ok, "missing factor %s", name)
		assert.False(t, sub.Defaulted)
	}

	assert.InDelta(t, 0.62, subs[IndustryType].Score, 1e-9)
	assert.InDelta(t, 0.50, subs[OperatingMargin].Score, 1e-9)
	assert.InDelta(t, 0.55, subs[CompanySize].Score, 1e-9)
	assert.InDelta(t, 0.50, subs[CompanyAge].Score, 1e-9)
	assert.InDelta(t, 0.45, subs[PERatio].Score, 1e-9)
}

// A negative P/E (negative earnings) must score as elevated risk, not clamp
// to the healthy end.
func TestScoreCompanyNegativePERatio(t *testing.T) {
	ts := tables.Default()
	subs := ScoreCompany(ts, &model.CompanyProfile{PERatio: floatp(-5)})
	assert.InDelta(t, 0.90, subs[PERatio].Score, 1e-9)
}
