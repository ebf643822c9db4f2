package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/cci-engine/internal/config"
	"github.com/sells-group/cci-engine/internal/model"
)

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

func storeConfig(driver, url, path string) config.StoreConfig {
	return config.StoreConfig{Driver: driver, DatabaseURL: url, SQLitePath: path}
}

func testRecord(score float64, tier model.RiskTier) AssessmentRecord {
	return AssessmentRecord{
		Professional: model.ProfessionalProfile{
			Education: "master",
			FICO:      intp(750),
			DTI:       floatp(0.35),
		},
		Company: model.CompanyProfile{
			IndustryType:  "technology",
			EmployeeCount: intp(300),
		},
		External: model.ExternalRiskContext{CyberIncidents: 1},
		Result: model.AssessmentResult{
			TableVersion: "2025.1",
			Methodology:  model.MethodologyMultiplicative,
			FinalScore:   score,
			RiskTier:     tier,
			Confidence:   86.7,
			SubScores:    map[string]float64{"fico": 0.45},
			DefaultedFields: []string{
				"age", "state",
			},
		},
	}
}

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteSaveAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	saved, err := s.SaveAssessment(ctx, testRecord(50.08, model.TierHigh))
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.False(t, saved.AssessedAt.IsZero())

	got, err := s.GetAssessment(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, got.ID)
	assert.Equal(t, saved.Professional, got.Professional)
	assert.Equal(t, saved.Company, got.Company)
	assert.Equal(t, saved.External, got.External)
	assert.Equal(t, saved.Result, got.Result)
}

func TestSQLiteGetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetAssessment(context.Background(), "no-such-id")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteSaveAssignsUniqueIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.SaveAssessment(ctx, testRecord(40, model.TierModerate))
	require.NoError(t, err)
	b, err := s.SaveAssessment(ctx, testRecord(40, model.TierModerate))
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestSQLiteListFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, rec := range []AssessmentRecord{
		testRecord(15, model.TierVeryLow),
		testRecord(45, model.TierModerate),
		testRecord(55, model.TierHigh),
		testRecord(92, model.TierCriticalHigh),
	} {
		_, err := s.SaveAssessment(ctx, rec)
		require.NoError(t, err)
	}

	all, err := s.ListAssessments(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	high, err := s.ListAssessments(ctx, Filter{Tier: model.TierHigh})
	require.NoError(t, err)
	require.Len(t, high, 1)
	assert.Equal(t, model.TierHigh, high[0].Result.RiskTier)

	risky, err := s.ListAssessments(ctx, Filter{MinScore: 50})
	require.NoError(t, err)
	assert.Len(t, risky, 2)

	limited, err := s.ListAssessments(ctx, Filter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	versioned, err := s.ListAssessments(ctx, Filter{TableVersion: "1999.9"})
	require.NoError(t, err)
	assert.Empty(t, versioned)
}

func TestOpenDispatch(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, storeConfig("nosql", "", ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")

	s, err := Open(ctx, storeConfig("sqlite", "", filepath.Join(t.TempDir(), "cci.db")))
	require.NoError(t, err)
	require.NoError(t, s.Close())
}
