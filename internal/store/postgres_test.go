package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/cci-engine/internal/model"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresWithPool(mock), mock
}

func TestPostgresMigrate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS assessments").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveAssessment(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO assessments").
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			"high", 50.08, "2025.1", pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rec := testRecord(50.08, model.TierHigh)
	saved, err := s.SaveAssessment(context.Background(), rec)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.False(t, saved.AssessedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetAssessment(t *testing.T) {
	s, mock := newMockStore(t)

	rec := testRecord(50.08, model.TierHigh)
	inputsJSON, err := json.Marshal(assessmentInputs{
		Professional: rec.Professional,
		Company:      rec.Company,
		External:     rec.External,
	})
	require.NoError(t, err)
	resultJSON, err := json.Marshal(rec.Result)
	require.NoError(t, err)

	assessedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT id, inputs, result, assessed_at FROM assessments WHERE id =").
		WithArgs("abc-123").
		WillReturnRows(pgxmock.NewRows([]string{"id", "inputs", "result", "assessed_at"}).
			AddRow("abc-123", inputsJSON, resultJSON, assessedAt))

	got, err := s.GetAssessment(context.Background(), "abc-123")
	require.NoError(t, err)
	assert.Equal(t, "abc-123", got.ID)
	assert.Equal(t, rec.Professional, got.Professional)
	assert.Equal(t, rec.Result, got.Result)
	assert.Equal(t, assessedAt, got.AssessedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetAssessmentMissing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, inputs, result, assessed_at FROM assessments WHERE id =").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"id", "inputs", "result", "assessed_at"}))

	_, err := s.GetAssessment(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListAssessments(t *testing.T) {
	s, mock := newMockStore(t)

	rec := testRecord(92, model.TierCriticalHigh)
	inputsJSON, err := json.Marshal(assessmentInputs{
		Professional: rec.Professional,
		Company:      rec.Company,
		External:     rec.External,
	})
	require.NoError(t, err)
	resultJSON, err := json.Marshal(rec.Result)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id, inputs, result, assessed_at FROM assessments").
		WithArgs("critical_high", 90.0, 100).
		WillReturnRows(pgxmock.NewRows([]string{"id", "inputs", "result", "assessed_at"}).
			AddRow("id-1", inputsJSON, resultJSON, time.Now().UTC()))

	records, err := s.ListAssessments(context.Background(), Filter{
		Tier:     model.TierCriticalHigh,
		MinScore: 90,
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.TierCriticalHigh, records[0].Result.RiskTier)
	assert.NoError(t, mock.ExpectationsWereMet())
}
