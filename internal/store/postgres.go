package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the store needs. pgxmock satisfies it,
// which keeps the Postgres store testable without a live database.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgx.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres connects to the given database URL.
func NewPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, eris.New("postgres: database URL is required")
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool; used by tests with pgxmock.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: func() {}}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS assessments (
	id            UUID PRIMARY KEY,
	inputs        JSONB NOT NULL,
	result        JSONB NOT NULL,
	risk_tier     TEXT NOT NULL,
	final_score   DOUBLE PRECISION NOT NULL,
	table_version TEXT NOT NULL,
	assessed_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_assessments_tier ON assessments(risk_tier);
CREATE INDEX IF NOT EXISTS idx_assessments_version ON assessments(table_version);
CREATE INDEX IF NOT EXISTS idx_assessments_assessed_at ON assessments(assessed_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.closeFn()
	return nil
}

func (s *PostgresStore) SaveAssessment(ctx context.Context, rec AssessmentRecord) (*AssessmentRecord, error) {
	rec.ID = uuid.New().String()
	rec.AssessedAt = time.Now().UTC()

	inputsJSON, err := json.Marshal(assessmentInputs{
		Professional: rec.Professional,
		Company:      rec.Company,
		External:     rec.External,
	})
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal inputs")
	}
	resultJSON, err := json.Marshal(rec.Result)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal result")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO assessments (id, inputs, result, risk_tier, final_score, table_version, assessed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, inputsJSON, resultJSON,
		string(rec.Result.RiskTier), rec.Result.FinalScore, rec.Result.TableVersion, rec.AssessedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert assessment")
	}

	return &rec, nil
}

func (s *PostgresStore) GetAssessment(ctx context.Context, id string) (*AssessmentRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, inputs, result, assessed_at FROM assessments WHERE id = $1`,
		id,
	)

	rec, err := scanPostgresAssessment(row)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("postgres: assessment %s not found", id)
		}
		return nil, err
	}
	return rec, nil
}

func (s *PostgresStore) ListAssessments(ctx context.Context, filter Filter) ([]AssessmentRecord, error) {
	query := `SELECT id, inputs, result, assessed_at FROM assessments WHERE 1=1`
	var args []any
	argNum := 1

	if filter.Tier != "" {
		query += fmt.Sprintf(" AND risk_tier = $%d", argNum)
		args = append(args, string(filter.Tier))
		argNum++
	}
	if filter.TableVersion != "" {
		query += fmt.Sprintf(" AND table_version = $%d", argNum)
		args = append(args, filter.TableVersion)
		argNum++
	}
	if filter.MinScore > 0 {
		query += fmt.Sprintf(" AND final_score >= $%d", argNum)
		args = append(args, filter.MinScore)
		argNum++
	}
	query += " ORDER BY assessed_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(" LIMIT $%d", argNum)
	args = append(args, limit)
	argNum++

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list assessments")
	}
	defer rows.Close()

	var records []AssessmentRecord
	for rows.Next() {
		rec, err := scanPostgresAssessment(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list assessments iterate")
}

func scanPostgresAssessment(row pgx.Row) (*AssessmentRecord, error) {
	var rec AssessmentRecord
	var inputsJSON, resultJSON []byte

	if err := row.Scan(&rec.ID, &inputsJSON, &resultJSON, &rec.AssessedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, eris.Wrap(err, "postgres: scan assessment")
	}

	var inputs assessmentInputs
	if err := json.Unmarshal(inputsJSON, &inputs); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal inputs")
	}
	rec.Professional = inputs.Professional
	rec.Company = inputs.Company
	rec.External = inputs.External

	if err := json.Unmarshal(resultJSON, &rec.Result); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal result")
	}
	return &rec, nil
}
