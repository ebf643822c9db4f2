package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/cci-engine/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS assessments (
	id            TEXT PRIMARY KEY,
	inputs        TEXT NOT NULL,
	result        TEXT NOT NULL,
	risk_tier     TEXT NOT NULL,
	final_score   REAL NOT NULL,
	table_version TEXT NOT NULL,
	assessed_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_assessments_tier ON assessments(risk_tier);
CREATE INDEX IF NOT EXISTS idx_assessments_version ON assessments(table_version);
CREATE INDEX IF NOT EXISTS idx_assessments_assessed_at ON assessments(assessed_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// assessmentInputs is the JSON shape of the inputs column.
type assessmentInputs struct {
	Professional model.ProfessionalProfile `json:"professional"`
	Company      model.CompanyProfile      `json:"company"`
	External     model.ExternalRiskContext `json:"external"`
}

func (s *SQLiteStore) SaveAssessment(ctx context.Context, rec AssessmentRecord) (*AssessmentRecord, error) {
	rec.ID = uuid.New().String()
	rec.AssessedAt = time.Now().UTC()

	inputsJSON, err := json.Marshal(assessmentInputs{
		Professional: rec.Professional,
		Company:      rec.Company,
		External:     rec.External,
	})
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal inputs")
	}
	resultJSON, err := json.Marshal(rec.Result)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal result")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO assessments (id, inputs, result, risk_tier, final_score, table_version, assessed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, string(inputsJSON), string(resultJSON),
		string(rec.Result.RiskTier), rec.Result.FinalScore, rec.Result.TableVersion, rec.AssessedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert assessment")
	}

	return &rec, nil
}

func (s *SQLiteStore) GetAssessment(ctx context.Context, id string) (*AssessmentRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, inputs, result, assessed_at FROM assessments WHERE id = ?`,
		id,
	)
	return scanAssessment(row)
}

func (s *SQLiteStore) ListAssessments(ctx context.Context, filter Filter) ([]AssessmentRecord, error) {
	query := `SELECT id, inputs, result, assessed_at FROM assessments WHERE 1=1`
	var args []any

	if filter.Tier != "" {
		query += ` AND risk_tier = ?`
		args = append(args, string(filter.Tier))
	}
	if filter.TableVersion != "" {
		query += ` AND table_version = ?`
		args = append(args, filter.TableVersion)
	}
	if filter.MinScore > 0 {
		query += ` AND final_score >= ?`
		args = append(args, filter.MinScore)
	}
	query += ` ORDER BY assessed_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list assessments")
	}
	defer rows.Close()

	var records []AssessmentRecord
	for rows.Next() {
		r, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list assessments iterate")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanAssessment(row scannable) (*AssessmentRecord, error) {
	var rec AssessmentRecord
	var inputsJSON, resultJSON string

	err := row.Scan(&rec.ID, &inputsJSON, &resultJSON, &rec.AssessedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("assessment not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan assessment")
	}

	var inputs assessmentInputs
	if err := json.Unmarshal([]byte(inputsJSON), &inputs); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal inputs")
	}
	rec.Professional = inputs.Professional
	rec.Company = inputs.Company
	rec.External = inputs.External

	if err := json.Unmarshal([]byte(resultJSON), &rec.Result); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal result")
	}
	return &rec, nil
}
