// Package store persists completed assessments for audit and historical
// re-scoring. The engine itself never touches storage; callers hand a
// finished result to a Store.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/cci-engine/internal/config"
	"github.com/sells-group/cci-engine/internal/model"
)

// AssessmentRecord is one persisted assessment: the inputs, the result, and
// the identifiers the store assigns. IDs and timestamps live here rather
// than on the result so the engine stays idempotent.
type AssessmentRecord struct {
	ID           string                    `json:"id"`
	Professional model.ProfessionalProfile `json:"professional"`
	Company      model.CompanyProfile      `json:"company"`
	External     model.ExternalRiskContext `json:"external"`
	Result       model.AssessmentResult    `json:"result"`
	AssessedAt   time.Time                 `json:"assessed_at"`
}

// Filter specifies criteria for listing assessments.
type Filter struct {
	Tier         model.RiskTier `json:"tier,omitempty"`
	TableVersion string         `json:"table_version,omitempty"`
	MinScore     float64        `json:"min_score,omitempty"`
	Limit        int            `json:"limit,omitempty"`
	Offset       int            `json:"offset,omitempty"`
}

// Store defines the audit/persistence sink for assessment results.
type Store interface {
	SaveAssessment(ctx context.Context, rec AssessmentRecord) (*AssessmentRecord, error)
	GetAssessment(ctx context.Context, id string) (*AssessmentRecord, error)
	ListAssessments(ctx context.Context, filter Filter) ([]AssessmentRecord, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a Store from configuration.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.SQLitePath)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
