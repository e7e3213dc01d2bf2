package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"goscout/models"
	"goscout/ports"
)

// RunRepository persists run summaries as JSONB payloads.
type RunRepository struct {
	db *sqlx.DB
}

var _ ports.RunRepository = (*RunRepository)(nil)

// NewRunRepository creates a new run repository
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

// SaveSummary persists the outcome of one run
func (r *RunRepository) SaveSummary(ctx context.Context, summary *models.RunSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO run_summaries (run_id, payload, started_at) VALUES ($1, $2, $3)
		 ON CONFLICT (run_id) DO UPDATE SET payload = EXCLUDED.payload`,
		summary.RunID.String(), payload, summary.StartedAt)
	if err != nil {
		return storageErr("save run summary", err)
	}
	return nil
}

// LatestSummary returns the most recent run summary
func (r *RunRepository) LatestSummary(ctx context.Context) (*models.RunSummary, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM run_summaries ORDER BY started_at DESC LIMIT 1`).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, storageErr("get latest run summary", err)
	}

	var summary models.RunSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run summary: %w", err)
	}
	return &summary, nil
}
