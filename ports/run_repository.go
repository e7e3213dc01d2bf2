package ports

import (
	"context"

	"goscout/models"
)

// RunRepository persists run summaries so a completed run's report survives
// process restarts.
type RunRepository interface {
	// SaveSummary persists the outcome of one run
	SaveSummary(ctx context.Context, summary *models.RunSummary) error

	// LatestSummary returns the most recent run summary.
	// Returns (nil, nil) when no run has completed yet.
	LatestSummary(ctx context.Context) (*models.RunSummary, error)
}
