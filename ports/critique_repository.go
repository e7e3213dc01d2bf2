package ports

import (
	"context"

	"goscout/domain/core"
	"goscout/models"
)

// CritiqueRepository defines the interface for critique data operations.
// Records append; "current" is the newest for a plan.
type CritiqueRepository interface {
	// Create persists a new critique record
	Create(ctx context.Context, critique *models.Critique) error

	// CurrentForPlan returns the newest critique for a plan.
	// Returns (nil, nil) when the plan has never been reviewed.
	CurrentForPlan(ctx context.Context, planID core.PlanID) (*models.Critique, error)
}
