package ports

import (
	"context"

	"goscout/domain/core"
	"goscout/models"
)

// PlanRepository defines the interface for plan data operations
type PlanRepository interface {
	// Create persists a new plan
	Create(ctx context.Context, plan *models.Plan) error

	// GetByID retrieves a plan by its identifier
	GetByID(ctx context.Context, id core.PlanID) (*models.Plan, error)

	// ListByStatus returns plans in the given status, oldest first
	ListByStatus(ctx context.Context, status models.PlanStatus, limit int) ([]*models.Plan, error)

	// UpdateStatus writes the critique stage's disposition mapping
	UpdateStatus(ctx context.Context, id core.PlanID, status models.PlanStatus) error
}
