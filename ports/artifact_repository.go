package ports

import (
	"context"

	"goscout/domain/core"
	"goscout/models"
)

// ArtifactRepository defines the interface for artifact data operations
type ArtifactRepository interface {
	// Create persists a new artifact
	Create(ctx context.Context, artifact *models.Artifact) error

	// GetByID retrieves an artifact by its identifier
	GetByID(ctx context.Context, id core.ArtifactID) (*models.Artifact, error)

	// ListByStatus returns artifacts in the given status, oldest first
	ListByStatus(ctx context.Context, status models.ArtifactStatus, limit int) ([]*models.Artifact, error)

	// ListByItem returns all artifacts derived from one item
	ListByItem(ctx context.Context, itemID core.ItemID) ([]*models.Artifact, error)

	// UpdateStatus writes a status transition with a fresh updated_at
	// stamp. Last write wins under concurrent validation.
	UpdateStatus(ctx context.Context, id core.ArtifactID, status models.ArtifactStatus) error
}
