package ports

import (
	"context"

	"goscout/domain/core"
	"goscout/models"
)

// ValidationRepository defines the interface for validation data operations.
// Records append; "current" is the newest for an artifact.
type ValidationRepository interface {
	// Create persists a new validation record
	Create(ctx context.Context, validation *models.Validation) error

	// CurrentForArtifact returns the newest validation for an artifact.
	// Returns (nil, nil) when the artifact has never been validated.
	CurrentForArtifact(ctx context.Context, artifactID core.ArtifactID) (*models.Validation, error)

	// HistoryForArtifact returns all validations for an artifact, newest first
	HistoryForArtifact(ctx context.Context, artifactID core.ArtifactID) ([]*models.Validation, error)
}
