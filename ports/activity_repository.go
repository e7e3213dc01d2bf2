package ports

import (
	"context"

	"goscout/models"
)

// ActivityRepository is the append-only audit log. Entries are never mutated
// or deleted; Append must be safe for concurrent writers.
type ActivityRepository interface {
	// Append writes one audit entry
	Append(ctx context.Context, activity *models.Activity) error

	// ListRecent returns the newest entries, newest first
	ListRecent(ctx context.Context, limit int) ([]*models.Activity, error)

	// ListForEntity returns entries for one entity, oldest first
	ListForEntity(ctx context.Context, entityType, entityID string) ([]*models.Activity, error)
}
