package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"goscout/models"
	"goscout/ports"
)

// ActivityRepository writes the append-only audit trail. No update or delete
// statements exist on this table.
type ActivityRepository struct {
	db *sqlx.DB
}

var _ ports.ActivityRepository = (*ActivityRepository)(nil)

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Append writes one audit entry
func (r *ActivityRepository) Append(ctx context.Context, activity *models.Activity) error {
	query := `
		INSERT INTO activity_log (agent_name, action, entity_type, entity_id, summary, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		activity.AgentName,
		activity.Action,
		activity.EntityType,
		activity.EntityID,
		activity.Summary,
		activity.Timestamp,
	)
	if err != nil {
		return storageErr("append activity", err)
	}
	return nil
}

// ListRecent returns the newest entries, newest first
func (r *ActivityRepository) ListRecent(ctx context.Context, limit int) ([]*models.Activity, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, agent_name, action, entity_type, entity_id, summary, timestamp
		FROM activity_log ORDER BY id DESC LIMIT $1`

	var activities []*models.Activity
	if err := r.db.SelectContext(ctx, &activities, query, limit); err != nil {
		return nil, storageErr("list activities", err)
	}
	return activities, nil
}

// ListForEntity returns entries for one entity, oldest first
func (r *ActivityRepository) ListForEntity(ctx context.Context, entityType, entityID string) ([]*models.Activity, error) {
	query := `
		SELECT id, agent_name, action, entity_type, entity_id, summary, timestamp
		FROM activity_log WHERE entity_type = $1 AND entity_id = $2 ORDER BY id`

	var activities []*models.Activity
	if err := r.db.SelectContext(ctx, &activities, query, entityType, entityID); err != nil {
		return nil, storageErr("list entity activities", err)
	}
	return activities, nil
}
