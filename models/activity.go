package models

import (
	"time"

	"goscout/domain/core"
)

// Activity is an append-only audit entry written by every stage on every
// meaningful state change. Never mutated or deleted.
type Activity struct {
	ID         int64     `json:"id" db:"id"`
	AgentName  string    `json:"agent_name" db:"agent_name"`
	Action     string    `json:"action" db:"action"`
	EntityType string    `json:"entity_type" db:"entity_type"`
	EntityID   string    `json:"entity_id" db:"entity_id"`
	Summary    string    `json:"summary" db:"summary"`
	Timestamp  time.Time `json:"timestamp" db:"timestamp"`
}

// NewActivity builds an audit entry stamped with the current time.
func NewActivity(agent, action, entityType string, entityID core.ID, summary string) *Activity {
	return &Activity{
		AgentName:  agent,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID.String(),
		Summary:    summary,
		Timestamp:  time.Now().UTC(),
	}
}
