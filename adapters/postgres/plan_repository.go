package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"goscout/domain/core"
	"goscout/models"
	"goscout/ports"
)

const planColumns = `id, artifact_id, title, objective, methodology, milestones,
	resources, timeline_units, estimated_cost, output_kind, feasibility,
	risk_notes, status, created_at, updated_at`

// PlanRepository persists plans in Postgres.
type PlanRepository struct {
	db *sqlx.DB
}

var _ ports.PlanRepository = (*PlanRepository)(nil)

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *sqlx.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Create persists a new plan
func (r *PlanRepository) Create(ctx context.Context, plan *models.Plan) error {
	query := `
		INSERT INTO plans (
			id, artifact_id, title, objective, methodology, milestones,
			resources, timeline_units, estimated_cost, output_kind, feasibility,
			risk_notes, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.db.ExecContext(ctx, query,
		plan.ID.String(),
		plan.ArtifactID.String(),
		plan.Title,
		plan.Objective,
		plan.Methodology,
		plan.Milestones,
		plan.Resources,
		plan.TimelineUnits,
		plan.EstimatedCost,
		string(plan.OutputKind),
		plan.Feasibility,
		plan.RiskNotes,
		string(plan.Status),
		plan.CreatedAt,
		plan.UpdatedAt,
	)
	if err != nil {
		return storageErr("insert plan", err)
	}
	return nil
}

// GetByID retrieves a plan by its identifier
func (r *PlanRepository) GetByID(ctx context.Context, id core.PlanID) (*models.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = $1`
	plan, err := scanPlan(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.NewNotFoundError("plan", id.String())
		}
		return nil, storageErr("get plan", err)
	}
	return plan, nil
}

// ListByStatus returns plans in the given status, oldest first
func (r *PlanRepository) ListByStatus(ctx context.Context, status models.PlanStatus, limit int) ([]*models.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans
		WHERE status = $1 ORDER BY created_at`
	args := []interface{}{string(status)}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query plans", err)
	}
	defer rows.Close()

	var plans []*models.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, storageErr("scan plan row", err)
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// UpdateStatus writes the critique stage's disposition mapping
func (r *PlanRepository) UpdateStatus(ctx context.Context, id core.PlanID, status models.PlanStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE plans SET status = $1, updated_at = now() WHERE id = $2`,
		string(status), id.String())
	if err != nil {
		return storageErr("update plan status", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return core.NewNotFoundError("plan", id.String())
	}
	return nil
}

func scanPlan(row rowScanner) (*models.Plan, error) {
	var p models.Plan
	var id, artifactID, outputKind, status string

	err := row.Scan(
		&id,
		&artifactID,
		&p.Title,
		&p.Objective,
		&p.Methodology,
		&p.Milestones,
		&p.Resources,
		&p.TimelineUnits,
		&p.EstimatedCost,
		&outputKind,
		&p.Feasibility,
		&p.RiskNotes,
		&status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.ID = core.PlanID(id)
	p.ArtifactID = core.ArtifactID(artifactID)
	p.OutputKind = models.PlanOutputKind(outputKind)
	p.Status = models.PlanStatus(status)
	return &p, nil
}
