package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"goscout/domain/core"
	"goscout/models"
	"goscout/ports"
)

const critiqueColumns = `id, plan_id, open_questions, weaknesses, risks,
	competitive_notes, compliance_notes, mitigations, disposition, created_at`

// CritiqueRepository persists critique records in Postgres. Rows only ever
// append; the newest row per plan is "current".
type CritiqueRepository struct {
	db *sqlx.DB
}

var _ ports.CritiqueRepository = (*CritiqueRepository)(nil)

// NewCritiqueRepository creates a new critique repository
func NewCritiqueRepository(db *sqlx.DB) *CritiqueRepository {
	return &CritiqueRepository{db: db}
}

// Create persists a new critique record
func (r *CritiqueRepository) Create(ctx context.Context, critique *models.Critique) error {
	query := `
		INSERT INTO critiques (
			id, plan_id, open_questions, weaknesses, risks,
			competitive_notes, compliance_notes, mitigations, disposition, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		critique.ID.String(),
		critique.PlanID.String(),
		critique.OpenQuestions,
		critique.Weaknesses,
		critique.Risks,
		critique.CompetitiveNotes,
		critique.ComplianceNotes,
		critique.Mitigations,
		string(critique.Disposition),
		critique.CreatedAt,
	)
	if err != nil {
		return storageErr("insert critique", err)
	}
	return nil
}

// CurrentForPlan returns the newest critique for a plan
func (r *CritiqueRepository) CurrentForPlan(ctx context.Context, planID core.PlanID) (*models.Critique, error) {
	query := `SELECT ` + critiqueColumns + ` FROM critiques
		WHERE plan_id = $1 ORDER BY created_at DESC LIMIT 1`

	var c models.Critique
	var id, pid, disposition string

	err := r.db.QueryRowContext(ctx, query, planID.String()).Scan(
		&id,
		&pid,
		&c.OpenQuestions,
		&c.Weaknesses,
		&c.Risks,
		&c.CompetitiveNotes,
		&c.ComplianceNotes,
		&c.Mitigations,
		&disposition,
		&c.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, storageErr("get current critique", err)
	}

	c.ID = core.CritiqueID(id)
	c.PlanID = core.PlanID(pid)
	c.Disposition = models.Disposition(disposition)
	return &c, nil
}
