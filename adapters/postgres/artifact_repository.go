package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"goscout/domain/core"
	"goscout/models"
	"goscout/ports"
)

const artifactColumns = `id, item_id, title, statement, rationale, assumptions,
	predictions, required_evidence, confidence, status, created_at, updated_at`

// ArtifactRepository persists artifacts in Postgres.
type ArtifactRepository struct {
	db *sqlx.DB
}

var _ ports.ArtifactRepository = (*ArtifactRepository)(nil)

// NewArtifactRepository creates a new artifact repository
func NewArtifactRepository(db *sqlx.DB) *ArtifactRepository {
	return &ArtifactRepository{db: db}
}

// Create persists a new artifact
func (r *ArtifactRepository) Create(ctx context.Context, artifact *models.Artifact) error {
	query := `
		INSERT INTO artifacts (
			id, item_id, title, statement, rationale, assumptions,
			predictions, required_evidence, confidence, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		artifact.ID.String(),
		artifact.ItemID.String(),
		artifact.Title,
		artifact.Statement,
		artifact.Rationale,
		artifact.Assumptions,
		artifact.Predictions,
		artifact.RequiredEvidence,
		artifact.Confidence,
		string(artifact.Status),
		artifact.CreatedAt,
		artifact.UpdatedAt,
	)
	if err != nil {
		return storageErr("insert artifact", err)
	}
	return nil
}

// GetByID retrieves an artifact by its identifier
func (r *ArtifactRepository) GetByID(ctx context.Context, id core.ArtifactID) (*models.Artifact, error) {
	query := `SELECT ` + artifactColumns + ` FROM artifacts WHERE id = $1`
	artifact, err := scanArtifact(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.NewNotFoundError("artifact", id.String())
		}
		return nil, storageErr("get artifact", err)
	}
	return artifact, nil
}

// ListByStatus returns artifacts in the given status, oldest first
func (r *ArtifactRepository) ListByStatus(ctx context.Context, status models.ArtifactStatus, limit int) ([]*models.Artifact, error) {
	query := `SELECT ` + artifactColumns + ` FROM artifacts
		WHERE status = $1 ORDER BY created_at`
	args := []interface{}{string(status)}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	return r.queryArtifacts(ctx, query, args...)
}

// ListByItem returns all artifacts derived from one item
func (r *ArtifactRepository) ListByItem(ctx context.Context, itemID core.ItemID) ([]*models.Artifact, error) {
	query := `SELECT ` + artifactColumns + ` FROM artifacts
		WHERE item_id = $1 ORDER BY created_at`
	return r.queryArtifacts(ctx, query, itemID.String())
}

// UpdateStatus writes a status transition with a fresh updated_at stamp
func (r *ArtifactRepository) UpdateStatus(ctx context.Context, id core.ArtifactID, status models.ArtifactStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE artifacts SET status = $1, updated_at = now() WHERE id = $2`,
		string(status), id.String())
	if err != nil {
		return storageErr("update artifact status", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return core.NewNotFoundError("artifact", id.String())
	}
	return nil
}

func (r *ArtifactRepository) queryArtifacts(ctx context.Context, query string, args ...interface{}) ([]*models.Artifact, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query artifacts", err)
	}
	defer rows.Close()

	var artifacts []*models.Artifact
	for rows.Next() {
		artifact, err := scanArtifact(rows)
		if err != nil {
			return nil, storageErr("scan artifact row", err)
		}
		artifacts = append(artifacts, artifact)
	}
	return artifacts, rows.Err()
}

func scanArtifact(row rowScanner) (*models.Artifact, error) {
	var a models.Artifact
	var id, itemID, status string

	err := row.Scan(
		&id,
		&itemID,
		&a.Title,
		&a.Statement,
		&a.Rationale,
		&a.Assumptions,
		&a.Predictions,
		&a.RequiredEvidence,
		&a.Confidence,
		&status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.ID = core.ArtifactID(id)
	a.ItemID = core.ItemID(itemID)
	a.Status = models.ArtifactStatus(status)
	return &a, nil
}
