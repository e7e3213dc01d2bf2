package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"goscout/domain/core"
	"goscout/models"
	"goscout/ports"
)

const validationColumns = `id, artifact_id, supporting_evidence, contradicting_evidence,
	gaps, key_references, confidence_level, recommendation, summary, created_at`

// ValidationRepository persists validation records in Postgres. Rows only
// ever append; the newest row per artifact is "current".
type ValidationRepository struct {
	db *sqlx.DB
}

var _ ports.ValidationRepository = (*ValidationRepository)(nil)

// NewValidationRepository creates a new validation repository
func NewValidationRepository(db *sqlx.DB) *ValidationRepository {
	return &ValidationRepository{db: db}
}

// Create persists a new validation record
func (r *ValidationRepository) Create(ctx context.Context, validation *models.Validation) error {
	query := `
		INSERT INTO validations (
			id, artifact_id, supporting_evidence, contradicting_evidence,
			gaps, key_references, confidence_level, recommendation, summary, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		validation.ID.String(),
		validation.ArtifactID.String(),
		validation.SupportingEvidence,
		validation.ContradictingEvidence,
		validation.Gaps,
		validation.KeyReferences,
		string(validation.ConfidenceLevel),
		string(validation.Recommendation),
		validation.Summary,
		validation.CreatedAt,
	)
	if err != nil {
		return storageErr("insert validation", err)
	}
	return nil
}

// CurrentForArtifact returns the newest validation for an artifact
func (r *ValidationRepository) CurrentForArtifact(ctx context.Context, artifactID core.ArtifactID) (*models.Validation, error) {
	query := `SELECT ` + validationColumns + ` FROM validations
		WHERE artifact_id = $1 ORDER BY created_at DESC LIMIT 1`

	validation, err := scanValidation(r.db.QueryRowContext(ctx, query, artifactID.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, storageErr("get current validation", err)
	}
	return validation, nil
}

// HistoryForArtifact returns all validations for an artifact, newest first
func (r *ValidationRepository) HistoryForArtifact(ctx context.Context, artifactID core.ArtifactID) ([]*models.Validation, error) {
	query := `SELECT ` + validationColumns + ` FROM validations
		WHERE artifact_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, artifactID.String())
	if err != nil {
		return nil, storageErr("query validations", err)
	}
	defer rows.Close()

	var validations []*models.Validation
	for rows.Next() {
		validation, err := scanValidation(rows)
		if err != nil {
			return nil, storageErr("scan validation row", err)
		}
		validations = append(validations, validation)
	}
	return validations, rows.Err()
}

func scanValidation(row rowScanner) (*models.Validation, error) {
	var v models.Validation
	var id, artifactID, confidence, recommendation string

	err := row.Scan(
		&id,
		&artifactID,
		&v.SupportingEvidence,
		&v.ContradictingEvidence,
		&v.Gaps,
		&v.KeyReferences,
		&confidence,
		&recommendation,
		&v.Summary,
		&v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	v.ID = core.ValidationID(id)
	v.ArtifactID = core.ArtifactID(artifactID)
	v.ConfidenceLevel = models.ConfidenceLevel(confidence)
	v.Recommendation = models.Recommendation(recommendation)
	return &v, nil
}
