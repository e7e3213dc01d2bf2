package postgres

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"goscout/domain/core"
	"goscout/models"
	"goscout/ports"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// storageErr tags a database failure so callers can tell infrastructure
// faults apart from unit-level errors.
func storageErr(op string, err error) error {
	return fmt.Errorf("%w: failed to %s: %w", core.ErrStorage, op, err)
}

const itemColumns = `id, source_provider, source_external_id, title, body, url,
	published_at, tags, score, bucket, processed, created_at, updated_at`

// ItemRepository persists items in Postgres.
type ItemRepository struct {
	db *sqlx.DB
}

var _ ports.ItemRepository = (*ItemRepository)(nil)

// NewItemRepository creates a new item repository
func NewItemRepository(db *sqlx.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Create persists a new item
func (r *ItemRepository) Create(ctx context.Context, item *models.Item) error {
	query := `
		INSERT INTO items (
			id, source_provider, source_external_id, title, body, url,
			published_at, tags, score, bucket, processed, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.ExecContext(ctx, query,
		item.ID.String(),
		item.Source.Provider,
		item.Source.ExternalID,
		item.Title,
		item.Body,
		item.URL,
		item.PublishedAt,
		item.Tags,
		item.Score,
		item.Bucket,
		item.Processed,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		return storageErr("insert item", err)
	}
	return nil
}

// GetByID retrieves an item by its identifier
func (r *ItemRepository) GetByID(ctx context.Context, id core.ItemID) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	item, err := r.scanItem(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.NewNotFoundError("item", id.String())
		}
		return nil, storageErr("get item", err)
	}
	return item, nil
}

// FindBySource looks up an item by its provenance key
func (r *ItemRepository) FindBySource(ctx context.Context, source models.SourceID) (*models.Item, error) {
	if !source.IsComplete() {
		return nil, nil
	}
	query := `SELECT ` + itemColumns + ` FROM items
		WHERE source_provider = $1 AND source_external_id = $2`
	item, err := r.scanItem(r.db.QueryRowContext(ctx, query, source.Provider, source.ExternalID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, storageErr("find item by source", err)
	}
	return item, nil
}

// ListTitles returns (id, title) pairs for near-duplicate matching
func (r *ItemRepository) ListTitles(ctx context.Context) (map[core.ItemID]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, title FROM items`)
	if err != nil {
		return nil, storageErr("list titles", err)
	}
	defer rows.Close()

	titles := make(map[core.ItemID]string)
	for rows.Next() {
		var id, title string
		if err := rows.Scan(&id, &title); err != nil {
			return nil, storageErr("scan title row", err)
		}
		titles[core.ItemID(id)] = title
	}
	return titles, rows.Err()
}

// List returns items matching the filter, highest score first with unscored
// items last.
func (r *ItemRepository) List(ctx context.Context, filter ports.ItemFilter) ([]*models.Item, error) {
	builder := psql.Select(
		"id", "source_provider", "source_external_id", "title", "body", "url",
		"published_at", "tags", "score", "bucket", "processed", "created_at", "updated_at",
	).From("items").OrderBy("score DESC NULLS LAST", "created_at")

	if filter.Bucket != nil {
		builder = builder.Where(sq.Eq{"bucket": string(*filter.Bucket)})
	}
	if filter.Processed != nil {
		builder = builder.Where(sq.Eq{"processed": *filter.Processed})
	}
	if filter.Scored != nil {
		if *filter.Scored {
			builder = builder.Where("score IS NOT NULL")
		} else {
			builder = builder.Where("score IS NULL")
		}
	}
	if filter.PublishedFrom != nil {
		builder = builder.Where(sq.GtOrEq{"published_at": *filter.PublishedFrom})
	}
	if filter.PublishedTo != nil {
		builder = builder.Where(sq.LtOrEq{"published_at": *filter.PublishedTo})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build item query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list items", err)
	}
	defer rows.Close()

	var items []*models.Item
	for rows.Next() {
		item, err := r.scanItem(rows)
		if err != nil {
			return nil, storageErr("scan item row", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// UpdateScore overwrites the item's score and bucket
func (r *ItemRepository) UpdateScore(ctx context.Context, id core.ItemID, score float64, bucket models.ScoreBucket) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE items SET score = $1, bucket = $2, updated_at = now() WHERE id = $3`,
		score, string(bucket), id.String())
	if err != nil {
		return storageErr("update item score", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return core.NewNotFoundError("item", id.String())
	}
	return nil
}

// MarkProcessed flips the processed flag, one-way
func (r *ItemRepository) MarkProcessed(ctx context.Context, id core.ItemID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE items SET processed = TRUE, updated_at = now() WHERE id = $1`,
		id.String())
	if err != nil {
		return storageErr("mark item processed", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return core.NewNotFoundError("item", id.String())
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *ItemRepository) scanItem(row rowScanner) (*models.Item, error) {
	var item models.Item
	var id string
	var score sql.NullFloat64
	var bucket sql.NullString

	err := row.Scan(
		&id,
		&item.Source.Provider,
		&item.Source.ExternalID,
		&item.Title,
		&item.Body,
		&item.URL,
		&item.PublishedAt,
		&item.Tags,
		&score,
		&bucket,
		&item.Processed,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.ID = core.ItemID(id)
	if score.Valid {
		item.Score = &score.Float64
	}
	if bucket.Valid {
		b := models.ScoreBucket(bucket.String)
		item.Bucket = &b
	}
	return &item, nil
}
