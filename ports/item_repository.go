package ports

import (
	"context"
	"time"

	"goscout/domain/core"
	"goscout/models"
)

// ItemFilter narrows item listing queries. Zero values mean "no filter".
type ItemFilter struct {
	Bucket        *models.ScoreBucket
	Processed     *bool
	Scored        *bool
	PublishedFrom *time.Time
	PublishedTo   *time.Time
	Limit         int
}

// ItemRepository defines the interface for item data operations
type ItemRepository interface {
	// Create persists a new item
	Create(ctx context.Context, item *models.Item) error

	// GetByID retrieves an item by its identifier
	GetByID(ctx context.Context, id core.ItemID) (*models.Item, error)

	// FindBySource looks up an item by its (provider, external id) key.
	// Returns (nil, nil) when absent.
	FindBySource(ctx context.Context, source models.SourceID) (*models.Item, error)

	// ListTitles returns (id, title) pairs for all stored items, for
	// near-duplicate matching at ingestion.
	ListTitles(ctx context.Context) (map[core.ItemID]string, error)

	// List returns items matching the filter, ordered by score descending
	// with unscored items last.
	List(ctx context.Context, filter ItemFilter) ([]*models.Item, error)

	// UpdateScore persists the scoring stage's output onto the item.
	// Re-scoring overwrites; it is not additive.
	UpdateScore(ctx context.Context, id core.ItemID, score float64, bucket models.ScoreBucket) error

	// MarkProcessed flips the processed flag. One-way: false -> true.
	MarkProcessed(ctx context.Context, id core.ItemID) error
}
