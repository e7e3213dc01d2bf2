package ports

import (
	"context"
	"time"

	"goscout/models"
)

// SearchOptions bounds a connector query.
type SearchOptions struct {
	MaxResults int
	MinDate    *time.Time
	MaxDate    *time.Time
	SortBy     string
}

// Connector is one pluggable external search provider. Implementations own
// their rate limiting: Search must not hit the provider faster than its
// documented minimum inter-request interval.
type Connector interface {
	// Name identifies the provider inside the registry
	Name() string

	// Search returns normalized items for a query. Items carry the
	// connector's name as Source.Provider.
	Search(ctx context.Context, query string, opts SearchOptions) ([]*models.Item, error)
}
