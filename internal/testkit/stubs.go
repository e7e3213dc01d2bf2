package testkit

import (
	"context"
	"sync"

	"goscout/models"
	"goscout/ports"
)

// StubConnector returns canned items or a canned error.
type StubConnector struct {
	Provider string
	Items    []*models.Item
	Err      error

	mu      sync.Mutex
	queries []string
}

var _ ports.Connector = (*StubConnector)(nil)

func (c *StubConnector) Name() string { return c.Provider }

func (c *StubConnector) Search(_ context.Context, query string, _ ports.SearchOptions) ([]*models.Item, error) {
	c.mu.Lock()
	c.queries = append(c.queries, query)
	c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	out := make([]*models.Item, len(c.Items))
	for i, item := range c.Items {
		copied := *item
		copied.Source.Provider = c.Provider
		out[i] = &copied
	}
	return out, nil
}

// Queries returns the queries Search has seen, in order.
func (c *StubConnector) Queries() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.queries...)
}

// StubNotifier records delivered summaries.
type StubNotifier struct {
	mu        sync.Mutex
	Delivered []*models.RunSummary
	Err       error
}

var _ ports.Notifier = (*StubNotifier)(nil)

func (n *StubNotifier) RunCompleted(_ context.Context, summary *models.RunSummary) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.Delivered = append(n.Delivered, summary)
	return nil
}
