package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"goscout/adapters/connectors"
	"goscout/domain/core"
	"goscout/internal/similarity"
	"goscout/models"
	"goscout/ports"
)

// DiscoveryService pulls new items from the registered connectors and ingests
// them with duplicate suppression. A connector failure is contained: the run
// continues with the providers that answered.
type DiscoveryService struct {
	registry       *connectors.Registry
	items          ports.ItemRepository
	activities     ports.ActivityRepository
	maxResults     int
	dedupThreshold float64
}

// DiscoveryRequest defines the inputs for one discovery pass.
type DiscoveryRequest struct {
	Queries   []string
	Providers []string // empty means all registered
	MinDate   *time.Time
	MaxDate   *time.Time
}

// DiscoveryResult summarizes one discovery pass.
type DiscoveryResult struct {
	Ingested   []*models.Item
	Duplicates int
	Failures   []models.RunFailure
}

// NewDiscoveryService creates a discovery service.
func NewDiscoveryService(registry *connectors.Registry, items ports.ItemRepository, activities ports.ActivityRepository, maxResults int, dedupThreshold float64) *DiscoveryService {
	return &DiscoveryService{
		registry:       registry,
		items:          items,
		activities:     activities,
		maxResults:     maxResults,
		dedupThreshold: dedupThreshold,
	}
}

// Discover fans queries out across the connectors, then ingests the combined
// results through the duplicate filter. Ingestion is sequential so the title
// index stays consistent while items are added.
func (s *DiscoveryService) Discover(ctx context.Context, req DiscoveryRequest) (*DiscoveryResult, error) {
	conns, err := s.selectConnectors(req.Providers)
	if err != nil {
		return nil, err
	}
	if len(req.Queries) == 0 {
		return nil, fmt.Errorf("discovery requires at least one query")
	}

	result := &DiscoveryResult{}
	var mu sync.Mutex
	var fetched []*models.Item

	g, gctx := errgroup.WithContext(ctx)
	for _, conn := range conns {
		conn := conn
		g.Go(func() error {
			for _, query := range req.Queries {
				items, err := conn.Search(gctx, query, ports.SearchOptions{
					MaxResults: s.maxResults,
					MinDate:    req.MinDate,
					MaxDate:    req.MaxDate,
				})
				if err != nil {
					cerr := core.NewConnectorError(conn.Name(), err)
					log.Printf("[Discovery] query %q: %v", query, cerr)
					mu.Lock()
					result.Failures = append(result.Failures, models.RunFailure{
						Stage:    models.StageDiscovery,
						EntityID: conn.Name(),
						Reason:   fmt.Sprintf("query %q: %v", query, cerr),
					})
					mu.Unlock()
					activity := models.NewActivity("discovery", "provider_failed", "connector", core.ID(conn.Name()),
						fmt.Sprintf("query %q: %v", query, err))
					if aerr := s.activities.Append(gctx, activity); aerr != nil {
						log.Printf("[Discovery] failed to record activity: %v", aerr)
					}
					continue
				}
				mu.Lock()
				fetched = append(fetched, items...)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("discovery fan-out failed: %w", err)
	}

	// Every provider failing on every query is a stage failure, not a
	// quietly empty run.
	if len(fetched) == 0 && len(result.Failures) > 0 && len(result.Failures) == len(conns)*len(req.Queries) {
		return result, fmt.Errorf("%w: all %d providers failed", core.ErrConnector, len(conns))
	}

	index, err := s.buildTitleIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load titles for duplicate matching: %w", err)
	}

	for _, item := range fetched {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		dup, err := s.isDuplicate(ctx, item, index)
		if err != nil {
			return result, err
		}
		if dup {
			result.Duplicates++
			continue
		}
		if err := s.items.Create(ctx, item); err != nil {
			return result, fmt.Errorf("failed to store item: %w", err)
		}
		index.Add(string(item.ID), item.NormalizedTitle())
		result.Ingested = append(result.Ingested, item)

		activity := models.NewActivity("discovery", "item_ingested", "item", core.ID(item.ID),
			fmt.Sprintf("ingested %q from %s", item.Title, item.Source.Provider))
		if err := s.activities.Append(ctx, activity); err != nil {
			log.Printf("[Discovery] failed to record activity: %v", err)
		}
	}

	log.Printf("[Discovery] ingested=%d duplicates=%d providerFailures=%d",
		len(result.Ingested), result.Duplicates, len(result.Failures))
	return result, nil
}

func (s *DiscoveryService) selectConnectors(providers []string) ([]ports.Connector, error) {
	if len(providers) == 0 {
		all := s.registry.All()
		if len(all) == 0 {
			return nil, fmt.Errorf("%w: no connectors registered", core.ErrConnector)
		}
		return all, nil
	}
	var out []ports.Connector
	for _, name := range providers {
		conn, err := s.registry.Resolve(name)
		if err != nil {
			return nil, err
		}
		out = append(out, conn)
	}
	return out, nil
}

func (s *DiscoveryService) buildTitleIndex(ctx context.Context) (*similarity.TitleIndex, error) {
	titles, err := s.items.ListTitles(ctx)
	if err != nil {
		return nil, err
	}
	index := similarity.NewTitleIndex(s.dedupThreshold)
	for id, title := range titles {
		index.Add(string(id), core.NormalizeTitle(title))
	}
	return index, nil
}

// isDuplicate applies the two-tier check: exact provenance key first, then
// near-duplicate title match.
func (s *DiscoveryService) isDuplicate(ctx context.Context, item *models.Item, index *similarity.TitleIndex) (bool, error) {
	if item.Source.IsComplete() {
		existing, err := s.items.FindBySource(ctx, item.Source)
		if err != nil {
			return false, fmt.Errorf("provenance lookup failed: %w", err)
		}
		if existing != nil {
			return true, nil
		}
	}
	if match := index.Match(item.NormalizedTitle()); match != "" {
		log.Printf("[Discovery] near-duplicate title %q matches item %s", item.Title, match)
		return true, nil
	}
	return false, nil
}
