package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goscout/adapters/connectors"
	"goscout/domain/core"
	"goscout/internal/testkit"
	"goscout/models"
)

func newDiscoveryFixture(conns ...*testkit.StubConnector) (*DiscoveryService, *testkit.InMemoryItemRepository) {
	registry := connectors.NewRegistry()
	for _, c := range conns {
		registry.Register(c)
	}
	items := testkit.NewInMemoryItemRepository()
	activities := testkit.NewInMemoryActivityRepository()
	svc := NewDiscoveryService(registry, items, activities, 25, 0.85)
	return svc, items
}

func stubItem(externalID, title string) *models.Item {
	return models.NewItem(models.SourceID{ExternalID: externalID}, title, "abstract for "+title)
}

func TestDiscoverIngestsFromAllProviders(t *testing.T) {
	a := &testkit.StubConnector{Provider: "arxiv", Items: []*models.Item{
		stubItem("2401.0001", "Sparse retrieval improves long-context recall"),
	}}
	b := &testkit.StubConnector{Provider: "crossref", Items: []*models.Item{
		stubItem("10.1000/x1", "Caffeine intake and endurance performance"),
	}}
	svc, items := newDiscoveryFixture(a, b)

	result, err := svc.Discover(context.Background(), DiscoveryRequest{Queries: []string{"test"}})
	require.NoError(t, err)
	assert.Len(t, result.Ingested, 2)
	assert.Zero(t, result.Duplicates)
	assert.Empty(t, result.Failures)
	assert.Equal(t, 2, items.Count())
}

func TestDiscoverIsIdempotent(t *testing.T) {
	conn := &testkit.StubConnector{Provider: "arxiv", Items: []*models.Item{
		stubItem("2401.0001", "Sparse retrieval improves long-context recall"),
		stubItem("2401.0002", "Quantized inference on commodity hardware"),
	}}
	svc, items := newDiscoveryFixture(conn)

	first, err := svc.Discover(context.Background(), DiscoveryRequest{Queries: []string{"test"}})
	require.NoError(t, err)
	require.Len(t, first.Ingested, 2)

	// Same results again: everything is suppressed by the provenance key.
	second, err := svc.Discover(context.Background(), DiscoveryRequest{Queries: []string{"test"}})
	require.NoError(t, err)
	assert.Empty(t, second.Ingested)
	assert.Equal(t, 2, second.Duplicates)
	assert.Equal(t, 2, items.Count())
}

func TestDiscoverSuppressesNearDuplicateTitles(t *testing.T) {
	// Different providers, different external ids, same title: the second
	// one must be caught by the title match.
	a := &testkit.StubConnector{Provider: "arxiv", Items: []*models.Item{
		stubItem("2401.0001", "Caffeine intake and endurance performance in trained athletes"),
	}}
	b := &testkit.StubConnector{Provider: "crossref", Items: []*models.Item{
		stubItem("10.1000/x1", "Caffeine Intake and Endurance Performance in Trained Athletes"),
	}}
	svc, items := newDiscoveryFixture(a, b)

	result, err := svc.Discover(context.Background(), DiscoveryRequest{Queries: []string{"caffeine"}})
	require.NoError(t, err)
	assert.Len(t, result.Ingested, 1)
	assert.Equal(t, 1, result.Duplicates)
	assert.Equal(t, 1, items.Count())
}

func TestDiscoverToleratesPartialProviderFailure(t *testing.T) {
	good := &testkit.StubConnector{Provider: "arxiv", Items: []*models.Item{
		stubItem("2401.0001", "Sparse retrieval improves long-context recall"),
	}}
	bad := &testkit.StubConnector{Provider: "crossref", Err: errors.New("upstream 503")}
	svc, items := newDiscoveryFixture(good, bad)

	result, err := svc.Discover(context.Background(), DiscoveryRequest{Queries: []string{"test"}})
	require.NoError(t, err)
	assert.Len(t, result.Ingested, 1)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, models.StageDiscovery, result.Failures[0].Stage)
	assert.Equal(t, "crossref", result.Failures[0].EntityID)
	assert.Equal(t, 1, items.Count())
}

func TestDiscoverRecordsProviderFailureActivity(t *testing.T) {
	registry := connectors.NewRegistry()
	registry.Register(&testkit.StubConnector{Provider: "crossref", Err: errors.New("upstream 503")})
	registry.Register(&testkit.StubConnector{Provider: "arxiv", Items: []*models.Item{
		stubItem("2401.0001", "Sparse retrieval improves long-context recall"),
	}})
	items := testkit.NewInMemoryItemRepository()
	activities := testkit.NewInMemoryActivityRepository()
	svc := NewDiscoveryService(registry, items, activities, 25, 0.85)

	_, err := svc.Discover(context.Background(), DiscoveryRequest{Queries: []string{"test"}})
	require.NoError(t, err)

	entries, err := activities.ListForEntity(context.Background(), "connector", "crossref")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "provider_failed", entries[0].Action)
	assert.Contains(t, entries[0].Summary, "upstream 503")
}

func TestDiscoverFailsWhenAllProvidersFail(t *testing.T) {
	a := &testkit.StubConnector{Provider: "arxiv", Err: errors.New("timeout")}
	b := &testkit.StubConnector{Provider: "crossref", Err: errors.New("timeout")}
	svc, _ := newDiscoveryFixture(a, b)

	result, err := svc.Discover(context.Background(), DiscoveryRequest{Queries: []string{"test"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConnector)
	assert.Len(t, result.Failures, 2)
}

func TestDiscoverRequiresQueries(t *testing.T) {
	svc, _ := newDiscoveryFixture(&testkit.StubConnector{Provider: "arxiv"})
	_, err := svc.Discover(context.Background(), DiscoveryRequest{})
	assert.Error(t, err)
}
