package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goscout/internal/testkit"
	"goscout/models"
)

type fixture struct {
	gen   *Generator
	items *testkit.InMemoryItemRepository
	plans *testkit.InMemoryPlanRepository
	runs  *testkit.InMemoryRunRepository
}

func newFixture() *fixture {
	f := &fixture{
		items: testkit.NewInMemoryItemRepository(),
		plans: testkit.NewInMemoryPlanRepository(),
		runs:  testkit.NewInMemoryRunRepository(),
	}
	f.gen = NewGenerator(f.items, testkit.NewInMemoryArtifactRepository(), f.plans, f.runs)
	return f
}

func TestMarkdownBeforeFirstRun(t *testing.T) {
	f := newFixture()
	md, err := f.gen.Markdown(context.Background())
	require.NoError(t, err)
	assert.Contains(t, md, "No completed runs yet")
}

func TestMarkdownWithCompletedRun(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	item := models.NewItem(models.SourceID{Provider: "arxiv", ExternalID: "2401.0001"},
		"Caffeine improves endurance performance", "abstract")
	require.NoError(t, f.items.Create(ctx, item))
	require.NoError(t, f.items.UpdateScore(ctx, item.ID, 80, models.BucketHigh))

	plan := models.NewPlan("artifact-1", "Replicate mechanism X")
	plan.Objective = "Confirm the effect"
	require.NoError(t, f.plans.Create(ctx, plan))
	require.NoError(t, f.plans.UpdateStatus(ctx, plan.ID, models.PlanApproved))

	summary := models.NewRunSummary()
	summary.ItemCount = 1
	summary.ScoredCounts = models.ScoredCounts{High: 1}
	summary.ArtifactCount = 1
	summary.PlanCount = 1
	summary.RecordFailure(models.StageDiscovery, "crossref", assert.AnError)
	require.NoError(t, f.runs.SaveSummary(ctx, summary))

	md, err := f.gen.Markdown(ctx)
	require.NoError(t, err)
	assert.Contains(t, md, string(summary.RunID))
	assert.Contains(t, md, "Caffeine improves endurance performance")
	assert.Contains(t, md, "Replicate mechanism X")
	assert.Contains(t, md, "Contained failures")
	assert.Contains(t, md, "Score distribution")
}

func TestHTMLRendering(t *testing.T) {
	f := newFixture()
	summary := models.NewRunSummary()
	require.NoError(t, f.runs.SaveSummary(context.Background(), summary))

	out, err := f.gen.HTML(context.Background())
	require.NoError(t, err)
	assert.Contains(t, string(out), "<h1")
	assert.Contains(t, string(out), "Pipeline Report")
}
