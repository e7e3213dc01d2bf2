package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goscout/adapters/connectors"
	"goscout/adapters/llm"
	"goscout/ai"
	"goscout/domain/core"
	"goscout/internal/testkit"
	"goscout/models"
	"goscout/ports"
)

type pipelineFixture struct {
	orch        *Orchestrator
	items       *testkit.InMemoryItemRepository
	artifacts   *testkit.InMemoryArtifactRepository
	validations *testkit.InMemoryValidationRepository
	plans       *testkit.InMemoryPlanRepository
	critiques   *testkit.InMemoryCritiqueRepository
	runs        *testkit.InMemoryRunRepository
	activities  *testkit.InMemoryActivityRepository
	notifier    *testkit.StubNotifier
	mock        *llm.MockLLMClient
}

func newPipelineFixture(mock *llm.MockLLMClient, conns ...*testkit.StubConnector) *pipelineFixture {
	return newPipelineFixtureWith(mock, nil, conns...)
}

// newPipelineFixtureWith lets a test wrap the artifact store, e.g. with a
// failing one.
func newPipelineFixtureWith(mock *llm.MockLLMClient, wrapArtifacts func(ports.ArtifactRepository) ports.ArtifactRepository, conns ...*testkit.StubConnector) *pipelineFixture {
	registry := connectors.NewRegistry()
	for _, c := range conns {
		registry.Register(c)
	}
	f := &pipelineFixture{
		items:       testkit.NewInMemoryItemRepository(),
		artifacts:   testkit.NewInMemoryArtifactRepository(),
		validations: testkit.NewInMemoryValidationRepository(),
		plans:       testkit.NewInMemoryPlanRepository(),
		critiques:   testkit.NewInMemoryCritiqueRepository(),
		runs:        testkit.NewInMemoryRunRepository(),
		activities:  testkit.NewInMemoryActivityRepository(),
		notifier:    &testkit.StubNotifier{},
		mock:        mock,
	}
	var artifactStore ports.ArtifactRepository = f.artifacts
	if wrapArtifacts != nil {
		artifactStore = wrapArtifacts(f.artifacts)
	}
	profiles := ai.DefaultProfiles()

	discovery := NewDiscoveryService(registry, f.items, f.activities, 25, 0.85)
	scoring := NewScoringService(mock, profiles["scoring"], f.items, f.activities, 70, 40)
	generation := NewGenerationService(mock, profiles["generation"], artifactStore, f.activities)
	validation := NewValidationService(mock, profiles["validation"], registry, artifactStore, f.validations, f.activities)
	planning := NewPlanningService(mock, profiles["planning"], artifactStore, f.validations, f.plans, f.activities, []string{"applied-research"})
	critique := NewCritiqueService(mock, profiles["critique"], artifactStore, f.plans, f.critiques, f.activities)

	f.orch = NewOrchestrator(discovery, scoring, generation, validation, planning, critique,
		f.items, artifactStore, f.plans, f.runs, f.activities, f.notifier, 5, 1)
	return f
}

// scriptedResponder routes generative calls by prompt content, so the script
// holds regardless of unit ordering inside a stage.
func (f *pipelineFixture) scriptedResponder() func(string, []ports.ConversationTurn) (string, error) {
	generationJSON := func(title string) string {
		payload, _ := json.Marshal(models.GenerationResponse{Artifacts: []models.ArtifactDescriptor{
			{Title: title, Statement: "testable statement for " + title, Confidence: 0.6},
		}})
		return string(payload)
	}
	return func(_ string, messages []ports.ConversationTurn) (string, error) {
		prompt := messages[len(messages)-1].Content
		switch {
		case strings.Contains(prompt, "Score each"):
			titles, err := f.items.ListTitles(context.Background())
			if err != nil {
				return "", err
			}
			var entries []models.ScoreEntry
			for id, title := range titles {
				entry := models.ScoreEntry{ItemID: string(id)}
				if strings.Contains(title, "Caffeine") {
					entry.Relevance, entry.Novelty, entry.Actionability, entry.Urgency = 30, 25, 15, 10 // 80: high
				} else {
					entry.Relevance, entry.Novelty, entry.Actionability, entry.Urgency = 20, 10, 10, 10 // 50: medium
				}
				entries = append(entries, entry)
			}
			payload, _ := json.Marshal(models.ScoreBatchResponse{Scores: entries})
			return string(payload), nil
		case strings.Contains(prompt, "Derive 1 to 3"):
			if strings.Contains(prompt, "Title: Caffeine") {
				return generationJSON("Caffeine dose mediates endurance gains"), nil
			}
			return generationJSON("Sleep debt accumulates a recovery deficit"), nil
		case strings.Contains(prompt, "Assess this hypothesis"):
			// Match on the hypothesis line, not the whole prompt: the
			// evidence section can mention either topic.
			if strings.Contains(prompt, "Hypothesis: Caffeine") {
				return validationJSON("pursue"), nil
			}
			return validationJSON("reject"), nil
		case strings.Contains(prompt, "Adversarially review"):
			return critiqueJSON("proceed"), nil
		case strings.Contains(prompt, "project plan"):
			return planJSON(), nil
		default:
			return "", fmt.Errorf("unexpected prompt: %.60s", prompt)
		}
	}
}

func TestRunPipelineEndToEnd(t *testing.T) {
	arxiv := &testkit.StubConnector{Provider: "arxiv", Items: []*models.Item{
		stubItem("2401.0001", "Caffeine improves endurance performance"),
	}}
	crossref := &testkit.StubConnector{Provider: "crossref", Items: []*models.Item{
		stubItem("10.1000/x1", "Sleep restriction impairs athletic recovery"),
	}}
	mock := &llm.MockLLMClient{}
	f := newPipelineFixture(mock, arxiv, crossref)
	mock.OnComplete = f.scriptedResponder()

	summary, err := f.orch.RunPipeline(context.Background(), RunRequest{Queries: []string{"endurance"}})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.ItemCount)
	assert.Equal(t, models.ScoredCounts{High: 1, Medium: 1}, summary.ScoredCounts)
	assert.Equal(t, 2, summary.ArtifactCount)
	assert.Equal(t, 1, summary.ValidatedCount)
	assert.Equal(t, 1, summary.PursuedCount)
	assert.Equal(t, 1, summary.PlanCount)
	assert.Equal(t, 1, summary.CritiqueCount)
	assert.Empty(t, summary.Failures)
	assert.Positive(t, summary.DurationSeconds)

	// Both items were consumed by generation.
	processed := true
	done, err := f.items.List(context.Background(), ports.ItemFilter{Processed: &processed})
	require.NoError(t, err)
	assert.Len(t, done, 2)

	// The approved plan survived critique.
	approved, err := f.plans.ListByStatus(context.Background(), models.PlanApproved, 0)
	require.NoError(t, err)
	assert.Len(t, approved, 1)

	// Summary is durable and was delivered.
	latest, err := f.orch.LatestSummary(context.Background())
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, summary.RunID, latest.RunID)
	require.Len(t, f.notifier.Delivered, 1)
}

func TestRunPipelineContainsGenerationFailure(t *testing.T) {
	arxiv := &testkit.StubConnector{Provider: "arxiv", Items: []*models.Item{
		stubItem("2401.0001", "Caffeine improves endurance performance"),
		stubItem("2401.0002", "Sleep restriction impairs athletic recovery"),
	}}
	mock := &llm.MockLLMClient{}
	f := newPipelineFixture(mock, arxiv)
	base := f.scriptedResponder()
	mock.OnComplete = func(sys string, messages []ports.ConversationTurn) (string, error) {
		prompt := messages[len(messages)-1].Content
		// One item's generation call fails outright.
		if strings.Contains(prompt, "Derive 1 to 3") && strings.Contains(prompt, "Sleep") {
			return "", fmt.Errorf("upstream timeout")
		}
		return base(sys, messages)
	}

	summary, err := f.orch.RunPipeline(context.Background(), RunRequest{Queries: []string{"endurance"}})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ArtifactCount)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, models.StageGeneration, summary.Failures[0].Stage)

	// The failed item is still marked processed: its attempt completed with a
	// recorded failure, and the next run must not retry it.
	unprocessed := false
	pending, listErr := f.items.List(context.Background(), ports.ItemFilter{Processed: &unprocessed})
	require.NoError(t, listErr)
	assert.Empty(t, pending)

	// The failure landed in the audit log with the item's id.
	entries, listErr := f.activities.ListForEntity(context.Background(), "item", summary.Failures[0].EntityID)
	require.NoError(t, listErr)
	found := false
	for _, entry := range entries {
		if entry.Action == "unit_failed" {
			found = true
		}
	}
	assert.True(t, found, "expected a unit_failed audit entry for the failed item")

	// The pipeline still carried the good item all the way through.
	assert.Equal(t, 1, summary.PlanCount)
	assert.Equal(t, 1, summary.CritiqueCount)
}

func TestRunPipelineAllowsEmptyGeneration(t *testing.T) {
	arxiv := &testkit.StubConnector{Provider: "arxiv", Items: []*models.Item{
		stubItem("2401.0002", "Sleep restriction impairs athletic recovery"),
	}}
	mock := &llm.MockLLMClient{}
	f := newPipelineFixture(mock, arxiv)
	base := f.scriptedResponder()
	mock.OnComplete = func(sys string, messages []ports.ConversationTurn) (string, error) {
		prompt := messages[len(messages)-1].Content
		// Nothing usable comes back, which is a valid empty outcome.
		if strings.Contains(prompt, "Derive 1 to 3") {
			return `{"artifacts": [{"title": "", "statement": ""}]}`, nil
		}
		return base(sys, messages)
	}

	summary, err := f.orch.RunPipeline(context.Background(), RunRequest{Queries: []string{"recovery"}})
	require.NoError(t, err)

	assert.Zero(t, summary.ArtifactCount)
	assert.Empty(t, summary.Failures)

	// The item was consumed even though it yielded nothing.
	unprocessed := false
	pending, listErr := f.items.List(context.Background(), ports.ItemFilter{Processed: &unprocessed})
	require.NoError(t, listErr)
	assert.Empty(t, pending)
}

func TestRunPipelineResumesStrandedArtifacts(t *testing.T) {
	// An empty connector keeps discovery quiet; the run's work is the
	// artifact left in generated state by an interrupted earlier run.
	arxiv := &testkit.StubConnector{Provider: "arxiv"}
	mock := &llm.MockLLMClient{}
	f := newPipelineFixture(mock, arxiv)
	mock.OnComplete = f.scriptedResponder()

	item := stubItem("2401.0001", "Caffeine improves endurance performance")
	item.Source.Provider = "arxiv"
	require.NoError(t, f.items.Create(context.Background(), item))
	require.NoError(t, f.items.UpdateScore(context.Background(), item.ID, 80, models.BucketHigh))
	require.NoError(t, f.items.MarkProcessed(context.Background(), item.ID))

	stranded := models.NewArtifact(item.ID, "Caffeine dose mediates endurance gains", "testable statement")
	require.NoError(t, f.artifacts.Create(context.Background(), stranded))

	summary, err := f.orch.RunPipeline(context.Background(), RunRequest{Queries: []string{"endurance"}})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ValidatedCount)
	assert.Equal(t, 1, summary.PlanCount)
	assert.Equal(t, 1, summary.CritiqueCount)

	stored, err := f.artifacts.GetByID(context.Background(), stranded.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ArtifactPlanned, stored.Status)
}

// failingArtifactStore rejects writes the way an unreachable database would.
type failingArtifactStore struct {
	ports.ArtifactRepository
	createErr error
}

func (r *failingArtifactStore) Create(context.Context, *models.Artifact) error {
	return r.createErr
}

func TestRunPipelineAbortsOnStorageError(t *testing.T) {
	arxiv := &testkit.StubConnector{Provider: "arxiv", Items: []*models.Item{
		stubItem("2401.0001", "Caffeine improves endurance performance"),
	}}
	mock := &llm.MockLLMClient{}
	wrap := func(store ports.ArtifactRepository) ports.ArtifactRepository {
		return &failingArtifactStore{
			ArtifactRepository: store,
			createErr:          fmt.Errorf("%w: connection refused", core.ErrStorage),
		}
	}
	f := newPipelineFixtureWith(mock, wrap, arxiv)
	mock.OnComplete = f.scriptedResponder()

	summary, err := f.orch.RunPipeline(context.Background(), RunRequest{Queries: []string{"endurance"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrStorage)

	// The run aborted rather than containing the fault, and the summary is
	// still durable.
	assert.Empty(t, summary.Failures)
	latest, lerr := f.orch.LatestSummary(context.Background())
	require.NoError(t, lerr)
	require.NotNil(t, latest)
	assert.Equal(t, summary.RunID, latest.RunID)
}

func TestRunStageScoring(t *testing.T) {
	mock := &llm.MockLLMClient{}
	f := newPipelineFixture(mock)
	mock.OnComplete = f.scriptedResponder()

	item := stubItem("2401.0001", "Caffeine improves endurance performance")
	item.Source.Provider = "arxiv"
	require.NoError(t, f.items.Create(context.Background(), item))

	result, err := f.orch.RunStage(context.Background(), models.StageScoring, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Succeeded)
	assert.Empty(t, result.Failures)

	stored, err := f.items.GetByID(context.Background(), item.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Bucket)
	assert.Equal(t, models.BucketHigh, *stored.Bucket)
}

func TestRunStageRejectsDiscovery(t *testing.T) {
	f := newPipelineFixture(&llm.MockLLMClient{})
	_, err := f.orch.RunStage(context.Background(), models.StageDiscovery, nil)
	assert.Error(t, err)
}
