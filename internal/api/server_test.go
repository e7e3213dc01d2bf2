package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goscout/adapters/connectors"
	"goscout/adapters/excel"
	"goscout/adapters/llm"
	"goscout/ai"
	"goscout/app"
	"goscout/domain/core"
	apperrors "goscout/internal/errors"
	"goscout/internal/report"
	"goscout/internal/testkit"
	"goscout/models"
)

type serverFixture struct {
	server *Server
	runs   *testkit.InMemoryRunRepository
	items  *testkit.InMemoryItemRepository
}

func newServerFixture(mock *llm.MockLLMClient, conns ...*testkit.StubConnector) *serverFixture {
	registry := connectors.NewRegistry()
	for _, c := range conns {
		registry.Register(c)
	}
	items := testkit.NewInMemoryItemRepository()
	artifacts := testkit.NewInMemoryArtifactRepository()
	validations := testkit.NewInMemoryValidationRepository()
	plans := testkit.NewInMemoryPlanRepository()
	critiques := testkit.NewInMemoryCritiqueRepository()
	runs := testkit.NewInMemoryRunRepository()
	activities := testkit.NewInMemoryActivityRepository()
	profiles := ai.DefaultProfiles()

	orch := app.NewOrchestrator(
		app.NewDiscoveryService(registry, items, activities, 25, 0.85),
		app.NewScoringService(mock, profiles["scoring"], items, activities, 70, 40),
		app.NewGenerationService(mock, profiles["generation"], artifacts, activities),
		app.NewValidationService(mock, profiles["validation"], registry, artifacts, validations, activities),
		app.NewPlanningService(mock, profiles["planning"], artifacts, validations, plans, activities, nil),
		app.NewCritiqueService(mock, profiles["critique"], artifacts, plans, critiques, activities),
		items, artifacts, plans, runs, activities, nil, 5, 1,
	)
	reports := report.NewGenerator(items, artifacts, plans, runs)
	exporter := excel.NewExporter(items, artifacts, plans)
	return &serverFixture{
		server: NewServer(orch, reports, exporter),
		runs:   runs,
		items:  items,
	}
}

func TestLatestRunNotFound(t *testing.T) {
	f := newServerFixture(&llm.MockLLMClient{})
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pipeline/runs/latest", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLatestRunReturnsSummary(t *testing.T) {
	f := newServerFixture(&llm.MockLLMClient{})
	summary := models.NewRunSummary()
	summary.ItemCount = 4
	require.NoError(t, f.runs.SaveSummary(context.Background(), summary))

	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pipeline/runs/latest", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.RunSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, summary.RunID, got.RunID)
	assert.Equal(t, 4, got.ItemCount)
}

func TestRunPipelineRequiresQueries(t *testing.T) {
	f := newServerFixture(&llm.MockLLMClient{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/pipeline/runs", strings.NewReader(`{"queries": []}`))
	f.server.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunStageValidatesName(t *testing.T) {
	f := newServerFixture(&llm.MockLLMClient{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/pipeline/stages/tasting", nil)
	f.server.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunStageScoringOverHTTP(t *testing.T) {
	mock := &llm.MockLLMClient{}
	f := newServerFixture(mock)

	item := models.NewItem(models.SourceID{Provider: "arxiv", ExternalID: "2401.0001"},
		"Caffeine improves endurance performance", "abstract")
	require.NoError(t, f.items.Create(context.Background(), item))

	payload, _ := json.Marshal(models.ScoreBatchResponse{Scores: []models.ScoreEntry{
		{ItemID: string(item.ID), Relevance: 30, Novelty: 25, Actionability: 15, Urgency: 10},
	}})
	mock.Responses = []string{string(payload)}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/pipeline/stages/scoring", nil)
	f.server.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var result models.StageResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, models.StageScoring, result.Stage)
	assert.Equal(t, 1, result.Succeeded)
}

func TestWriteErrorMapsDomainErrors(t *testing.T) {
	f := newServerFixture(&llm.MockLLMClient{})
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", core.NewNotFoundError("item", "abc"), http.StatusNotFound, apperrors.CodeNotFound},
		{"storage", fmt.Errorf("%w: failed to insert item", core.ErrStorage), http.StatusServiceUnavailable, apperrors.CodeStorageError},
		{"precondition", core.NewPreconditionError("planning", "no validated artifacts"), http.StatusConflict, apperrors.CodePreconditionFailed},
		{"connector", core.NewConnectorError("arxiv", errors.New("timeout")), http.StatusBadGateway, apperrors.CodeConnectorError},
		{"malformed", core.NewMalformedResponseError("scoring", "bad json"), http.StatusBadGateway, apperrors.CodeMalformedResponse},
		{"generative", core.ErrGenerativeCall, http.StatusBadGateway, apperrors.CodeGenerativeCall},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			f.server.writeError(rec, http.StatusInternalServerError, tt.err)
			assert.Equal(t, tt.status, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body["code"])
		})
	}
}

func TestReportEndpoint(t *testing.T) {
	f := newServerFixture(&llm.MockLLMClient{})
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pipeline/report?format=markdown", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "# Pipeline Report")

	rec = httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pipeline/report", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}

func TestWorkbookEndpoint(t *testing.T) {
	f := newServerFixture(&llm.MockLLMClient{})
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/export/workbook", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotZero(t, rec.Body.Len())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "pipeline.xlsx")
}
