package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goscout/adapters/connectors"
	"goscout/adapters/llm"
	"goscout/ai"
	"goscout/domain/core"
	"goscout/internal/testkit"
	"goscout/models"
)

type validationFixture struct {
	svc         *ValidationService
	artifacts   *testkit.InMemoryArtifactRepository
	validations *testkit.InMemoryValidationRepository
	mock        *llm.MockLLMClient
}

func newValidationFixture(t *testing.T, conns ...*testkit.StubConnector) *validationFixture {
	t.Helper()
	registry := connectors.NewRegistry()
	if len(conns) == 0 {
		conns = []*testkit.StubConnector{{
			Provider: "arxiv",
			Items:    []*models.Item{stubItem("2401.9999", "Prior work on the same mechanism")},
		}}
	}
	for _, c := range conns {
		registry.Register(c)
	}
	mock := &llm.MockLLMClient{}
	f := &validationFixture{
		artifacts:   testkit.NewInMemoryArtifactRepository(),
		validations: testkit.NewInMemoryValidationRepository(),
		mock:        mock,
	}
	f.svc = NewValidationService(mock, ai.DefaultProfiles()["validation"], registry,
		f.artifacts, f.validations, testkit.NewInMemoryActivityRepository())
	return f
}

func (f *validationFixture) seedArtifact(t *testing.T) *models.Artifact {
	t.Helper()
	artifact := models.NewArtifact("item-1", "Mechanism X drives outcome Y", "If X is present, Y follows")
	artifact.RequiredEvidence = []string{"replication in a second cohort"}
	require.NoError(t, f.artifacts.Create(context.Background(), artifact))
	return artifact
}

func validationJSON(recommendation string) string {
	payload, _ := json.Marshal(models.ValidationDescriptor{
		SupportingEvidence: []models.Evidence{
			{Source: "arxiv/2401.9999", Summary: "consistent effect", Strength: models.EvidenceModerate},
		},
		ConfidenceLevel: "medium",
		Recommendation:  recommendation,
		Summary:         "evidence summary",
	})
	return string(payload)
}

func TestValidateArtifactPursue(t *testing.T) {
	f := newValidationFixture(t)
	artifact := f.seedArtifact(t)
	f.mock.Responses = []string{validationJSON("pursue")}

	validation, err := f.svc.ValidateArtifact(context.Background(), artifact)
	require.NoError(t, err)
	assert.Equal(t, models.RecommendPursue, validation.Recommendation)

	stored, err := f.artifacts.GetByID(context.Background(), artifact.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ArtifactValidated, stored.Status)

	current, err := f.validations.CurrentForArtifact(context.Background(), artifact.ID)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, validation.ID, current.ID)
}

func TestValidateArtifactReject(t *testing.T) {
	f := newValidationFixture(t)
	artifact := f.seedArtifact(t)
	f.mock.Responses = []string{validationJSON("reject")}

	_, err := f.svc.ValidateArtifact(context.Background(), artifact)
	require.NoError(t, err)

	stored, err := f.artifacts.GetByID(context.Background(), artifact.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ArtifactRejected, stored.Status)
}

func TestValidateArtifactNeedsMoreResearchStaysValidating(t *testing.T) {
	f := newValidationFixture(t)
	artifact := f.seedArtifact(t)
	f.mock.Responses = []string{validationJSON("needs_more_research")}

	_, err := f.svc.ValidateArtifact(context.Background(), artifact)
	require.NoError(t, err)

	stored, err := f.artifacts.GetByID(context.Background(), artifact.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ArtifactValidating, stored.Status)

	// Re-validation appends a second record and keeps the first.
	f.mock.Responses = append(f.mock.Responses, validationJSON("pursue"))
	_, err = f.svc.ValidateArtifact(context.Background(), stored)
	require.NoError(t, err)

	history, err := f.validations.HistoryForArtifact(context.Background(), artifact.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestValidateArtifactGenerativeFailureLeavesStatus(t *testing.T) {
	f := newValidationFixture(t)
	artifact := f.seedArtifact(t)
	f.mock.Err = errors.New("model unavailable")

	_, err := f.svc.ValidateArtifact(context.Background(), artifact)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrGenerativeCall)

	// No verdict was reached: no record, status untouched.
	stored, getErr := f.artifacts.GetByID(context.Background(), artifact.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.ArtifactGenerated, stored.Status)

	current, getErr := f.validations.CurrentForArtifact(context.Background(), artifact.ID)
	require.NoError(t, getErr)
	assert.Nil(t, current)
}

func TestValidateArtifactRetrievalFailureLeavesStatus(t *testing.T) {
	f := newValidationFixture(t, &testkit.StubConnector{Provider: "arxiv", Err: errors.New("down")})
	artifact := f.seedArtifact(t)

	_, err := f.svc.ValidateArtifact(context.Background(), artifact)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrValidationIncomplete)

	stored, getErr := f.artifacts.GetByID(context.Background(), artifact.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.ArtifactGenerated, stored.Status)
}

func TestValidateArtifactAllProvidersFailing(t *testing.T) {
	f := newValidationFixture(t, &testkit.StubConnector{Provider: "arxiv", Err: errors.New("down")})
	artifact := f.seedArtifact(t)

	_, err := f.svc.ValidateArtifact(context.Background(), artifact)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrValidationIncomplete)
	assert.Zero(t, f.mock.Calls)
}

func TestValidateArtifactToleratesOneProviderFailing(t *testing.T) {
	good := &testkit.StubConnector{
		Provider: "arxiv",
		Items:    []*models.Item{stubItem("2401.9999", "Prior work on the same mechanism")},
	}
	bad := &testkit.StubConnector{Provider: "crossref", Err: errors.New("down")}
	f := newValidationFixture(t, good, bad)
	artifact := f.seedArtifact(t)
	f.mock.Responses = []string{validationJSON("pursue")}

	_, err := f.svc.ValidateArtifact(context.Background(), artifact)
	require.NoError(t, err)
}

func TestValidateArtifactRejectsUnknownRecommendation(t *testing.T) {
	f := newValidationFixture(t)
	artifact := f.seedArtifact(t)
	f.mock.Responses = []string{validationJSON("maybe")}

	_, err := f.svc.ValidateArtifact(context.Background(), artifact)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMalformedResponse)
}

func TestValidateArtifactRefusesPlannedArtifact(t *testing.T) {
	f := newValidationFixture(t)
	artifact := models.NewArtifact("item-1", "done", "done")
	artifact.Status = models.ArtifactPlanned
	require.NoError(t, f.artifacts.Create(context.Background(), artifact))

	_, err := f.svc.ValidateArtifact(context.Background(), artifact)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrStatusRegression)
}
