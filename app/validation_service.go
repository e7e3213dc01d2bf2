package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"goscout/adapters/connectors"
	"goscout/ai"
	"goscout/domain/core"
	"goscout/models"
	"goscout/ports"
)

const (
	maxEvidenceQueries       = 3
	maxEvidencePerQuery      = 5
	maxEvidenceItemsInPrompt = 10
)

// ValidationService gathers external evidence for an artifact and asks for a
// verdict. Retrieval is partial-tolerant: one provider answering is enough.
// If retrieval or the generative call fails, the artifact's status is left
// unchanged so a later run can retry from the same state.
type ValidationService struct {
	client      *ai.StructuredClient[models.ValidationDescriptor]
	profile     ai.StageProfile
	registry    *connectors.Registry
	artifacts   ports.ArtifactRepository
	validations ports.ValidationRepository
	activities  ports.ActivityRepository
}

// NewValidationService creates a validation service.
func NewValidationService(llm ports.LLMClient, profile ai.StageProfile, registry *connectors.Registry, artifacts ports.ArtifactRepository, validations ports.ValidationRepository, activities ports.ActivityRepository) *ValidationService {
	return &ValidationService{
		client:      ai.NewStructuredClient[models.ValidationDescriptor](llm, "validation", profile),
		profile:     profile,
		registry:    registry,
		artifacts:   artifacts,
		validations: validations,
		activities:  activities,
	}
}

// ValidateArtifact runs one artifact through evidence retrieval and verdict.
// On success the validation record is persisted and the artifact's status
// follows the recommendation mapping.
func (s *ValidationService) ValidateArtifact(ctx context.Context, artifact *models.Artifact) (*models.Validation, error) {
	if err := artifact.Status.CanTransitionTo(models.ArtifactValidating); err != nil {
		return nil, err
	}

	evidence, err := s.gatherEvidence(ctx, artifact)
	if err != nil {
		return nil, err
	}

	prompt := ai.BuildValidationPrompt(s.profile, artifact, evidence)
	response, err := s.client.GetJSONResponse(ctx, prompt)
	if err != nil {
		return nil, err
	}

	recommendation := models.Recommendation(response.Recommendation)
	if !recommendation.Valid() {
		return nil, fmt.Errorf("%w: unknown recommendation %q for artifact %s", core.ErrMalformedResponse, response.Recommendation, artifact.ID)
	}

	validation := models.NewValidation(artifact.ID)
	validation.SupportingEvidence = response.SupportingEvidence
	validation.ContradictingEvidence = response.ContradictingEvidence
	validation.Gaps = response.Gaps
	validation.KeyReferences = response.KeyReferences
	validation.ConfidenceLevel = models.ConfidenceLevel(response.ConfidenceLevel)
	validation.Recommendation = recommendation
	validation.Summary = response.Summary

	if err := s.validations.Create(ctx, validation); err != nil {
		return nil, fmt.Errorf("failed to store validation: %w", err)
	}

	next, err := recommendation.ArtifactStatusFor()
	if err != nil {
		return nil, err
	}
	if next != artifact.Status {
		if err := artifact.TransitionTo(next); err != nil {
			return nil, err
		}
		if err := s.artifacts.UpdateStatus(ctx, artifact.ID, next); err != nil {
			return nil, fmt.Errorf("failed to persist artifact status: %w", err)
		}
	}

	activity := models.NewActivity("validation", "artifact_validated", "artifact", core.ID(artifact.ID),
		fmt.Sprintf("recommendation %s, confidence %s", recommendation, validation.ConfidenceLevel))
	if err := s.activities.Append(ctx, activity); err != nil {
		log.Printf("[Validation] failed to record activity: %v", err)
	}

	log.Printf("[Validation] artifact %s: recommendation=%s evidence=%d", artifact.ID, recommendation, len(evidence))
	return validation, nil
}

// gatherEvidence derives bounded queries from the artifact and fans them
// across all registered connectors. Individual provider failures are
// tolerated; every provider failing yields ErrValidationIncomplete.
func (s *ValidationService) gatherEvidence(ctx context.Context, artifact *models.Artifact) ([]*models.Item, error) {
	queries := deriveQueries(artifact)
	conns := s.registry.All()
	if len(conns) == 0 {
		return nil, fmt.Errorf("%w: no connectors registered", core.ErrValidationIncomplete)
	}

	var evidence []*models.Item
	failures := 0
	attempts := 0
	for _, conn := range conns {
		for _, query := range queries {
			attempts++
			items, err := conn.Search(ctx, query, ports.SearchOptions{MaxResults: maxEvidencePerQuery})
			if err != nil {
				log.Printf("[Validation] evidence query %q on %s failed: %v", query, conn.Name(), err)
				failures++
				continue
			}
			evidence = append(evidence, items...)
		}
	}
	if failures == attempts {
		return nil, fmt.Errorf("%w: all %d evidence queries failed for artifact %s", core.ErrValidationIncomplete, attempts, artifact.ID)
	}
	if len(evidence) > maxEvidenceItemsInPrompt {
		evidence = evidence[:maxEvidenceItemsInPrompt]
	}
	return evidence, nil
}

// deriveQueries picks up to maxEvidenceQueries search strings from the
// artifact: its title first, then required-evidence entries.
func deriveQueries(artifact *models.Artifact) []string {
	queries := []string{artifact.Title}
	for _, req := range artifact.RequiredEvidence {
		if len(queries) == maxEvidenceQueries {
			break
		}
		req = strings.TrimSpace(req)
		if req != "" {
			queries = append(queries, req)
		}
	}
	return queries
}
