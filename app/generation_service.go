package app

import (
	"context"
	"fmt"
	"log"

	"goscout/ai"
	"goscout/domain/core"
	"goscout/models"
	"goscout/ports"
)

// maxArtifactsPerItem caps how many artifacts one item may yield.
const maxArtifactsPerItem = 3

// GenerationService derives structured artifacts from scored items. A
// descriptor missing its required fields is dropped with a warning rather
// than failing the item; an item may validly yield zero artifacts.
type GenerationService struct {
	client     *ai.StructuredClient[models.GenerationResponse]
	profile    ai.StageProfile
	artifacts  ports.ArtifactRepository
	activities ports.ActivityRepository
}

// NewGenerationService creates a generation service.
func NewGenerationService(llm ports.LLMClient, profile ai.StageProfile, artifacts ports.ArtifactRepository, activities ports.ActivityRepository) *GenerationService {
	return &GenerationService{
		client:     ai.NewStructuredClient[models.GenerationResponse](llm, "generation", profile),
		profile:    profile,
		artifacts:  artifacts,
		activities: activities,
	}
}

// GenerateForItem produces and persists artifacts for one item. It does not
// touch the item's processed flag; the caller owns that checkpoint.
func (s *GenerationService) GenerateForItem(ctx context.Context, item *models.Item) ([]*models.Artifact, error) {
	prompt := ai.BuildGenerationPrompt(s.profile, item)
	response, err := s.client.GetJSONResponse(ctx, prompt)
	if err != nil {
		return nil, err
	}

	descriptors := response.Artifacts
	if len(descriptors) > maxArtifactsPerItem {
		log.Printf("[Generation] item %s returned %d descriptors, keeping first %d", item.ID, len(descriptors), maxArtifactsPerItem)
		descriptors = descriptors[:maxArtifactsPerItem]
	}

	var created []*models.Artifact
	for _, desc := range descriptors {
		if !desc.Usable() {
			log.Printf("[Generation] dropping unusable descriptor for item %s (missing title or statement)", item.ID)
			continue
		}
		artifact := models.NewArtifact(item.ID, desc.Title, desc.Statement)
		artifact.Rationale = desc.Rationale
		artifact.Assumptions = desc.Assumptions
		artifact.Predictions = desc.Predictions
		artifact.RequiredEvidence = desc.RequiredEvidence
		artifact.Confidence = clamp01(desc.Confidence)

		if err := s.artifacts.Create(ctx, artifact); err != nil {
			return created, fmt.Errorf("failed to store artifact: %w", err)
		}
		created = append(created, artifact)

		activity := models.NewActivity("generation", "artifact_created", "artifact", core.ID(artifact.ID),
			fmt.Sprintf("derived %q from item %s", artifact.Title, item.ID))
		if err := s.activities.Append(ctx, activity); err != nil {
			log.Printf("[Generation] failed to record activity: %v", err)
		}
	}

	if len(created) == 0 {
		log.Printf("[Generation] item %s yielded no usable descriptors", item.ID)
	}
	return created, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
