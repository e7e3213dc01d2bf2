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

// CritiqueService runs a drafted plan through adversarial review and applies
// the disposition to the plan's status.
type CritiqueService struct {
	client     *ai.StructuredClient[models.CritiqueDescriptor]
	profile    ai.StageProfile
	artifacts  ports.ArtifactRepository
	plans      ports.PlanRepository
	critiques  ports.CritiqueRepository
	activities ports.ActivityRepository
}

// NewCritiqueService creates a critique service.
func NewCritiqueService(llm ports.LLMClient, profile ai.StageProfile, artifacts ports.ArtifactRepository, plans ports.PlanRepository, critiques ports.CritiqueRepository, activities ports.ActivityRepository) *CritiqueService {
	return &CritiqueService{
		client:     ai.NewStructuredClient[models.CritiqueDescriptor](llm, "critique", profile),
		profile:    profile,
		artifacts:  artifacts,
		plans:      plans,
		critiques:  critiques,
		activities: activities,
	}
}

// CritiquePlan reviews one plan. The critique record always persists; the
// plan's status follows the disposition mapping.
func (s *CritiqueService) CritiquePlan(ctx context.Context, plan *models.Plan) (*models.Critique, error) {
	artifact, err := s.artifacts.GetByID(ctx, plan.ArtifactID)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan's artifact: %w", err)
	}

	prompt := ai.BuildCritiquePrompt(s.profile, plan, artifact)
	response, err := s.client.GetJSONResponse(ctx, prompt)
	if err != nil {
		return nil, err
	}

	disposition := models.Disposition(response.Disposition)
	if !disposition.Valid() {
		return nil, fmt.Errorf("%w: unknown disposition %q for plan %s", core.ErrMalformedResponse, response.Disposition, plan.ID)
	}

	critique := models.NewCritique(plan.ID)
	critique.OpenQuestions = response.OpenQuestions
	critique.Weaknesses = response.Weaknesses
	critique.Risks = response.Risks
	critique.CompetitiveNotes = response.CompetitiveNotes
	critique.ComplianceNotes = response.ComplianceNotes
	critique.Mitigations = response.Mitigations
	critique.Disposition = disposition

	if err := s.critiques.Create(ctx, critique); err != nil {
		return nil, fmt.Errorf("failed to store critique: %w", err)
	}

	next, err := disposition.PlanStatusFor()
	if err != nil {
		return nil, err
	}
	if err := s.plans.UpdateStatus(ctx, plan.ID, next); err != nil {
		return nil, fmt.Errorf("failed to persist plan status: %w", err)
	}

	activity := models.NewActivity("critique", "plan_reviewed", "plan", core.ID(plan.ID),
		fmt.Sprintf("disposition %s, %d weaknesses", disposition, len(critique.Weaknesses)))
	if err := s.activities.Append(ctx, activity); err != nil {
		log.Printf("[Critique] failed to record activity: %v", err)
	}

	log.Printf("[Critique] plan %s: disposition=%s", plan.ID, disposition)
	return critique, nil
}
