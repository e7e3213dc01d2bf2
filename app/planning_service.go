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

// PlanningService turns validated artifacts into drafted project plans. The
// precondition is strict: the artifact must be validated and its current
// validation must carry a pursue or modify recommendation.
type PlanningService struct {
	client      *ai.StructuredClient[models.PlanDescriptor]
	profile     ai.StageProfile
	artifacts   ports.ArtifactRepository
	validations ports.ValidationRepository
	plans       ports.PlanRepository
	activities  ports.ActivityRepository
	ventures    []string
}

// NewPlanningService creates a planning service.
func NewPlanningService(llm ports.LLMClient, profile ai.StageProfile, artifacts ports.ArtifactRepository, validations ports.ValidationRepository, plans ports.PlanRepository, activities ports.ActivityRepository, ventures []string) *PlanningService {
	return &PlanningService{
		client:      ai.NewStructuredClient[models.PlanDescriptor](llm, "planning", profile),
		profile:     profile,
		artifacts:   artifacts,
		validations: validations,
		plans:       plans,
		activities:  activities,
		ventures:    ventures,
	}
}

// PlanForArtifact drafts a plan for one validated artifact and moves the
// artifact to planned.
func (s *PlanningService) PlanForArtifact(ctx context.Context, artifact *models.Artifact) (*models.Plan, error) {
	if artifact.Status != models.ArtifactValidated {
		return nil, core.NewPreconditionError("planning", fmt.Sprintf("artifact %s is %s, planning requires validated", artifact.ID, artifact.Status))
	}
	validation, err := s.validations.CurrentForArtifact(ctx, artifact.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load current validation: %w", err)
	}
	if validation == nil {
		return nil, core.NewPreconditionError("planning", fmt.Sprintf("artifact %s has no validation record", artifact.ID))
	}
	if !validation.Recommendation.Eligible() {
		return nil, core.NewPreconditionError("planning", fmt.Sprintf("recommendation %s does not permit planning", validation.Recommendation))
	}

	prompt := ai.BuildPlanningPrompt(s.profile, artifact, validation, s.ventures)
	response, err := s.client.GetJSONResponse(ctx, prompt)
	if err != nil {
		return nil, err
	}
	if response.Title == "" || response.Objective == "" {
		return nil, fmt.Errorf("%w: plan descriptor missing title or objective for artifact %s", core.ErrMalformedResponse, artifact.ID)
	}

	plan := models.NewPlan(artifact.ID, response.Title)
	plan.Objective = response.Objective
	plan.Methodology = response.Methodology
	plan.Milestones = response.Milestones
	plan.Resources = response.Resources
	plan.TimelineUnits = response.TimelineUnits
	plan.EstimatedCost = response.EstimatedCost
	plan.OutputKind = models.PlanOutputKind(response.OutputKind)
	plan.Feasibility = clamp01(response.Feasibility)
	plan.RiskNotes = response.RiskNotes

	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to store plan: %w", err)
	}

	if err := artifact.TransitionTo(models.ArtifactPlanned); err != nil {
		return nil, err
	}
	if err := s.artifacts.UpdateStatus(ctx, artifact.ID, models.ArtifactPlanned); err != nil {
		return nil, fmt.Errorf("failed to mark artifact planned: %w", err)
	}

	activity := models.NewActivity("planning", "plan_drafted", "plan", core.ID(plan.ID),
		fmt.Sprintf("drafted %q for artifact %s", plan.Title, artifact.ID))
	if err := s.activities.Append(ctx, activity); err != nil {
		log.Printf("[Planning] failed to record activity: %v", err)
	}

	log.Printf("[Planning] artifact %s: plan %s drafted", artifact.ID, plan.ID)
	return plan, nil
}
