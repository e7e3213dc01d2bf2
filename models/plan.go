package models

import (
	"time"

	"goscout/domain/core"
)

// PlanStatus is the lifecycle state of a plan.
type PlanStatus string

const (
	PlanDrafted        PlanStatus = "drafted"
	PlanApproved       PlanStatus = "approved"
	PlanRevisionNeeded PlanStatus = "revision_needed"
	PlanPaused         PlanStatus = "paused"
	PlanRejected       PlanStatus = "rejected"
)

// PlanOutputKind classifies what a plan is expected to produce.
type PlanOutputKind string

const (
	OutputPublication PlanOutputKind = "publication"
	OutputPrototype   PlanOutputKind = "prototype"
	OutputDataset     PlanOutputKind = "dataset"
	OutputReport      PlanOutputKind = "report"
)

// Milestone is one dated deliverable inside a plan.
type Milestone struct {
	Name             string `json:"name"`
	Deliverable      string `json:"deliverable"`
	TargetOffsetDays int    `json:"target_offset_days"`
}

// Resource is one required input for executing a plan.
type Resource struct {
	Kind          string  `json:"kind"`
	Description   string  `json:"description"`
	EstimatedCost float64 `json:"estimated_cost"`
}

// Plan is an actionable project derived from a validated artifact.
type Plan struct {
	ID            core.PlanID          `json:"id" db:"id"`
	ArtifactID    core.ArtifactID      `json:"artifact_id" db:"artifact_id"`
	Title         string               `json:"title" db:"title"`
	Objective     string               `json:"objective" db:"objective"`
	Methodology   string               `json:"methodology" db:"methodology"`
	Milestones    JSONBList[Milestone] `json:"milestones" db:"milestones"`
	Resources     JSONBList[Resource]  `json:"resources" db:"resources"`
	TimelineUnits string               `json:"timeline_units" db:"timeline_units"`
	EstimatedCost float64              `json:"estimated_cost" db:"estimated_cost"`
	OutputKind    PlanOutputKind       `json:"output_kind" db:"output_kind"`
	Feasibility   float64              `json:"feasibility" db:"feasibility"`
	RiskNotes     string               `json:"risk_notes" db:"risk_notes"`
	Status        PlanStatus           `json:"status" db:"status"`
	CreatedAt     time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at" db:"updated_at"`
}

// NewPlan constructs a plan in the drafted state.
func NewPlan(artifactID core.ArtifactID, title string) *Plan {
	now := time.Now().UTC()
	return &Plan{
		ID:         core.PlanID(core.NewID()),
		ArtifactID: artifactID,
		Title:      title,
		Status:     PlanDrafted,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
