package models

import (
	"time"

	"goscout/domain/core"
)

// StageName identifies one pipeline stage.
type StageName string

const (
	StageDiscovery  StageName = "discovery"
	StageScoring    StageName = "scoring"
	StageGeneration StageName = "generation"
	StageValidation StageName = "validation"
	StagePlanning   StageName = "planning"
	StageCritique   StageName = "critique"
)

// Valid reports whether s names a known stage.
func (s StageName) Valid() bool {
	switch s {
	case StageDiscovery, StageScoring, StageGeneration, StageValidation, StagePlanning, StageCritique:
		return true
	}
	return false
}

// StageOrder is the strict sequence a full run executes.
var StageOrder = []StageName{
	StageDiscovery,
	StageScoring,
	StageGeneration,
	StageValidation,
	StagePlanning,
	StageCritique,
}

// RunFailure records one contained unit-level failure inside a run.
type RunFailure struct {
	Stage    StageName `json:"stage"`
	EntityID string    `json:"entity_id"`
	Reason   string    `json:"reason"`
}

// ScoredCounts breaks item counts down by bucket.
type ScoredCounts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// RunSummary is the durable outcome of one full pipeline run.
type RunSummary struct {
	RunID           core.RunID   `json:"run_id"`
	ItemCount       int          `json:"item_count"`
	ScoredCounts    ScoredCounts `json:"scored_counts"`
	ArtifactCount   int          `json:"artifact_count"`
	ValidatedCount  int          `json:"validated_count"`
	PursuedCount    int          `json:"pursued_count"`
	PlanCount       int          `json:"plan_count"`
	CritiqueCount   int          `json:"critique_count"`
	Failures        []RunFailure `json:"failures"`
	StartedAt       time.Time    `json:"started_at"`
	DurationSeconds float64      `json:"duration_seconds"`
}

// NewRunSummary starts an empty summary for a fresh run.
func NewRunSummary() *RunSummary {
	return &RunSummary{
		RunID:     core.RunID(core.NewID()),
		Failures:  []RunFailure{},
		StartedAt: time.Now().UTC(),
	}
}

// RecordFailure appends a contained failure to the summary.
func (s *RunSummary) RecordFailure(stage StageName, entityID string, err error) {
	s.Failures = append(s.Failures, RunFailure{
		Stage:    stage,
		EntityID: entityID,
		Reason:   err.Error(),
	})
}

// StageResult is the outcome of one independently invoked stage.
type StageResult struct {
	Stage     StageName    `json:"stage"`
	Processed int          `json:"processed"`
	Succeeded int          `json:"succeeded"`
	Failures  []RunFailure `json:"failures"`
}
