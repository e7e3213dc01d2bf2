package models

import (
	"fmt"
	"time"

	"goscout/domain/core"
)

// EvidenceStrength grades a single piece of retrieved evidence.
type EvidenceStrength string

const (
	EvidenceStrong   EvidenceStrength = "strong"
	EvidenceModerate EvidenceStrength = "moderate"
	EvidenceWeak     EvidenceStrength = "weak"
)

// Evidence is one supporting or contradicting finding from retrieval.
type Evidence struct {
	Source   string           `json:"source"`
	Summary  string           `json:"summary"`
	Strength EvidenceStrength `json:"strength"`
}

// ConfidenceLevel grades the overall evidence base.
type ConfidenceLevel string

const (
	ConfidenceHigh         ConfidenceLevel = "high"
	ConfidenceMedium       ConfidenceLevel = "medium"
	ConfidenceLow          ConfidenceLevel = "low"
	ConfidenceInsufficient ConfidenceLevel = "insufficient"
)

// Recommendation is the validation stage's verdict on an artifact.
type Recommendation string

const (
	RecommendPursue    Recommendation = "pursue"
	RecommendModify    Recommendation = "modify"
	RecommendReject    Recommendation = "reject"
	RecommendMoreWork  Recommendation = "needs_more_research"
)

// Valid reports whether r is a known recommendation value.
func (r Recommendation) Valid() bool {
	switch r {
	case RecommendPursue, RecommendModify, RecommendReject, RecommendMoreWork:
		return true
	}
	return false
}

// ArtifactStatusFor maps a recommendation onto the owning artifact's next
// status. Total over the four enum values; anything else is an error.
func (r Recommendation) ArtifactStatusFor() (ArtifactStatus, error) {
	switch r {
	case RecommendPursue, RecommendModify:
		return ArtifactValidated, nil
	case RecommendReject:
		return ArtifactRejected, nil
	case RecommendMoreWork:
		return ArtifactValidating, nil
	default:
		return "", fmt.Errorf("%w: recommendation %q", core.ErrUnknownStatus, r)
	}
}

// Eligible reports whether an artifact with this recommendation may proceed
// to planning.
func (r Recommendation) Eligible() bool {
	return r == RecommendPursue || r == RecommendModify
}

// Validation is the evidence-gathering outcome for one artifact. Re-validation
// appends a new record; the newest is "current", history is retained.
type Validation struct {
	ID                    core.ValidationID   `json:"id" db:"id"`
	ArtifactID            core.ArtifactID     `json:"artifact_id" db:"artifact_id"`
	SupportingEvidence    JSONBList[Evidence] `json:"supporting_evidence" db:"supporting_evidence"`
	ContradictingEvidence JSONBList[Evidence] `json:"contradicting_evidence" db:"contradicting_evidence"`
	Gaps                  JSONBList[string]   `json:"gaps" db:"gaps"`
	KeyReferences         JSONBList[string]   `json:"key_references" db:"key_references"`
	ConfidenceLevel       ConfidenceLevel     `json:"confidence_level" db:"confidence_level"`
	Recommendation        Recommendation      `json:"recommendation" db:"recommendation"`
	Summary               string              `json:"summary" db:"summary"`
	CreatedAt             time.Time           `json:"created_at" db:"created_at"`
}

// NewValidation constructs a validation record for an artifact.
func NewValidation(artifactID core.ArtifactID) *Validation {
	return &Validation{
		ID:         core.ValidationID(core.NewID()),
		ArtifactID: artifactID,
		CreatedAt:  time.Now().UTC(),
	}
}
