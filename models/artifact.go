package models

import (
	"fmt"
	"time"

	"goscout/domain/core"
)

// ArtifactStatus is the lifecycle state of an artifact. Transitions are
// monotonic: generated -> validating -> validated|rejected -> planned.
type ArtifactStatus string

const (
	ArtifactGenerated  ArtifactStatus = "generated"
	ArtifactValidating ArtifactStatus = "validating"
	ArtifactValidated  ArtifactStatus = "validated"
	ArtifactRejected   ArtifactStatus = "rejected"
	ArtifactPlanned    ArtifactStatus = "planned"
)

// artifactStatusRank orders statuses for monotonicity checks. Validated and
// rejected share a rank: they are alternative outcomes of the same step.
var artifactStatusRank = map[ArtifactStatus]int{
	ArtifactGenerated:  0,
	ArtifactValidating: 1,
	ArtifactValidated:  2,
	ArtifactRejected:   2,
	ArtifactPlanned:    3,
}

// Valid reports whether s is a known status value.
func (s ArtifactStatus) Valid() bool {
	_, ok := artifactStatusRank[s]
	return ok
}

// CanTransitionTo enforces the monotonic status order. Staying put is allowed;
// moving between the terminal siblings validated/rejected is not.
func (s ArtifactStatus) CanTransitionTo(next ArtifactStatus) error {
	from, ok := artifactStatusRank[s]
	if !ok {
		return fmt.Errorf("%w: %q", core.ErrUnknownStatus, s)
	}
	to, ok := artifactStatusRank[next]
	if !ok {
		return fmt.Errorf("%w: %q", core.ErrUnknownStatus, next)
	}
	if to < from {
		return fmt.Errorf("%w: %s -> %s", core.ErrStatusRegression, s, next)
	}
	if to == from && s != next {
		return fmt.Errorf("%w: %s -> %s", core.ErrStatusRegression, s, next)
	}
	if s == ArtifactRejected && next == ArtifactPlanned {
		return fmt.Errorf("%w: rejected artifacts cannot be planned", core.ErrStatusRegression)
	}
	return nil
}

// Artifact is a structured, falsifiable claim derived from one item.
type Artifact struct {
	ID               core.ArtifactID     `json:"id" db:"id"`
	ItemID           core.ItemID         `json:"item_id" db:"item_id"`
	Title            string              `json:"title" db:"title"`
	Statement        string              `json:"statement" db:"statement"`
	Rationale        string              `json:"rationale" db:"rationale"`
	Assumptions      JSONBList[string]   `json:"assumptions" db:"assumptions"`
	Predictions      JSONBList[string]   `json:"predictions" db:"predictions"`
	RequiredEvidence JSONBList[string]   `json:"required_evidence" db:"required_evidence"`
	Confidence       float64             `json:"confidence" db:"confidence"`
	Status           ArtifactStatus      `json:"status" db:"status"`
	CreatedAt        time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at" db:"updated_at"`
}

// NewArtifact constructs an artifact in the generated state.
func NewArtifact(itemID core.ItemID, title, statement string) *Artifact {
	now := time.Now().UTC()
	return &Artifact{
		ID:        core.ArtifactID(core.NewID()),
		ItemID:    itemID,
		Title:     title,
		Statement: statement,
		Status:    ArtifactGenerated,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TransitionTo moves the artifact to next after checking monotonicity.
func (a *Artifact) TransitionTo(next ArtifactStatus) error {
	if err := a.Status.CanTransitionTo(next); err != nil {
		return err
	}
	a.Status = next
	a.UpdatedAt = time.Now().UTC()
	return nil
}
