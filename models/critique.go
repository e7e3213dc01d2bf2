package models

import (
	"fmt"
	"time"

	"goscout/domain/core"
)

// Disposition is the critique stage's verdict on a plan.
type Disposition string

const (
	DispositionProceed Disposition = "proceed"
	DispositionRevise  Disposition = "revise"
	DispositionPause   Disposition = "pause"
	DispositionAbandon Disposition = "abandon"
)

// Valid reports whether d is a known disposition value.
func (d Disposition) Valid() bool {
	switch d {
	case DispositionProceed, DispositionRevise, DispositionPause, DispositionAbandon:
		return true
	}
	return false
}

// PlanStatusFor maps a disposition onto the reviewed plan's next status.
// Total over the four enum values; an out-of-enum value fails fast.
func (d Disposition) PlanStatusFor() (PlanStatus, error) {
	switch d {
	case DispositionProceed:
		return PlanApproved, nil
	case DispositionRevise:
		return PlanRevisionNeeded, nil
	case DispositionPause:
		return PlanPaused, nil
	case DispositionAbandon:
		return PlanRejected, nil
	default:
		return "", fmt.Errorf("%w: disposition %q", core.ErrUnknownStatus, d)
	}
}

// WeaknessSeverity grades a single identified weakness.
type WeaknessSeverity string

const (
	SeverityCritical WeaknessSeverity = "critical"
	SeverityMajor    WeaknessSeverity = "major"
	SeverityMinor    WeaknessSeverity = "minor"
)

// Weakness is one flaw found during adversarial review.
type Weakness struct {
	Area     string           `json:"area"`
	Issue    string           `json:"issue"`
	Severity WeaknessSeverity `json:"severity"`
}

// Risk is one identified threat with its mitigation.
type Risk struct {
	Risk       string `json:"risk"`
	Likelihood string `json:"likelihood"`
	Impact     string `json:"impact"`
	Mitigation string `json:"mitigation"`
}

// Critique is an adversarial review of exactly one plan. Re-review appends a
// new record, like Validation.
type Critique struct {
	ID               core.CritiqueID     `json:"id" db:"id"`
	PlanID           core.PlanID         `json:"plan_id" db:"plan_id"`
	OpenQuestions    JSONBList[string]   `json:"open_questions" db:"open_questions"`
	Weaknesses       JSONBList[Weakness] `json:"weaknesses" db:"weaknesses"`
	Risks            JSONBList[Risk]     `json:"risks" db:"risks"`
	CompetitiveNotes string              `json:"competitive_notes" db:"competitive_notes"`
	ComplianceNotes  string              `json:"compliance_notes" db:"compliance_notes"`
	Mitigations      JSONBList[string]   `json:"mitigations" db:"mitigations"`
	Disposition      Disposition         `json:"disposition" db:"disposition"`
	CreatedAt        time.Time           `json:"created_at" db:"created_at"`
}

// NewCritique constructs a critique record for a plan.
func NewCritique(planID core.PlanID) *Critique {
	return &Critique{
		ID:        core.CritiqueID(core.NewID()),
		PlanID:    planID,
		CreatedAt: time.Now().UTC(),
	}
}
