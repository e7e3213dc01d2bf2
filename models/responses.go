package models

import "strings"

// Typed shapes for the structured JSON the generative model is asked to
// return, one per stage. The validation helpers reject partially populated
// responses before anything is persisted.

// ScoreEntry is one per-item score inside a batch scoring response.
type ScoreEntry struct {
	ItemID        string `json:"item_id"`
	Relevance     int    `json:"relevance"`
	Novelty       int    `json:"novelty"`
	Actionability int    `json:"actionability"`
	Urgency       int    `json:"urgency"`
}

// ScoreBatchResponse is the scoring stage's expected model output.
type ScoreBatchResponse struct {
	Scores []ScoreEntry `json:"scores"`
}

// ArtifactDescriptor is one candidate artifact in a generation response.
type ArtifactDescriptor struct {
	Title            string   `json:"title"`
	Statement        string   `json:"statement"`
	Rationale        string   `json:"rationale"`
	Assumptions      []string `json:"assumptions"`
	Predictions      []string `json:"predictions"`
	RequiredEvidence []string `json:"required_evidence"`
	Confidence       float64  `json:"confidence"`
}

// Usable reports whether the descriptor carries the required fields.
// Descriptors failing this are dropped, not fatal.
func (d ArtifactDescriptor) Usable() bool {
	return strings.TrimSpace(d.Title) != "" && strings.TrimSpace(d.Statement) != ""
}

// GenerationResponse is the generation stage's expected model output.
type GenerationResponse struct {
	Artifacts []ArtifactDescriptor `json:"artifacts"`
}

// ValidationDescriptor is the validation stage's expected model output.
type ValidationDescriptor struct {
	SupportingEvidence    []Evidence `json:"supporting_evidence"`
	ContradictingEvidence []Evidence `json:"contradicting_evidence"`
	Gaps                  []string   `json:"gaps"`
	KeyReferences         []string   `json:"key_references"`
	ConfidenceLevel       string     `json:"confidence_level"`
	Recommendation        string     `json:"recommendation"`
	Summary               string     `json:"summary"`
}

// PlanDescriptor is the planning stage's expected model output.
type PlanDescriptor struct {
	Title         string      `json:"title"`
	Objective     string      `json:"objective"`
	Methodology   string      `json:"methodology"`
	Milestones    []Milestone `json:"milestones"`
	Resources     []Resource  `json:"resources"`
	TimelineUnits string      `json:"timeline_units"`
	EstimatedCost float64     `json:"estimated_cost"`
	OutputKind    string      `json:"output_kind"`
	Feasibility   float64     `json:"feasibility"`
	RiskNotes     string      `json:"risk_notes"`
}

// CritiqueDescriptor is the critique stage's expected model output.
type CritiqueDescriptor struct {
	OpenQuestions    []string   `json:"open_questions"`
	Weaknesses       []Weakness `json:"weaknesses"`
	Risks            []Risk     `json:"risks"`
	CompetitiveNotes string     `json:"competitive_notes"`
	ComplianceNotes  string     `json:"compliance_notes"`
	Mitigations      []string   `json:"mitigations"`
	Disposition      string     `json:"disposition"`
}
