package ai

import (
	"fmt"
	"strings"

	"goscout/models"
)

// Prompt builders for each stage. Schemas are spelled out inline so the model
// sees exactly the shape the structured client will decode.

const maxBodyChars = 1500

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// BuildScoringPrompt asks for one score entry per item in a single batch call.
func BuildScoringPrompt(profile StageProfile, items []*models.Item) string {
	var b strings.Builder
	b.WriteString("Score each of the following discovered items for pipeline priority.\n")
	b.WriteString("Components and ranges: relevance 0-30, novelty 0-25, actionability 0-25, urgency 0-20.\n")
	if profile.Guidance != "" {
		b.WriteString("Guidance: " + profile.Guidance + "\n")
	}
	b.WriteString("\nItems:\n")
	for _, item := range items {
		fmt.Fprintf(&b, "- item_id: %s\n  title: %s\n  abstract: %s\n",
			item.ID, item.Title, truncate(item.Body, maxBodyChars))
	}
	b.WriteString(`
Return JSON exactly of the form:
{"scores": [{"item_id": "...", "relevance": 0, "novelty": 0, "actionability": 0, "urgency": 0}]}
Include one entry per item, using the item_id values given above.`)
	return b.String()
}

// BuildGenerationPrompt asks for 1-3 candidate artifacts from one item.
func BuildGenerationPrompt(profile StageProfile, item *models.Item) string {
	var b strings.Builder
	b.WriteString("Derive 1 to 3 falsifiable research hypotheses from this item.\n")
	if profile.Guidance != "" {
		b.WriteString("Guidance: " + profile.Guidance + "\n")
	}
	fmt.Fprintf(&b, "\nTitle: %s\nAbstract: %s\n", item.Title, truncate(item.Body, maxBodyChars))
	if len(item.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(item.Tags, ", "))
	}
	b.WriteString(`
Return JSON exactly of the form:
{"artifacts": [{"title": "...", "statement": "...", "rationale": "...",
"assumptions": ["..."], "predictions": ["..."], "required_evidence": ["..."],
"confidence": 0.0}]}
title and statement are required for every entry. confidence is 0.0-1.0.`)
	return b.String()
}

// BuildValidationPrompt combines one artifact with retrieved evidence
// summaries and asks for a verdict.
func BuildValidationPrompt(profile StageProfile, artifact *models.Artifact, evidence []*models.Item) string {
	var b strings.Builder
	b.WriteString("Assess this hypothesis against the retrieved evidence.\n")
	if profile.Guidance != "" {
		b.WriteString("Guidance: " + profile.Guidance + "\n")
	}
	fmt.Fprintf(&b, "\nHypothesis: %s\nStatement: %s\nRationale: %s\n",
		artifact.Title, artifact.Statement, artifact.Rationale)
	if len(artifact.Assumptions) > 0 {
		fmt.Fprintf(&b, "Assumptions: %s\n", strings.Join(artifact.Assumptions, "; "))
	}
	b.WriteString("\nRetrieved evidence:\n")
	if len(evidence) == 0 {
		b.WriteString("(no evidence retrieved; grade confidence accordingly)\n")
	}
	for _, item := range evidence {
		fmt.Fprintf(&b, "- [%s/%s] %s: %s\n",
			item.Source.Provider, item.Source.ExternalID, item.Title, truncate(item.Body, 600))
	}
	b.WriteString(`
Return JSON exactly of the form:
{"supporting_evidence": [{"source": "...", "summary": "...", "strength": "strong|moderate|weak"}],
"contradicting_evidence": [...same shape...],
"gaps": ["..."], "key_references": ["provider/external_id"],
"confidence_level": "high|medium|low|insufficient",
"recommendation": "pursue|modify|reject|needs_more_research",
"summary": "..."}`)
	return b.String()
}

// BuildPlanningPrompt combines a validated artifact, its validation gaps, and
// the organization's work-streams.
func BuildPlanningPrompt(profile StageProfile, artifact *models.Artifact, validation *models.Validation, ventures []string) string {
	var b strings.Builder
	b.WriteString("Draft an actionable project plan for this validated hypothesis.\n")
	if profile.Guidance != "" {
		b.WriteString("Guidance: " + profile.Guidance + "\n")
	}
	fmt.Fprintf(&b, "\nHypothesis: %s\nStatement: %s\n", artifact.Title, artifact.Statement)
	fmt.Fprintf(&b, "Validation summary: %s\nRecommendation: %s\n", validation.Summary, validation.Recommendation)
	if len(validation.Gaps) > 0 {
		fmt.Fprintf(&b, "Known gaps to address: %s\n", strings.Join(validation.Gaps, "; "))
	}
	if len(ventures) > 0 {
		fmt.Fprintf(&b, "Target work-streams: %s\n", strings.Join(ventures, ", "))
	}
	b.WriteString(`
Return JSON exactly of the form:
{"title": "...", "objective": "...", "methodology": "...",
"milestones": [{"name": "...", "deliverable": "...", "target_offset_days": 0}],
"resources": [{"kind": "...", "description": "...", "estimated_cost": 0.0}],
"timeline_units": "days|weeks|months", "estimated_cost": 0.0,
"output_kind": "publication|prototype|dataset|report",
"feasibility": 0.0, "risk_notes": "..."}`)
	return b.String()
}

// BuildCritiquePrompt asks for an adversarial review of a plan in light of
// the originating artifact's assumptions.
func BuildCritiquePrompt(profile StageProfile, plan *models.Plan, artifact *models.Artifact) string {
	var b strings.Builder
	b.WriteString("Adversarially review this project plan. Find what will break it.\n")
	if profile.Guidance != "" {
		b.WriteString("Guidance: " + profile.Guidance + "\n")
	}
	fmt.Fprintf(&b, "\nPlan: %s\nObjective: %s\nMethodology: %s\nFeasibility claimed: %.2f\n",
		plan.Title, plan.Objective, plan.Methodology, plan.Feasibility)
	fmt.Fprintf(&b, "Underlying hypothesis: %s\n", artifact.Statement)
	if len(artifact.Assumptions) > 0 {
		fmt.Fprintf(&b, "Hypothesis assumptions: %s\n", strings.Join(artifact.Assumptions, "; "))
	}
	b.WriteString(`
Return JSON exactly of the form:
{"open_questions": ["..."],
"weaknesses": [{"area": "...", "issue": "...", "severity": "critical|major|minor"}],
"risks": [{"risk": "...", "likelihood": "...", "impact": "...", "mitigation": "..."}],
"competitive_notes": "...", "compliance_notes": "...",
"mitigations": ["..."],
"disposition": "proceed|revise|pause|abandon"}`)
	return b.String()
}
