package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/montanaflynn/stats"

	"goscout/models"
	"goscout/ports"
)

// Generator renders a run report from durable state. The markdown form is
// the source of truth; HTML is derived from it.
type Generator struct {
	items     ports.ItemRepository
	artifacts ports.ArtifactRepository
	plans     ports.PlanRepository
	runs      ports.RunRepository
}

// NewGenerator creates a report generator.
func NewGenerator(items ports.ItemRepository, artifacts ports.ArtifactRepository, plans ports.PlanRepository, runs ports.RunRepository) *Generator {
	return &Generator{items: items, artifacts: artifacts, plans: plans, runs: runs}
}

// ScoreDistribution summarizes the stored item scores.
type ScoreDistribution struct {
	Count  int
	Mean   float64
	Median float64
	StdDev float64
	Min    float64
	Max    float64
}

// Markdown renders the latest run's report. Returns an empty-run notice when
// no run has completed yet.
func (g *Generator) Markdown(ctx context.Context) (string, error) {
	summary, err := g.runs.LatestSummary(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load latest run: %w", err)
	}

	var b strings.Builder
	b.WriteString("# Pipeline Report\n\n")
	if summary == nil {
		b.WriteString("No completed runs yet.\n")
		return b.String(), nil
	}

	fmt.Fprintf(&b, "Run `%s`, started %s, took %.1fs.\n\n",
		summary.RunID, summary.StartedAt.Format(time.RFC3339), summary.DurationSeconds)

	b.WriteString("## Totals\n\n")
	fmt.Fprintf(&b, "| Stage | Count |\n|---|---|\n")
	fmt.Fprintf(&b, "| Items ingested | %d |\n", summary.ItemCount)
	fmt.Fprintf(&b, "| Scored high / medium / low | %d / %d / %d |\n",
		summary.ScoredCounts.High, summary.ScoredCounts.Medium, summary.ScoredCounts.Low)
	fmt.Fprintf(&b, "| Artifacts generated | %d |\n", summary.ArtifactCount)
	fmt.Fprintf(&b, "| Artifacts validated | %d |\n", summary.ValidatedCount)
	fmt.Fprintf(&b, "| Pursue recommendations | %d |\n", summary.PursuedCount)
	fmt.Fprintf(&b, "| Plans drafted | %d |\n", summary.PlanCount)
	fmt.Fprintf(&b, "| Plans reviewed | %d |\n", summary.CritiqueCount)
	b.WriteString("\n")

	if dist, err := g.scoreDistribution(ctx); err == nil && dist.Count > 0 {
		b.WriteString("## Score distribution\n\n")
		fmt.Fprintf(&b, "%d scored items: mean %.1f, median %.1f, stddev %.1f, range %.0f-%.0f.\n\n",
			dist.Count, dist.Mean, dist.Median, dist.StdDev, dist.Min, dist.Max)
	}

	if err := g.writeTopItems(ctx, &b); err != nil {
		return "", err
	}
	if err := g.writePlans(ctx, &b); err != nil {
		return "", err
	}

	if len(summary.Failures) > 0 {
		b.WriteString("## Contained failures\n\n")
		for _, failure := range summary.Failures {
			fmt.Fprintf(&b, "- **%s** `%s`: %s\n", failure.Stage, failure.EntityID, failure.Reason)
		}
		b.WriteString("\n")
	}

	return b.String(), nil
}

// HTML renders the markdown report as a standalone HTML document.
func (g *Generator) HTML(ctx context.Context) ([]byte, error) {
	md, err := g.Markdown(ctx)
	if err != nil {
		return nil, err
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: "Pipeline Report",
	})
	return markdown.ToHTML([]byte(md), p, renderer), nil
}

func (g *Generator) scoreDistribution(ctx context.Context) (*ScoreDistribution, error) {
	scored := true
	items, err := g.items.List(ctx, ports.ItemFilter{Scored: &scored})
	if err != nil {
		return nil, err
	}
	var data []float64
	for _, item := range items {
		if item.Score != nil {
			data = append(data, *item.Score)
		}
	}
	if len(data) == 0 {
		return &ScoreDistribution{}, nil
	}
	mean, _ := stats.Mean(data)
	median, _ := stats.Median(data)
	stdDev, _ := stats.StandardDeviation(data)
	min, _ := stats.Min(data)
	max, _ := stats.Max(data)
	return &ScoreDistribution{
		Count:  len(data),
		Mean:   mean,
		Median: median,
		StdDev: stdDev,
		Min:    min,
		Max:    max,
	}, nil
}

func (g *Generator) writeTopItems(ctx context.Context, b *strings.Builder) error {
	high := models.BucketHigh
	items, err := g.items.List(ctx, ports.ItemFilter{Bucket: &high, Limit: 10})
	if err != nil {
		return fmt.Errorf("failed to list high-bucket items: %w", err)
	}
	if len(items) == 0 {
		return nil
	}
	b.WriteString("## Top items\n\n")
	for _, item := range items {
		score := 0.0
		if item.Score != nil {
			score = *item.Score
		}
		fmt.Fprintf(b, "- **%.0f** %s (%s)\n", score, item.Title, item.Source.Provider)
	}
	b.WriteString("\n")
	return nil
}

func (g *Generator) writePlans(ctx context.Context, b *strings.Builder) error {
	approved, err := g.plans.ListByStatus(ctx, models.PlanApproved, 10)
	if err != nil {
		return fmt.Errorf("failed to list approved plans: %w", err)
	}
	if len(approved) == 0 {
		return nil
	}
	b.WriteString("## Approved plans\n\n")
	for _, plan := range approved {
		fmt.Fprintf(b, "- **%s**: %s\n", plan.Title, plan.Objective)
	}
	b.WriteString("\n")
	return nil
}
