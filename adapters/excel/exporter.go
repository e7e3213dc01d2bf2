package excel

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"goscout/models"
	"goscout/ports"
)

// Exporter writes the pipeline's durable state into a workbook with one
// sheet per entity kind.
type Exporter struct {
	items     ports.ItemRepository
	artifacts ports.ArtifactRepository
	plans     ports.PlanRepository
}

// NewExporter creates a workbook exporter.
func NewExporter(items ports.ItemRepository, artifacts ports.ArtifactRepository, plans ports.PlanRepository) *Exporter {
	return &Exporter{items: items, artifacts: artifacts, plans: plans}
}

// WriteWorkbook streams an xlsx workbook with Items, Artifacts, and Plans
// sheets to w.
func (e *Exporter) WriteWorkbook(ctx context.Context, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := e.writeItemsSheet(ctx, f); err != nil {
		return err
	}
	if err := e.writeArtifactsSheet(ctx, f); err != nil {
		return err
	}
	if err := e.writePlansSheet(ctx, f); err != nil {
		return err
	}

	// Drop the default sheet excelize creates.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (e *Exporter) writeItemsSheet(ctx context.Context, f *excelize.File) error {
	items, err := e.items.List(ctx, ports.ItemFilter{})
	if err != nil {
		return fmt.Errorf("failed to list items: %w", err)
	}
	const sheet = "Items"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}
	headers := []interface{}{"ID", "Provider", "External ID", "Title", "Score", "Bucket", "Processed", "Published"}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	for i, item := range items {
		score := ""
		if item.Score != nil {
			score = fmt.Sprintf("%.0f", *item.Score)
		}
		bucket := ""
		if item.Bucket != nil {
			bucket = string(*item.Bucket)
		}
		published := ""
		if item.PublishedAt != nil {
			published = item.PublishedAt.Format("2006-01-02")
		}
		row := []interface{}{
			string(item.ID), item.Source.Provider, item.Source.ExternalID,
			item.Title, score, bucket, item.Processed, published,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func (e *Exporter) writeArtifactsSheet(ctx context.Context, f *excelize.File) error {
	const sheet = "Artifacts"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}
	headers := []interface{}{"ID", "Item ID", "Title", "Statement", "Confidence", "Status"}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	rowIdx := 2
	for _, status := range []models.ArtifactStatus{
		models.ArtifactGenerated, models.ArtifactValidating,
		models.ArtifactValidated, models.ArtifactRejected, models.ArtifactPlanned,
	} {
		artifacts, err := e.artifacts.ListByStatus(ctx, status, 0)
		if err != nil {
			return fmt.Errorf("failed to list %s artifacts: %w", status, err)
		}
		for _, artifact := range artifacts {
			row := []interface{}{
				string(artifact.ID), string(artifact.ItemID), artifact.Title,
				artifact.Statement, artifact.Confidence, string(artifact.Status),
			}
			cell := fmt.Sprintf("A%d", rowIdx)
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return err
			}
			rowIdx++
		}
	}
	return nil
}

func (e *Exporter) writePlansSheet(ctx context.Context, f *excelize.File) error {
	const sheet = "Plans"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}
	headers := []interface{}{"ID", "Artifact ID", "Title", "Objective", "Output", "Cost", "Feasibility", "Status"}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	rowIdx := 2
	for _, status := range []models.PlanStatus{
		models.PlanDrafted, models.PlanApproved, models.PlanRevisionNeeded,
		models.PlanPaused, models.PlanRejected,
	} {
		plans, err := e.plans.ListByStatus(ctx, status, 0)
		if err != nil {
			return fmt.Errorf("failed to list %s plans: %w", status, err)
		}
		for _, plan := range plans {
			row := []interface{}{
				string(plan.ID), string(plan.ArtifactID), plan.Title, plan.Objective,
				string(plan.OutputKind), plan.EstimatedCost, plan.Feasibility, string(plan.Status),
			}
			cell := fmt.Sprintf("A%d", rowIdx)
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return err
			}
			rowIdx++
		}
	}
	return nil
}
