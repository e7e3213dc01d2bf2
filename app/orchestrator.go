package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"goscout/domain/core"
	"goscout/models"
	"goscout/ports"
)

// Orchestrator sequences the six stages into a full run. Stage boundaries are
// checkpoints: every stage's output is persisted before the next stage starts,
// so a crashed run resumes from durable state rather than repeating work.
// Unit-level failures inside a stage are contained and recorded on the run
// summary; the run keeps going with the units that succeeded.
type Orchestrator struct {
	discovery  *DiscoveryService
	scoring    *ScoringService
	generation *GenerationService
	validation *ValidationService
	planning   *PlanningService
	critique   *CritiqueService

	items      ports.ItemRepository
	artifacts  ports.ArtifactRepository
	plans      ports.PlanRepository
	runs       ports.RunRepository
	activities ports.ActivityRepository
	notifier   ports.Notifier

	maxGenerationItems int
	llmSlots           *semaphore.Weighted
}

// RunRequest defines the inputs for one full pipeline run.
type RunRequest struct {
	Queries []string
	MinDate *time.Time
	MaxDate *time.Time
}

// NewOrchestrator creates an orchestrator. The notifier may be nil.
func NewOrchestrator(
	discovery *DiscoveryService,
	scoring *ScoringService,
	generation *GenerationService,
	validation *ValidationService,
	planning *PlanningService,
	critique *CritiqueService,
	items ports.ItemRepository,
	artifacts ports.ArtifactRepository,
	plans ports.PlanRepository,
	runs ports.RunRepository,
	activities ports.ActivityRepository,
	notifier ports.Notifier,
	maxGenerationItems int,
	maxConcurrentCalls int,
) *Orchestrator {
	if maxConcurrentCalls < 1 {
		maxConcurrentCalls = 1
	}
	return &Orchestrator{
		discovery:          discovery,
		scoring:            scoring,
		generation:         generation,
		validation:         validation,
		planning:           planning,
		critique:           critique,
		items:              items,
		artifacts:          artifacts,
		plans:              plans,
		runs:               runs,
		activities:         activities,
		notifier:           notifier,
		maxGenerationItems: maxGenerationItems,
		llmSlots:           semaphore.NewWeighted(int64(maxConcurrentCalls)),
	}
}

// RunPipeline executes a full run. The returned summary is persisted before
// the method returns, including when the run ends early on a stage-level
// failure.
func (o *Orchestrator) RunPipeline(ctx context.Context, req RunRequest) (*models.RunSummary, error) {
	summary := models.NewRunSummary()
	start := time.Now()
	log.Printf("[Orchestrator] run %s starting, queries=%d", summary.RunID, len(req.Queries))

	runErr := o.runStages(ctx, req, summary)

	summary.DurationSeconds = time.Since(start).Seconds()
	if err := o.runs.SaveSummary(ctx, summary); err != nil {
		log.Printf("[Orchestrator] failed to persist run summary: %v", err)
		if runErr == nil {
			runErr = fmt.Errorf("failed to persist run summary: %w", err)
		}
	}

	if o.notifier != nil && runErr == nil {
		if err := o.notifier.RunCompleted(ctx, summary); err != nil {
			log.Printf("[Orchestrator] notification failed: %v", err)
		}
	}

	log.Printf("[Orchestrator] run %s finished in %.1fs: items=%d artifacts=%d validated=%d plans=%d failures=%d",
		summary.RunID, summary.DurationSeconds, summary.ItemCount, summary.ArtifactCount,
		summary.ValidatedCount, summary.PlanCount, len(summary.Failures))
	return summary, runErr
}

func (o *Orchestrator) runStages(ctx context.Context, req RunRequest, summary *models.RunSummary) error {
	// Discovery
	discovered, err := o.discovery.Discover(ctx, DiscoveryRequest{
		Queries: req.Queries,
		MinDate: req.MinDate,
		MaxDate: req.MaxDate,
	})
	if discovered != nil {
		summary.ItemCount = len(discovered.Ingested)
		summary.Failures = append(summary.Failures, discovered.Failures...)
	}
	if err != nil {
		return fmt.Errorf("discovery stage failed: %w", err)
	}

	// Scoring: everything not yet scored, not just this run's intake, so
	// items stranded by an earlier crash get picked up.
	unscored := false
	pending, err := o.items.List(ctx, ports.ItemFilter{Scored: &unscored})
	if err != nil {
		return fmt.Errorf("failed to list unscored items: %w", err)
	}
	if len(pending) > 0 {
		scored, err := o.scoring.ScoreBatch(ctx, pending)
		if err != nil {
			o.noteFailure(ctx, summary, models.StageScoring, "item", "batch", err)
			return fmt.Errorf("scoring stage failed: %w", err)
		}
		summary.ScoredCounts = scored.Counts
	}

	// Generation over the top-K high then medium items.
	candidates, err := o.generationCandidates(ctx)
	if err != nil {
		return err
	}
	artifacts, err := o.generateAll(ctx, candidates, summary)
	summary.ArtifactCount = len(artifacts)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Validation over every artifact awaiting a verdict, not just this run's
	// output, so artifacts stranded by an earlier crash get picked up.
	awaiting, err := o.stageArtifacts(ctx, nil, models.ArtifactGenerated, models.ArtifactValidating)
	if err != nil {
		return err
	}
	pursued, err := o.validateAll(ctx, awaiting, summary)
	summary.PursuedCount = pursued
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Planning over every artifact now validated.
	validated, err := o.artifacts.ListByStatus(ctx, models.ArtifactValidated, 0)
	if err != nil {
		return fmt.Errorf("failed to list validated artifacts: %w", err)
	}
	plans, err := o.planAll(ctx, validated, summary)
	summary.PlanCount = len(plans)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Critique over every drafted plan.
	drafted, err := o.plans.ListByStatus(ctx, models.PlanDrafted, 0)
	if err != nil {
		return fmt.Errorf("failed to list drafted plans: %w", err)
	}
	summary.CritiqueCount, err = o.critiqueAll(ctx, drafted, summary)
	if err != nil {
		return err
	}
	return ctx.Err()
}

// noteFailure records a contained unit failure on both the run summary and
// the audit log. Callers serialize access to the summary.
func (o *Orchestrator) noteFailure(ctx context.Context, summary *models.RunSummary, stage models.StageName, entityType, entityID string, err error) {
	summary.RecordFailure(stage, entityID, err)
	activity := models.NewActivity("orchestrator", "unit_failed", entityType, core.ID(entityID),
		fmt.Sprintf("%s stage: %v", stage, err))
	if aerr := o.activities.Append(ctx, activity); aerr != nil {
		log.Printf("[Orchestrator] failed to record activity: %v", aerr)
	}
}

// generationCandidates selects the top-K unprocessed items: high bucket
// first, then medium with whatever headroom remains. Low items never reach
// generation.
func (o *Orchestrator) generationCandidates(ctx context.Context) ([]*models.Item, error) {
	notProcessed := false
	high := models.BucketHigh
	candidates, err := o.items.List(ctx, ports.ItemFilter{
		Bucket:    &high,
		Processed: &notProcessed,
		Limit:     o.maxGenerationItems,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list high-bucket items: %w", err)
	}
	if remaining := o.maxGenerationItems - len(candidates); remaining > 0 {
		medium := models.BucketMedium
		more, err := o.items.List(ctx, ports.ItemFilter{
			Bucket:    &medium,
			Processed: &notProcessed,
			Limit:     remaining,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list medium-bucket items: %w", err)
		}
		candidates = append(candidates, more...)
	}
	return candidates, nil
}

// generateAll fans generation across the candidates under the shared LLM
// concurrency limit. Every item is marked processed once its attempt
// completes, whether it succeeded or left a recorded failure, so a poison
// item is never retried on the next run. A storage error aborts the stage.
func (o *Orchestrator) generateAll(ctx context.Context, items []*models.Item, summary *models.RunSummary) ([]*models.Artifact, error) {
	var mu sync.Mutex
	var created []*models.Artifact
	var fatal error
	var wg sync.WaitGroup

	for _, item := range items {
		if err := o.llmSlots.Acquire(ctx, 1); err != nil {
			break
		}
		item := item
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer o.llmSlots.Release(1)
			artifacts, err := o.generation.GenerateForItem(ctx, item)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if core.IsStorageError(err) {
					if fatal == nil {
						fatal = err
					}
					return
				}
				o.noteFailure(ctx, summary, models.StageGeneration, "item", string(item.ID), err)
			} else {
				created = append(created, artifacts...)
			}
			if err := o.items.MarkProcessed(ctx, item.ID); err != nil {
				if core.IsStorageError(err) {
					if fatal == nil {
						fatal = err
					}
					return
				}
				o.noteFailure(ctx, summary, models.StageGeneration, "item", string(item.ID), err)
			}
		}()
	}
	wg.Wait()
	if fatal != nil {
		return created, fmt.Errorf("generation stage failed: %w", fatal)
	}
	return created, nil
}

// validateAll fans validation across the artifacts. Returns how many drew a
// pursue recommendation. A storage error aborts the stage.
func (o *Orchestrator) validateAll(ctx context.Context, artifacts []*models.Artifact, summary *models.RunSummary) (int, error) {
	var mu sync.Mutex
	pursued := 0
	var fatal error
	var wg sync.WaitGroup

	for _, artifact := range artifacts {
		if err := o.llmSlots.Acquire(ctx, 1); err != nil {
			break
		}
		artifact := artifact
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer o.llmSlots.Release(1)
			validation, err := o.validation.ValidateArtifact(ctx, artifact)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if core.IsStorageError(err) {
					if fatal == nil {
						fatal = err
					}
					return
				}
				o.noteFailure(ctx, summary, models.StageValidation, "artifact", string(artifact.ID), err)
				return
			}
			if validation.Recommendation.Eligible() {
				summary.ValidatedCount++
			}
			if validation.Recommendation == models.RecommendPursue {
				pursued++
			}
		}()
	}
	wg.Wait()
	if fatal != nil {
		return pursued, fmt.Errorf("validation stage failed: %w", fatal)
	}
	return pursued, nil
}

func (o *Orchestrator) planAll(ctx context.Context, artifacts []*models.Artifact, summary *models.RunSummary) ([]*models.Plan, error) {
	var mu sync.Mutex
	var created []*models.Plan
	var fatal error
	var wg sync.WaitGroup

	for _, artifact := range artifacts {
		if err := o.llmSlots.Acquire(ctx, 1); err != nil {
			break
		}
		artifact := artifact
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer o.llmSlots.Release(1)
			plan, err := o.planning.PlanForArtifact(ctx, artifact)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if core.IsStorageError(err) {
					if fatal == nil {
						fatal = err
					}
					return
				}
				o.noteFailure(ctx, summary, models.StagePlanning, "artifact", string(artifact.ID), err)
				return
			}
			created = append(created, plan)
		}()
	}
	wg.Wait()
	if fatal != nil {
		return created, fmt.Errorf("planning stage failed: %w", fatal)
	}
	return created, nil
}

func (o *Orchestrator) critiqueAll(ctx context.Context, plans []*models.Plan, summary *models.RunSummary) (int, error) {
	var mu sync.Mutex
	reviewed := 0
	var fatal error
	var wg sync.WaitGroup

	for _, plan := range plans {
		if err := o.llmSlots.Acquire(ctx, 1); err != nil {
			break
		}
		plan := plan
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer o.llmSlots.Release(1)
			_, err := o.critique.CritiquePlan(ctx, plan)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if core.IsStorageError(err) {
					if fatal == nil {
						fatal = err
					}
					return
				}
				o.noteFailure(ctx, summary, models.StageCritique, "plan", string(plan.ID), err)
				return
			}
			reviewed++
		}()
	}
	wg.Wait()
	if fatal != nil {
		return reviewed, fmt.Errorf("critique stage failed: %w", fatal)
	}
	return reviewed, nil
}

// RunStage executes one stage in isolation. With ids it runs exactly those
// entities; without, it runs everything eligible in durable state. Discovery
// is not runnable this way because it needs queries; use RunPipeline or the
// discovery service directly.
func (o *Orchestrator) RunStage(ctx context.Context, stage models.StageName, ids []string) (*models.StageResult, error) {
	result := &models.StageResult{Stage: stage, Failures: []models.RunFailure{}}
	summary := models.NewRunSummary()

	switch stage {
	case models.StageScoring:
		pending, err := o.stageItems(ctx, ids)
		if err != nil {
			return nil, err
		}
		result.Processed = len(pending)
		if len(pending) == 0 {
			return result, nil
		}
		if _, err := o.scoring.ScoreBatch(ctx, pending); err != nil {
			o.noteFailure(ctx, summary, stage, "item", "batch", err)
			result.Failures = append(result.Failures, summary.Failures...)
			return result, nil
		}
		result.Succeeded = len(pending)

	case models.StageGeneration:
		var candidates []*models.Item
		var err error
		if len(ids) > 0 {
			candidates, err = o.itemsByID(ctx, ids)
		} else {
			candidates, err = o.generationCandidates(ctx)
		}
		if err != nil {
			return nil, err
		}
		result.Processed = len(candidates)
		artifacts, err := o.generateAll(ctx, candidates, summary)
		if err != nil {
			return nil, err
		}
		result.Succeeded = len(artifacts)

	case models.StageValidation:
		pending, err := o.stageArtifacts(ctx, ids,
			models.ArtifactGenerated, models.ArtifactValidating)
		if err != nil {
			return nil, err
		}
		result.Processed = len(pending)
		if _, err := o.validateAll(ctx, pending, summary); err != nil {
			return nil, err
		}
		result.Succeeded = result.Processed - len(summary.Failures)

	case models.StagePlanning:
		validated, err := o.stageArtifacts(ctx, ids, models.ArtifactValidated)
		if err != nil {
			return nil, err
		}
		result.Processed = len(validated)
		plans, err := o.planAll(ctx, validated, summary)
		if err != nil {
			return nil, err
		}
		result.Succeeded = len(plans)

	case models.StageCritique:
		var drafted []*models.Plan
		var err error
		if len(ids) > 0 {
			drafted, err = o.plansByID(ctx, ids)
		} else {
			drafted, err = o.plans.ListByStatus(ctx, models.PlanDrafted, 0)
			if err != nil {
				err = fmt.Errorf("failed to list drafted plans: %w", err)
			}
		}
		if err != nil {
			return nil, err
		}
		result.Processed = len(drafted)
		result.Succeeded, err = o.critiqueAll(ctx, drafted, summary)
		if err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("stage %q cannot be run standalone", stage)
	}

	result.Failures = append(result.Failures, summary.Failures...)
	return result, ctx.Err()
}

// stageItems resolves scoring input: the named items, or every unscored one.
func (o *Orchestrator) stageItems(ctx context.Context, ids []string) ([]*models.Item, error) {
	if len(ids) > 0 {
		return o.itemsByID(ctx, ids)
	}
	unscored := false
	pending, err := o.items.List(ctx, ports.ItemFilter{Scored: &unscored})
	if err != nil {
		return nil, fmt.Errorf("failed to list unscored items: %w", err)
	}
	return pending, nil
}

// stageArtifacts resolves artifact input: the named artifacts, or every one
// in the given statuses.
func (o *Orchestrator) stageArtifacts(ctx context.Context, ids []string, statuses ...models.ArtifactStatus) ([]*models.Artifact, error) {
	if len(ids) > 0 {
		var out []*models.Artifact
		for _, raw := range ids {
			id, err := core.ParseArtifactID(raw)
			if err != nil {
				return nil, err
			}
			artifact, err := o.artifacts.GetByID(ctx, id)
			if err != nil {
				return nil, err
			}
			out = append(out, artifact)
		}
		return out, nil
	}
	var out []*models.Artifact
	for _, status := range statuses {
		batch, err := o.artifacts.ListByStatus(ctx, status, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s artifacts: %w", status, err)
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (o *Orchestrator) itemsByID(ctx context.Context, ids []string) ([]*models.Item, error) {
	var out []*models.Item
	for _, raw := range ids {
		id, err := core.ParseItemID(raw)
		if err != nil {
			return nil, err
		}
		item, err := o.items.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (o *Orchestrator) plansByID(ctx context.Context, ids []string) ([]*models.Plan, error) {
	var out []*models.Plan
	for _, raw := range ids {
		id, err := core.ParsePlanID(raw)
		if err != nil {
			return nil, err
		}
		plan, err := o.plans.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, plan)
	}
	return out, nil
}

// LatestSummary returns the most recent persisted run summary, or (nil, nil)
// when no run has completed.
func (o *Orchestrator) LatestSummary(ctx context.Context) (*models.RunSummary, error) {
	return o.runs.LatestSummary(ctx)
}
