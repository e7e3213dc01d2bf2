package app

import (
	"context"
	"fmt"
	"log"

	"goscout/ai"
	"goscout/domain/core"
	"goscout/models"
	"goscout/ports"
)

// ScoringService assigns priority scores to discovered items in one batched
// generative call. The batch is all-or-nothing: a missing or out-of-range
// entry fails the whole batch and no scores are persisted.
type ScoringService struct {
	client          *ai.StructuredClient[models.ScoreBatchResponse]
	profile         ai.StageProfile
	items           ports.ItemRepository
	activities      ports.ActivityRepository
	highThreshold   int
	mediumThreshold int
}

// ScoringResult summarizes one scoring batch.
type ScoringResult struct {
	Scored []models.ScoreResult
	Counts models.ScoredCounts
}

// NewScoringService creates a scoring service.
func NewScoringService(llm ports.LLMClient, profile ai.StageProfile, items ports.ItemRepository, activities ports.ActivityRepository, highThreshold, mediumThreshold int) *ScoringService {
	return &ScoringService{
		client:          ai.NewStructuredClient[models.ScoreBatchResponse](llm, "scoring", profile),
		profile:         profile,
		items:           items,
		activities:      activities,
		highThreshold:   highThreshold,
		mediumThreshold: mediumThreshold,
	}
}

// ScoreBatch scores the given items and persists the results. Re-scoring an
// already scored item overwrites its previous score.
func (s *ScoringService) ScoreBatch(ctx context.Context, items []*models.Item) (*ScoringResult, error) {
	if len(items) == 0 {
		return &ScoringResult{}, nil
	}

	prompt := ai.BuildScoringPrompt(s.profile, items)
	response, err := s.client.GetJSONResponse(ctx, prompt)
	if err != nil {
		return nil, err
	}

	entries := make(map[string]models.ScoreEntry, len(response.Scores))
	for _, entry := range response.Scores {
		entries[entry.ItemID] = entry
	}

	results := make([]models.ScoreResult, 0, len(items))
	for _, item := range items {
		entry, ok := entries[string(item.ID)]
		if !ok {
			return nil, fmt.Errorf("%w: scoring batch missing entry for item %s", core.ErrMalformedResponse, item.ID)
		}
		if err := validateScoreEntry(entry); err != nil {
			return nil, err
		}
		result := models.ScoreResult{
			ItemID:        item.ID,
			Relevance:     entry.Relevance,
			Novelty:       entry.Novelty,
			Actionability: entry.Actionability,
			Urgency:       entry.Urgency,
		}
		result.Total = result.ComputeTotal()
		result.Bucket = s.bucketFor(result.Total)
		results = append(results, result)
	}

	// All entries validated; now persist.
	summary := &ScoringResult{Scored: results}
	for _, result := range results {
		if err := s.items.UpdateScore(ctx, result.ItemID, float64(result.Total), result.Bucket); err != nil {
			return nil, fmt.Errorf("failed to persist score for item %s: %w", result.ItemID, err)
		}
		activity := models.NewActivity("scoring", "item_scored", "item", core.ID(result.ItemID),
			fmt.Sprintf("total %d, bucket %s", result.Total, result.Bucket))
		if err := s.activities.Append(ctx, activity); err != nil {
			log.Printf("[Scoring] failed to record activity: %v", err)
		}
		switch result.Bucket {
		case models.BucketHigh:
			summary.Counts.High++
		case models.BucketMedium:
			summary.Counts.Medium++
		default:
			summary.Counts.Low++
		}
	}

	log.Printf("[Scoring] scored=%d high=%d medium=%d low=%d",
		len(results), summary.Counts.High, summary.Counts.Medium, summary.Counts.Low)
	return summary, nil
}

// bucketFor classifies a total score against the configured thresholds.
// Boundaries are inclusive: a total equal to a threshold lands in the
// higher bucket.
func (s *ScoringService) bucketFor(total int) models.ScoreBucket {
	switch {
	case total >= s.highThreshold:
		return models.BucketHigh
	case total >= s.mediumThreshold:
		return models.BucketMedium
	default:
		return models.BucketLow
	}
}

func validateScoreEntry(entry models.ScoreEntry) error {
	if entry.Relevance < 0 || entry.Relevance > 30 {
		return fmt.Errorf("%w: relevance %d out of range for item %s", core.ErrMalformedResponse, entry.Relevance, entry.ItemID)
	}
	if entry.Novelty < 0 || entry.Novelty > 25 {
		return fmt.Errorf("%w: novelty %d out of range for item %s", core.ErrMalformedResponse, entry.Novelty, entry.ItemID)
	}
	if entry.Actionability < 0 || entry.Actionability > 25 {
		return fmt.Errorf("%w: actionability %d out of range for item %s", core.ErrMalformedResponse, entry.Actionability, entry.ItemID)
	}
	if entry.Urgency < 0 || entry.Urgency > 20 {
		return fmt.Errorf("%w: urgency %d out of range for item %s", core.ErrMalformedResponse, entry.Urgency, entry.ItemID)
	}
	return nil
}
