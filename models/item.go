package models

import (
	"time"

	"goscout/domain/core"

	"github.com/lib/pq"
)

// ScoreBucket is the coarse priority classification assigned to an item.
type ScoreBucket string

const (
	BucketHigh   ScoreBucket = "high"
	BucketMedium ScoreBucket = "medium"
	BucketLow    ScoreBucket = "low"
)

// SourceID records where an item came from: which connector and which
// identifier it carries in that provider's namespace.
type SourceID struct {
	Provider   string `json:"provider" db:"source_provider"`
	ExternalID string `json:"external_id" db:"source_external_id"`
}

// IsComplete reports whether both halves of the provenance key are present.
func (s SourceID) IsComplete() bool {
	return s.Provider != "" && s.ExternalID != ""
}

// Item is a unit of discovered content from an external source.
type Item struct {
	ID          core.ItemID    `json:"id" db:"id"`
	Source      SourceID       `json:"source"`
	Title       string         `json:"title" db:"title"`
	Body        string         `json:"body" db:"body"`
	URL         string         `json:"url,omitempty" db:"url"`
	PublishedAt *time.Time     `json:"published_at,omitempty" db:"published_at"`
	Tags        pq.StringArray `json:"tags" db:"tags"`
	Score       *float64       `json:"score,omitempty" db:"score"`
	Bucket      *ScoreBucket   `json:"bucket,omitempty" db:"bucket"`
	Processed   bool           `json:"processed" db:"processed"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// NewItem constructs an unscored, unprocessed item.
func NewItem(source SourceID, title, body string) *Item {
	now := time.Now().UTC()
	return &Item{
		ID:        core.ItemID(core.NewID()),
		Source:    source,
		Title:     title,
		Body:      body,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NormalizedTitle returns the dedup-normalized form of the title.
func (i *Item) NormalizedTitle() string {
	return core.NormalizeTitle(i.Title)
}

// ScoreResult is the scoring stage's output for one item. Component ranges:
// relevance 0-30, novelty 0-25, actionability 0-25, urgency 0-20.
type ScoreResult struct {
	ItemID        core.ItemID `json:"item_id"`
	Relevance     int         `json:"relevance"`
	Novelty       int         `json:"novelty"`
	Actionability int         `json:"actionability"`
	Urgency       int         `json:"urgency"`
	Total         int         `json:"total"`
	Bucket        ScoreBucket `json:"bucket"`
}

// ComputeTotal sums the component scores.
func (s *ScoreResult) ComputeTotal() int {
	return s.Relevance + s.Novelty + s.Actionability + s.Urgency
}
