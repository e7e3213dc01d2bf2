package testkit

import (
	"context"
	"sort"
	"sync"
	"time"

	"goscout/domain/core"
	"goscout/models"
	"goscout/ports"
)

// InMemoryItemRepository is a mutex-guarded map-backed item store for tests.
type InMemoryItemRepository struct {
	mu    sync.RWMutex
	items map[core.ItemID]*models.Item
	order []core.ItemID
}

var _ ports.ItemRepository = (*InMemoryItemRepository)(nil)

func NewInMemoryItemRepository() *InMemoryItemRepository {
	return &InMemoryItemRepository{items: make(map[core.ItemID]*models.Item)}
}

func (r *InMemoryItemRepository) Create(_ context.Context, item *models.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *item
	r.items[item.ID] = &copied
	r.order = append(r.order, item.ID)
	return nil
}

func (r *InMemoryItemRepository) GetByID(_ context.Context, id core.ItemID) (*models.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok {
		return nil, core.NewNotFoundError("item", string(id))
	}
	copied := *item
	return &copied, nil
}

func (r *InMemoryItemRepository) FindBySource(_ context.Context, source models.SourceID) (*models.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !source.IsComplete() {
		return nil, nil
	}
	for _, id := range r.order {
		item := r.items[id]
		if item.Source.Provider == source.Provider && item.Source.ExternalID == source.ExternalID {
			copied := *item
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *InMemoryItemRepository) ListTitles(_ context.Context) (map[core.ItemID]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	titles := make(map[core.ItemID]string, len(r.items))
	for id, item := range r.items {
		titles[id] = item.Title
	}
	return titles, nil
}

func (r *InMemoryItemRepository) List(_ context.Context, filter ports.ItemFilter) ([]*models.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.Item
	for _, id := range r.order {
		item := r.items[id]
		if filter.Bucket != nil && (item.Bucket == nil || *item.Bucket != *filter.Bucket) {
			continue
		}
		if filter.Processed != nil && item.Processed != *filter.Processed {
			continue
		}
		if filter.Scored != nil && (item.Score != nil) != *filter.Scored {
			continue
		}
		if filter.PublishedFrom != nil && (item.PublishedAt == nil || item.PublishedAt.Before(*filter.PublishedFrom)) {
			continue
		}
		if filter.PublishedTo != nil && (item.PublishedAt == nil || item.PublishedAt.After(*filter.PublishedTo)) {
			continue
		}
		copied := *item
		out = append(out, &copied)
	}
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := out[i].Score, out[j].Score
		switch {
		case si != nil && sj != nil:
			return *si > *sj
		case si != nil:
			return true
		default:
			return false
		}
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *InMemoryItemRepository) UpdateScore(_ context.Context, id core.ItemID, score float64, bucket models.ScoreBucket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return core.NewNotFoundError("item", string(id))
	}
	item.Score = &score
	item.Bucket = &bucket
	item.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *InMemoryItemRepository) MarkProcessed(_ context.Context, id core.ItemID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return core.NewNotFoundError("item", string(id))
	}
	item.Processed = true
	item.UpdatedAt = time.Now().UTC()
	return nil
}

// Count returns the number of stored items.
func (r *InMemoryItemRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// InMemoryArtifactRepository is a map-backed artifact store for tests.
type InMemoryArtifactRepository struct {
	mu        sync.RWMutex
	artifacts map[core.ArtifactID]*models.Artifact
	order     []core.ArtifactID
}

var _ ports.ArtifactRepository = (*InMemoryArtifactRepository)(nil)

func NewInMemoryArtifactRepository() *InMemoryArtifactRepository {
	return &InMemoryArtifactRepository{artifacts: make(map[core.ArtifactID]*models.Artifact)}
}

func (r *InMemoryArtifactRepository) Create(_ context.Context, artifact *models.Artifact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *artifact
	r.artifacts[artifact.ID] = &copied
	r.order = append(r.order, artifact.ID)
	return nil
}

func (r *InMemoryArtifactRepository) GetByID(_ context.Context, id core.ArtifactID) (*models.Artifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	artifact, ok := r.artifacts[id]
	if !ok {
		return nil, core.NewNotFoundError("artifact", string(id))
	}
	copied := *artifact
	return &copied, nil
}

func (r *InMemoryArtifactRepository) ListByStatus(_ context.Context, status models.ArtifactStatus, limit int) ([]*models.Artifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.Artifact
	for _, id := range r.order {
		if r.artifacts[id].Status == status {
			copied := *r.artifacts[id]
			out = append(out, &copied)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *InMemoryArtifactRepository) ListByItem(_ context.Context, itemID core.ItemID) ([]*models.Artifact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.Artifact
	for _, id := range r.order {
		if r.artifacts[id].ItemID == itemID {
			copied := *r.artifacts[id]
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *InMemoryArtifactRepository) UpdateStatus(_ context.Context, id core.ArtifactID, status models.ArtifactStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	artifact, ok := r.artifacts[id]
	if !ok {
		return core.NewNotFoundError("artifact", string(id))
	}
	artifact.Status = status
	artifact.UpdatedAt = time.Now().UTC()
	return nil
}

// InMemoryValidationRepository is an append-only validation store for tests.
type InMemoryValidationRepository struct {
	mu      sync.RWMutex
	records []*models.Validation
}

var _ ports.ValidationRepository = (*InMemoryValidationRepository)(nil)

func NewInMemoryValidationRepository() *InMemoryValidationRepository {
	return &InMemoryValidationRepository{}
}

func (r *InMemoryValidationRepository) Create(_ context.Context, validation *models.Validation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *validation
	r.records = append(r.records, &copied)
	return nil
}

func (r *InMemoryValidationRepository) CurrentForArtifact(_ context.Context, artifactID core.ArtifactID) (*models.Validation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].ArtifactID == artifactID {
			copied := *r.records[i]
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *InMemoryValidationRepository) HistoryForArtifact(_ context.Context, artifactID core.ArtifactID) ([]*models.Validation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.Validation
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].ArtifactID == artifactID {
			copied := *r.records[i]
			out = append(out, &copied)
		}
	}
	return out, nil
}

// InMemoryPlanRepository is a map-backed plan store for tests.
type InMemoryPlanRepository struct {
	mu    sync.RWMutex
	plans map[core.PlanID]*models.Plan
	order []core.PlanID
}

var _ ports.PlanRepository = (*InMemoryPlanRepository)(nil)

func NewInMemoryPlanRepository() *InMemoryPlanRepository {
	return &InMemoryPlanRepository{plans: make(map[core.PlanID]*models.Plan)}
}

func (r *InMemoryPlanRepository) Create(_ context.Context, plan *models.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *plan
	r.plans[plan.ID] = &copied
	r.order = append(r.order, plan.ID)
	return nil
}

func (r *InMemoryPlanRepository) GetByID(_ context.Context, id core.PlanID) (*models.Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	plan, ok := r.plans[id]
	if !ok {
		return nil, core.NewNotFoundError("plan", string(id))
	}
	copied := *plan
	return &copied, nil
}

func (r *InMemoryPlanRepository) ListByStatus(_ context.Context, status models.PlanStatus, limit int) ([]*models.Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.Plan
	for _, id := range r.order {
		if r.plans[id].Status == status {
			copied := *r.plans[id]
			out = append(out, &copied)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *InMemoryPlanRepository) UpdateStatus(_ context.Context, id core.PlanID, status models.PlanStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	plan, ok := r.plans[id]
	if !ok {
		return core.NewNotFoundError("plan", string(id))
	}
	plan.Status = status
	plan.UpdatedAt = time.Now().UTC()
	return nil
}

// InMemoryCritiqueRepository is an append-only critique store for tests.
type InMemoryCritiqueRepository struct {
	mu      sync.RWMutex
	records []*models.Critique
}

var _ ports.CritiqueRepository = (*InMemoryCritiqueRepository)(nil)

func NewInMemoryCritiqueRepository() *InMemoryCritiqueRepository {
	return &InMemoryCritiqueRepository{}
}

func (r *InMemoryCritiqueRepository) Create(_ context.Context, critique *models.Critique) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *critique
	r.records = append(r.records, &copied)
	return nil
}

func (r *InMemoryCritiqueRepository) CurrentForPlan(_ context.Context, planID core.PlanID) (*models.Critique, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].PlanID == planID {
			copied := *r.records[i]
			return &copied, nil
		}
	}
	return nil, nil
}

// InMemoryActivityRepository is an append-only audit log for tests.
type InMemoryActivityRepository struct {
	mu      sync.RWMutex
	entries []*models.Activity
}

var _ ports.ActivityRepository = (*InMemoryActivityRepository)(nil)

func NewInMemoryActivityRepository() *InMemoryActivityRepository {
	return &InMemoryActivityRepository{}
}

func (r *InMemoryActivityRepository) Append(_ context.Context, activity *models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *activity
	r.entries = append(r.entries, &copied)
	return nil
}

func (r *InMemoryActivityRepository) ListRecent(_ context.Context, limit int) ([]*models.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.Activity
	for i := len(r.entries) - 1; i >= 0; i-- {
		copied := *r.entries[i]
		out = append(out, &copied)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *InMemoryActivityRepository) ListForEntity(_ context.Context, entityType, entityID string) ([]*models.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*models.Activity
	for _, entry := range r.entries {
		if entry.EntityType == entityType && entry.EntityID == entityID {
			copied := *entry
			out = append(out, &copied)
		}
	}
	return out, nil
}

// InMemoryRunRepository stores run summaries for tests.
type InMemoryRunRepository struct {
	mu        sync.RWMutex
	summaries []*models.RunSummary
}

var _ ports.RunRepository = (*InMemoryRunRepository)(nil)

func NewInMemoryRunRepository() *InMemoryRunRepository {
	return &InMemoryRunRepository{}
}

func (r *InMemoryRunRepository) SaveSummary(_ context.Context, summary *models.RunSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *summary
	r.summaries = append(r.summaries, &copied)
	return nil
}

func (r *InMemoryRunRepository) LatestSummary(_ context.Context) (*models.RunSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.summaries) == 0 {
		return nil, nil
	}
	copied := *r.summaries[len(r.summaries)-1]
	return &copied, nil
}
