package memory

import (
	"context"
	"sort"
	"sync"

	decline "decline-cloud/internal/decline/domain"
)

// ModelRepository is an in-memory decline model repository for demo/testing.
type ModelRepository struct {
	mu   sync.RWMutex
	data map[string]decline.ModelRecord
}

// NewModelRepository constructs a repository seeded with records.
func NewModelRepository(records ...decline.ModelRecord) *ModelRepository {
	repo := &ModelRepository{data: make(map[string]decline.ModelRecord, len(records))}
	for _, rec := range records {
		repo.data[rec.WellID] = rec
	}
	return repo
}

// Get loads a well's raw model record.
func (r *ModelRepository) Get(ctx context.Context, wellID string) (decline.ModelRecord, error) {
	_ = ctx
	if wellID == "" {
		return decline.ModelRecord{}, decline.ErrEmptyWellID
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.data[wellID]
	if !ok {
		return decline.ModelRecord{}, decline.ErrModelNotFound
	}
	return rec, nil
}

// Save upserts a well's model record.
func (r *ModelRepository) Save(ctx context.Context, rec decline.ModelRecord) error {
	_ = ctx
	if rec.WellID == "" {
		return decline.ErrEmptyWellID
	}
	r.mu.Lock()
	r.data[rec.WellID] = rec
	r.mu.Unlock()
	return nil
}

// List returns all records ordered by well id.
func (r *ModelRepository) List(ctx context.Context) ([]decline.ModelRecord, error) {
	_ = ctx
	r.mu.RLock()
	out := make([]decline.ModelRecord, 0, len(r.data))
	for _, rec := range r.data {
		out = append(out, rec)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].WellID < out[j].WellID })
	return out, nil
}
