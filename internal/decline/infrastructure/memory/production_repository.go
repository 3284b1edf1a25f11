package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	decline "decline-cloud/internal/decline/domain"
)

// ProductionRepository is an in-memory population production table.
type ProductionRepository struct {
	mu   sync.RWMutex
	data map[string][]decline.Sample
}

// NewProductionRepository constructs a repository from samples of any wells.
func NewProductionRepository(samples ...decline.Sample) *ProductionRepository {
	repo := &ProductionRepository{data: make(map[string][]decline.Sample)}
	repo.Append(samples...)
	return repo
}

// Append adds samples, keeping each well ascending by date.
func (r *ProductionRepository) Append(samples ...decline.Sample) {
	r.mu.Lock()
	defer r.mu.Unlock()
	touched := make(map[string]struct{})
	for _, s := range samples {
		if s.WellID == "" {
			continue
		}
		r.data[s.WellID] = append(r.data[s.WellID], s)
		touched[s.WellID] = struct{}{}
	}
	for id := range touched {
		rows := r.data[id]
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	}
}

// WellIDs lists distinct wells, ascending.
func (r *ProductionRepository) WellIDs(ctx context.Context) ([]string, error) {
	_ = ctx
	r.mu.RLock()
	ids := make([]string, 0, len(r.data))
	for id := range r.data {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Strings(ids)
	return ids, nil
}

// Samples returns a copy of a well's samples ascending by date.
func (r *ProductionRepository) Samples(ctx context.Context, wellID string) ([]decline.Sample, error) {
	_ = ctx
	if wellID == "" {
		return nil, decline.ErrEmptyWellID
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.data[wellID]), nil
}
