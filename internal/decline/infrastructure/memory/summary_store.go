package memory

import (
	"sort"
	"sync"

	decline "decline-cloud/internal/decline/domain"
)

// SummaryStore holds the error-summary table, one row per well.
type SummaryStore struct {
	mu   sync.RWMutex
	data map[string]decline.ErrorSummary
}

// NewSummaryStore constructs an empty store.
func NewSummaryStore() *SummaryStore {
	return &SummaryStore{data: make(map[string]decline.ErrorSummary)}
}

// Get returns a well's summary row.
func (s *SummaryStore) Get(wellID string) (decline.ErrorSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.data[wellID]
	return row, ok
}

// Replace overwrites a well's summary row.
func (s *SummaryStore) Replace(wellID string, row decline.ErrorSummary) error {
	if wellID == "" {
		return decline.ErrEmptyWellID
	}
	if row.WellID != wellID {
		return decline.ErrWellMismatch
	}
	s.mu.Lock()
	s.data[wellID] = row
	s.mu.Unlock()
	return nil
}

// Delete drops a well's row.
func (s *SummaryStore) Delete(wellID string) {
	s.mu.Lock()
	delete(s.data, wellID)
	s.mu.Unlock()
}

// WellIDs lists wells present in the table, ascending.
func (s *SummaryStore) WellIDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Len returns the number of rows.
func (s *SummaryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Snapshot returns all rows ordered by well id.
func (s *SummaryStore) Snapshot() []decline.ErrorSummary {
	s.mu.RLock()
	out := make([]decline.ErrorSummary, 0, len(s.data))
	for _, row := range s.data {
		out = append(out, row)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].WellID < out[j].WellID })
	return out
}
