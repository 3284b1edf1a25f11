package memory

import (
	"slices"
	"sort"
	"strings"
	"sync"

	decline "decline-cloud/internal/decline/domain"
)

// RateStore holds the population production-rates table keyed by well id.
// A well's rows are always replaced wholesale.
type RateStore struct {
	mu   sync.RWMutex
	data map[string][]decline.RateRecord
}

// NewRateStore constructs an empty store.
func NewRateStore() *RateStore {
	return &RateStore{data: make(map[string][]decline.RateRecord)}
}

// Get returns a copy of a well's rows.
func (s *RateStore) Get(wellID string) ([]decline.RateRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, ok := s.data[wellID]
	if !ok {
		return nil, false
	}
	return slices.Clone(rows), true
}

// Replace overwrites a well's rows.
func (s *RateStore) Replace(wellID string, rows []decline.RateRecord) error {
	if wellID == "" {
		return decline.ErrEmptyWellID
	}
	for _, row := range rows {
		if row.WellID != wellID {
			return decline.ErrWellMismatch
		}
	}
	copied := slices.Clone(rows)
	s.mu.Lock()
	s.data[wellID] = copied
	s.mu.Unlock()
	return nil
}

// Delete drops a well's rows.
func (s *RateStore) Delete(wellID string) {
	s.mu.Lock()
	delete(s.data, wellID)
	s.mu.Unlock()
}

// WellIDs lists wells present in the table, ascending.
func (s *RateStore) WellIDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Len returns the number of wells held.
func (s *RateStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Snapshot returns the full table ordered by well id then date.
func (s *RateStore) Snapshot() []decline.RateRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, rows := range s.data {
		total += len(rows)
	}
	out := make([]decline.RateRecord, 0, total)
	for _, rows := range s.data {
		out = append(out, rows...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if c := strings.Compare(out[i].WellID, out[j].WellID); c != 0 {
			return c < 0
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
