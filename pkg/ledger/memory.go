package ledger

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-process Store backed by a slice. Records are kept
// in append order, which is timestamp order for live recording; Query
// sorts defensively so backdated records do not break ordering.
type MemoryStore struct {
	mu      sync.RWMutex
	records []*Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append persists one record.
func (s *MemoryStore) Append(_ context.Context, record *Record) error {
	clone := *record
	s.mu.Lock()
	s.records = append(s.records, &clone)
	s.mu.Unlock()
	return nil
}

// Query returns all records matching the filter, ordered by timestamp
// ascending.
func (s *MemoryStore) Query(_ context.Context, filter Filter) ([]*Record, error) {
	s.mu.RLock()
	var out []*Record
	for _, r := range s.records {
		if filter.Matches(r) {
			clone := *r
			out = append(out, &clone)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// SumCost returns the total cost of records matching the filter.
func (s *MemoryStore) SumCost(_ context.Context, filter Filter) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total float64
	for _, r := range s.records {
		if filter.Matches(r) {
			total += r.Cost
		}
	}
	return total, nil
}

// DeleteBefore removes records with timestamps strictly before cutoff.
func (s *MemoryStore) DeleteBefore(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	removed := 0
	for _, r := range s.records {
		if r.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, r)
	}
	// Release references past the new length.
	for i := len(kept); i < len(s.records); i++ {
		s.records[i] = nil
	}
	s.records = kept
	return removed, nil
}

// Close releases store resources. It is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
