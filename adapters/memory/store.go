// Package memory provides an in-process pushcomm.Store.
//
// It keeps records in a map keyed by location and the journal in a slice.
// Useful for tests, examples and single-process deployments that do not need
// durability.
package memory

import (
	"context"
	"sync"

	"github.com/coregx/pushcomm"
	"github.com/coregx/pushcomm/model"
)

// Store implements pushcomm.Store in memory.
type Store struct {
	mu      sync.RWMutex
	records map[model.Location]model.Record
	events  []model.Event
	commits int
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{records: make(map[model.Location]model.Record)}
}

// Get loads the record at loc.
func (s *Store) Get(_ context.Context, loc model.Location) (model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[loc]
	if !ok {
		return model.Record{}, pushcomm.ErrNoData
	}
	return cloneRecord(rec), nil
}

// Commit applies batch under the write lock.
func (s *Store) Commit(ctx context.Context, batch *pushcomm.Batch) ([]model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, pushcomm.NewErrorWithCause(pushcomm.ErrCodeDatabase, "commit canceled", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, loc := range batch.Deletes {
		delete(s.records, loc)
	}
	for _, rec := range batch.Puts {
		s.records[rec.Location] = cloneRecord(rec)
	}

	next := int64(len(s.events))
	stored := make([]model.Event, len(batch.Events))
	for i, ev := range batch.Events {
		next++
		ev.Seq = next
		ev.Payload = append([]byte(nil), ev.Payload...)
		stored[i] = ev
	}
	s.events = append(s.events, stored...)
	s.commits++

	return append([]model.Event(nil), stored...), nil
}

// ListEvents returns up to limit events after afterSeq.
func (s *Store) ListEvents(_ context.Context, afterSeq int64, limit int) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Event{}
	if afterSeq < 0 {
		afterSeq = 0
	}
	// Seq n lives at index n-1.
	for i := afterSeq; i < int64(len(s.events)) && len(out) < limit; i++ {
		out = append(out, s.events[i])
	}
	return out, nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Commits returns the number of batches applied so far.
func (s *Store) Commits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commits
}

func cloneRecord(rec model.Record) model.Record {
	rec.Body = append([]byte(nil), rec.Body...)
	return rec
}
