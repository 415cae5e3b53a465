package pushcomm

import (
	"context"

	"github.com/coregx/pushcomm/model"
)

// Batch is the set of changes produced by one request. A store applies a batch
// all-or-nothing: either every put, delete and event becomes visible, or none.
type Batch struct {
	RequestID string
	Puts      []model.Record
	Deletes   []model.Location
	Events    []model.Event
}

// IsEmpty reports whether the batch changes nothing.
func (b *Batch) IsEmpty() bool {
	return len(b.Puts) == 0 && len(b.Deletes) == 0 && len(b.Events) == 0
}

// RecordStore persists directory records at their deterministic locations.
//
// Implementations must be safe for concurrent use. Exactly one Directory may
// write to a store at a time.
type RecordStore interface {
	// Get loads the record at loc.
	// Returns ErrNoData if nothing is stored there.
	Get(ctx context.Context, loc model.Location) (model.Record, error)

	// Commit applies batch atomically, assigning journal sequence numbers to
	// its events in order. Returns the events as stored.
	Commit(ctx context.Context, batch *Batch) ([]model.Event, error)
}

// EventLog exposes the ordered event journal to consumers.
type EventLog interface {
	// ListEvents returns up to limit events with Seq > afterSeq, ordered by Seq.
	// Returns an empty slice when the journal has nothing newer.
	ListEvents(ctx context.Context, afterSeq int64, limit int) ([]model.Event, error)
}

// Store combines record persistence with the event journal.
type Store interface {
	RecordStore
	EventLog
}
