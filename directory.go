package pushcomm

import (
	"context"
	"fmt"
	"time"

	"github.com/coregx/pushcomm/model"
	"github.com/google/uuid"
)

// Receipt describes a committed request.
type Receipt struct {
	RequestID string        `json:"requestId"`
	Events    []model.Event `json:"events"`
}

// Directory applies signed requests to the channel/subscriber/delegate records.
//
// Every request locks the locations it names, stages its reads and writes,
// and commits writes plus events through a single store Commit. A request that
// fails leaves no writes and no events behind.
//
// Thread safety: Safe for concurrent use. Requests over disjoint locations run
// in parallel; overlapping requests serialize.
type Directory struct {
	store       Store
	logger      Logger
	now         func() time.Time
	sinks       []EventSink
	strictPause bool
	locks       *lockTable
}

// NewDirectory creates a Directory.
//
// Required options:
//   - WithStore
//
// Optional options:
//   - WithLogger (default NoopLogger)
//   - WithClock (default time.Now in UTC)
//   - WithEventSinks
//   - WithStrictPause
func NewDirectory(opts ...DirectoryOption) (*Directory, error) {
	d := &Directory{
		logger: &NoopLogger{},
		now:    func() time.Time { return time.Now().UTC() },
		locks:  newLockTable(),
	}

	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply directory option", err)
		}
	}

	if d.store == nil {
		return nil, fmt.Errorf("%w: Store is required (use WithStore)", ErrInvalidConfiguration)
	}

	return d, nil
}

// execute runs fn as one atomic request over locs.
func (d *Directory) execute(ctx context.Context, op string, locs []model.Location, fn func(tx *txn) error) (*Receipt, error) {
	release := d.locks.acquire(locs)
	defer release()

	requestID := uuid.NewString()
	tx := newTxn(ctx, d.store, requestID, d.now())

	if err := fn(tx); err != nil {
		d.logger.Debugf("%s rejected (request_id=%s): %v", op, requestID, err)
		return nil, err
	}

	receipt := &Receipt{RequestID: requestID, Events: []model.Event{}}

	batch := tx.batch()
	if batch.IsEmpty() {
		d.logger.Debugf("%s accepted with no changes (request_id=%s)", op, requestID)
		return receipt, nil
	}

	events, err := d.store.Commit(ctx, batch)
	if err != nil {
		d.logger.Errorf("%s commit failed (request_id=%s): %v", op, requestID, err)
		return nil, wrapStoreError("failed to commit request", err)
	}
	receipt.Events = events

	d.logger.Debugf("%s committed (request_id=%s, writes=%d, deletes=%d, events=%d)",
		op, requestID, len(batch.Puts), len(batch.Deletes), len(events))

	d.dispatch(ctx, events)
	return receipt, nil
}

// dispatch hands committed events to every sink.
func (d *Directory) dispatch(ctx context.Context, events []model.Event) {
	for _, sink := range d.sinks {
		for _, ev := range events {
			if err := sink.HandleEvent(ctx, ev); err != nil {
				d.logger.Warnf("Event sink failed for %s (seq=%d): %v", ev.Kind, ev.Seq, err)
			}
		}
	}
}

// loadRegistry reads the Registry inside tx, failing with ErrNotInitialized
// when the directory has not been initialized.
func loadRegistry(tx *txn) (model.Registry, error) {
	var reg model.Registry
	found, err := tx.load(model.RegistryLocation(), &reg)
	if err != nil {
		return reg, err
	}
	if !found {
		return reg, ErrNotInitialized
	}
	return reg, nil
}

func putRegistry(tx *txn, reg model.Registry) error {
	return tx.put(model.RegistryLocation(), model.KindRegistry, reg)
}
