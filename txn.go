package pushcomm

import (
	"context"
	"time"

	"github.com/coregx/pushcomm/model"
)

// txn stages the reads and writes of one request. Reads see the request's own
// staged writes first and fall through to the store otherwise. Nothing reaches
// the store until the directory commits the resulting batch.
type txn struct {
	ctx       context.Context
	store     RecordStore
	requestID string
	now       time.Time

	staged map[model.Location]stagedWrite
	order  []model.Location
	events []model.Event
}

type stagedWrite struct {
	record  model.Record
	deleted bool
}

func newTxn(ctx context.Context, store RecordStore, requestID string, now time.Time) *txn {
	return &txn{
		ctx:       ctx,
		store:     store,
		requestID: requestID,
		now:       now,
		staged:    make(map[model.Location]stagedWrite),
	}
}

// load decodes the record at loc into v. It reports false when the location is
// empty, either in the store or because this request deleted it.
func (tx *txn) load(loc model.Location, v interface{}) (bool, error) {
	if w, ok := tx.staged[loc]; ok {
		if w.deleted {
			return false, nil
		}
		return true, w.record.Decode(v)
	}

	rec, err := tx.store.Get(tx.ctx, loc)
	if err != nil {
		if IsNoData(err) {
			return false, nil
		}
		return false, wrapStoreError("failed to load record", err)
	}
	if err := rec.Decode(v); err != nil {
		return false, NewErrorWithCause(ErrCodeDatabase, "corrupt record", err)
	}
	return true, nil
}

// exists reports whether loc currently holds a record.
func (tx *txn) exists(loc model.Location) (bool, error) {
	var discard map[string]interface{}
	return tx.load(loc, &discard)
}

func (tx *txn) put(loc model.Location, kind model.Kind, v interface{}) error {
	rec, err := model.EncodeRecord(loc, kind, v, tx.now)
	if err != nil {
		return NewErrorWithCause(ErrCodeValidation, "failed to encode record", err)
	}
	tx.stage(loc, stagedWrite{record: rec})
	return nil
}

func (tx *txn) remove(loc model.Location) {
	tx.stage(loc, stagedWrite{deleted: true})
}

func (tx *txn) stage(loc model.Location, w stagedWrite) {
	if _, ok := tx.staged[loc]; !ok {
		tx.order = append(tx.order, loc)
	}
	tx.staged[loc] = w
}

func (tx *txn) emit(kind model.EventKind, payload interface{}) error {
	ev, err := model.NewEvent(tx.requestID, kind, payload, tx.now)
	if err != nil {
		return NewErrorWithCause(ErrCodeValidation, "failed to encode event", err)
	}
	tx.events = append(tx.events, ev)
	return nil
}

// batch collects the staged changes in staging order.
func (tx *txn) batch() *Batch {
	b := &Batch{RequestID: tx.requestID, Events: tx.events}
	for _, loc := range tx.order {
		w := tx.staged[loc]
		if w.deleted {
			b.Deletes = append(b.Deletes, loc)
			continue
		}
		b.Puts = append(b.Puts, w.record)
	}
	return b
}

// wrapStoreError tags an untyped storage failure as a database error.
func wrapStoreError(message string, err error) error {
	if CodeOf(err) != "" {
		return err
	}
	return NewErrorWithCause(ErrCodeDatabase, message, err)
}
