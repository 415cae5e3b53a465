package relica

import (
	"context"
	"fmt"
	"time"

	"github.com/coregx/pushcomm"
	"github.com/coregx/pushcomm/model"
	"github.com/coregx/relica"
)

type eventRow struct {
	Seq       int64  `db:"seq"`
	RequestID string `db:"request_id"`
	Kind      string `db:"kind"`
	Payload   string `db:"payload"`
	CreatedAt int64  `db:"created_at"`
}

func (r eventRow) toModel() model.Event {
	return model.Event{
		Seq:       r.Seq,
		RequestID: r.RequestID,
		Kind:      model.EventKind(r.Kind),
		Payload:   []byte(r.Payload),
		CreatedAt: time.Unix(0, r.CreatedAt).UTC(),
	}
}

// ListEvents returns up to limit journal entries with seq > afterSeq.
func (s *Store) ListEvents(ctx context.Context, afterSeq int64, limit int) ([]model.Event, error) {
	var rows []eventRow

	err := s.db.WithContext(ctx).Select("*").
		From(s.eventTable()).
		Where("seq > ?", afterSeq).
		OrderBy("seq ASC").
		Limit(int64(limit)).
		WithContext(ctx).
		All(&rows)

	if err != nil {
		return nil, pushcomm.NewErrorWithCause(pushcomm.ErrCodeDatabase, "failed to list events", err)
	}

	events := make([]model.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.toModel())
	}
	return events, nil
}

// journalHead is the highest sequence number in the journal.
type journalHead struct {
	Seq int64 `db:"head"`
}

// Commit applies batch in one relica transaction: deletes, upserted records,
// then journal entries numbered after the current head.
func (s *Store) Commit(ctx context.Context, batch *pushcomm.Batch) ([]model.Event, error) {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, pushcomm.NewErrorWithCause(pushcomm.ErrCodeDatabase, "failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	stored, err := s.applyBatch(tx, batch)
	if err != nil {
		return nil, pushcomm.NewErrorWithCause(pushcomm.ErrCodeDatabase, "failed to apply batch", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, pushcomm.NewErrorWithCause(pushcomm.ErrCodeDatabase, "failed to commit transaction", err)
	}
	return stored, nil
}

func (s *Store) applyBatch(tx *relica.Tx, batch *pushcomm.Batch) ([]model.Event, error) {
	for _, loc := range batch.Deletes {
		_, err := tx.Delete(s.recordTable()).
			Where("location = ?", loc.String()).
			Execute()
		if err != nil {
			return nil, fmt.Errorf("delete %s: %w", loc, err)
		}
	}

	for _, rec := range batch.Puts {
		_, err := tx.Builder().Upsert(s.recordTable(), map[string]interface{}{
			"location":   rec.Location.String(),
			"kind":       string(rec.Kind),
			"body":       string(rec.Body),
			"updated_at": rec.UpdatedAt.UnixNano(),
		}).OnConflict("location").DoUpdate("kind", "body", "updated_at").Execute()
		if err != nil {
			return nil, fmt.Errorf("upsert %s: %w", rec.Location, err)
		}
	}

	if len(batch.Events) == 0 {
		return []model.Event{}, nil
	}

	var head journalHead
	err := tx.Select("COALESCE(MAX(seq), 0) AS head").
		From(s.eventTable()).
		One(&head)
	if err != nil {
		return nil, fmt.Errorf("read journal head: %w", err)
	}

	last := head.Seq
	stored := make([]model.Event, 0, len(batch.Events))
	for _, ev := range batch.Events {
		last++
		ev.Seq = last
		_, err := tx.Insert(s.eventTable(), map[string]interface{}{
			"seq":        ev.Seq,
			"request_id": ev.RequestID,
			"kind":       string(ev.Kind),
			"payload":    string(ev.Payload),
			"created_at": ev.CreatedAt.UnixNano(),
		}).Execute()
		if err != nil {
			return nil, fmt.Errorf("append event %d: %w", ev.Seq, err)
		}
		stored = append(stored, ev)
	}
	return stored, nil
}
