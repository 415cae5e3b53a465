package pushcomm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coregx/pushcomm/model"
	"github.com/coregx/pushcomm/retry"
	"github.com/google/uuid"
)

// EventPublisher forwards journal events to downstream consumers.
// adapters/natsbus provides a NATS JetStream implementation.
type EventPublisher interface {
	// Publish delivers one event. An error means the event was not accepted
	// and will be offered again.
	Publish(ctx context.Context, event model.Event) error
}

// EventRelay tails the event journal and publishes each entry in sequence
// order. Delivery is at-least-once: the cursor moves past an event only after
// it was published, and a failed event is retried after a backoff delay before
// anything newer is sent.
//
// Thread safety: Safe for concurrent use. Batches are processed one at a time.
type EventRelay struct {
	source        EventLog
	publisher     EventPublisher
	retryStrategy retry.Strategy
	logger        Logger
	batchSize     int
	now           func() time.Time
	cursorStore   RecordStore
	cursorName    string

	mu          sync.Mutex
	cursor      int64
	failures    int
	nextAttempt time.Time
	restored    bool
}

// NewEventRelay creates a relay.
//
// Required options:
//   - WithRelaySource
//   - WithPublisher
//   - WithRelayLogger
//
// Optional options:
//   - WithRetryStrategy (default retry.DefaultStrategy())
//   - WithBatchSize (default 100)
//   - WithStartAfter (default 0, the start of the journal)
//   - WithCursorStore (default none: the cursor lives in memory only)
func NewEventRelay(opts ...RelayOption) (*EventRelay, error) {
	r := &EventRelay{
		retryStrategy: retry.DefaultStrategy(),
		batchSize:     100,
		now:           time.Now,
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, "failed to apply relay option", err)
		}
	}

	if r.source == nil {
		return nil, fmt.Errorf("%w: EventLog is required (use WithRelaySource)", ErrInvalidConfiguration)
	}
	if r.publisher == nil {
		return nil, fmt.Errorf("%w: EventPublisher is required (use WithPublisher)", ErrInvalidConfiguration)
	}
	if r.logger == nil {
		return nil, fmt.Errorf("%w: Logger is required (use WithRelayLogger)", ErrInvalidConfiguration)
	}

	return r, nil
}

// Cursor returns the sequence number of the last published event.
// A persisted cursor is only loaded by the first RelayBatch.
func (r *EventRelay) Cursor() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor
}

// RelayBatch publishes the next batch of journal events.
//
// It stops at the first publish failure and schedules the retry according to
// the strategy; calls made before that time return immediately. Returns the
// number of events published.
func (r *EventRelay) RelayBatch(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.now().Before(r.nextAttempt) {
		return 0, nil
	}

	if err := r.restoreCursor(ctx); err != nil {
		return 0, err
	}

	events, err := r.source.ListEvents(ctx, r.cursor, r.batchSize)
	if err != nil {
		return 0, wrapStoreError("failed to read journal", err)
	}

	published := 0
	var publishErr error
	for _, ev := range events {
		if err := r.publisher.Publish(ctx, ev); err != nil {
			r.handleFailure(ev, err)
			publishErr = NewErrorWithCause(ErrCodeDelivery, "failed to publish event", err)
			break
		}
		r.cursor = ev.Seq
		r.failures = 0
		r.nextAttempt = time.Time{}
		published++
	}

	if published > 0 {
		r.saveCursor(ctx)
	}
	return published, publishErr
}

// restoreCursor loads the persisted cursor once. A persisted position behind
// WithStartAfter is ignored.
func (r *EventRelay) restoreCursor(ctx context.Context) error {
	if r.cursorStore == nil || r.restored {
		return nil
	}

	rec, err := r.cursorStore.Get(ctx, model.RelayCursorLocation(r.cursorName))
	if IsNoData(err) {
		r.restored = true
		return nil
	}
	if err != nil {
		return wrapStoreError("failed to load relay cursor", err)
	}

	var saved model.RelayCursor
	if err := rec.Decode(&saved); err != nil {
		return NewErrorWithCause(ErrCodeDatabase, "corrupt relay cursor", err)
	}
	if saved.Seq > r.cursor {
		r.cursor = saved.Seq
	}
	r.restored = true
	r.logger.Infof("Relay %s resuming after seq=%d", r.cursorName, r.cursor)
	return nil
}

// saveCursor persists the cursor. A failed save only widens the window of
// events re-sent after a restart, so it is logged and not returned.
func (r *EventRelay) saveCursor(ctx context.Context) {
	if r.cursorStore == nil {
		return
	}

	cursor := model.RelayCursor{Name: r.cursorName, Seq: r.cursor, UpdatedAt: r.now()}
	rec, err := model.EncodeRecord(model.RelayCursorLocation(r.cursorName), model.KindRelayCursor, cursor, cursor.UpdatedAt)
	if err != nil {
		r.logger.Warnf("Failed to encode relay cursor: %v", err)
		return
	}

	batch := &Batch{RequestID: uuid.NewString(), Puts: []model.Record{rec}}
	if _, err := r.cursorStore.Commit(ctx, batch); err != nil {
		r.logger.Warnf("Failed to persist relay cursor at seq=%d: %v", r.cursor, err)
	}
}

func (r *EventRelay) handleFailure(ev model.Event, err error) {
	r.failures++
	delay := r.retryStrategy.CalculateRetryDelay(r.failures)
	r.nextAttempt = r.now().Add(delay)

	if r.retryStrategy.ShouldAlert(r.failures) {
		r.logger.Errorf("Publishing stalled at seq=%d after %d consecutive failures (next retry in %v): %v",
			ev.Seq, r.failures, delay, err)
		return
	}
	r.logger.Warnf("Publish failed for seq=%d kind=%s (failures=%d, next retry in %v): %v",
		ev.Seq, ev.Kind, r.failures, delay, err)
}

// Run relays continuously until ctx is canceled, polling at interval.
//
// This method blocks and should typically be run in a goroutine.
//
// Example:
//
//	go relay.Run(ctx, time.Second)
func (r *EventRelay) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("Event relay started")

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Event relay stopped")
			return
		case <-ticker.C:
			r.drain(ctx)
		}
	}
}

// drain publishes full batches back to back until the journal is caught up
// or a publish fails.
func (r *EventRelay) drain(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := r.RelayBatch(ctx)
		if err != nil {
			r.logger.Debugf("Relay batch ended early: %v", err)
			return
		}
		if n > 0 {
			r.logger.Debugf("Relayed %d events (cursor=%d)", n, r.Cursor())
		}
		if n < r.batchSize {
			return
		}
	}
}

// GetRetrySchedule returns a human-readable description of the retry schedule.
func (r *EventRelay) GetRetrySchedule() string {
	return r.retryStrategy.GetRetrySchedule()
}
