package pushcomm

import (
	"fmt"
	"time"

	"github.com/coregx/pushcomm/retry"
)

// DirectoryOption configures a Directory.
//
// Example:
//
//	dir, err := pushcomm.NewDirectory(
//	    pushcomm.WithStore(store),
//	    pushcomm.WithLogger(logger),
//	    pushcomm.WithEventSinks(pushcomm.NewLoggingEventSink(logger)), // optional
//	)
type DirectoryOption func(*Directory) error

// WithStore sets the record store and event journal. Required.
func WithStore(store Store) DirectoryOption {
	return func(d *Directory) error {
		if store == nil {
			return fmt.Errorf("store cannot be nil")
		}
		d.store = store
		return nil
	}
}

// WithLogger sets the directory logger. Defaults to NoopLogger.
func WithLogger(logger Logger) DirectoryOption {
	return func(d *Directory) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		d.logger = logger
		return nil
	}
}

// WithClock overrides the time source used for record and event timestamps.
func WithClock(now func() time.Time) DirectoryOption {
	return func(d *Directory) error {
		if now == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		d.now = now
		return nil
	}
}

// WithEventSinks registers sinks that observe events after each commit.
// Sink failures are logged and never fail the request.
func WithEventSinks(sinks ...EventSink) DirectoryOption {
	return func(d *Directory) error {
		for i, s := range sinks {
			if s == nil {
				return fmt.Errorf("event sink %d is nil", i)
			}
		}
		d.sinks = append(d.sinks, sinks...)
		return nil
	}
}

// WithStrictPause makes pausing a paused directory fail with ErrAlreadyPaused
// and unpausing an unpaused one fail with ErrNotPaused. By default both are
// accepted as no-ops.
func WithStrictPause() DirectoryOption {
	return func(d *Directory) error {
		d.strictPause = true
		return nil
	}
}

// RelayOption configures an EventRelay.
type RelayOption func(*EventRelay) error

// WithRelaySource sets the journal the relay reads from. Required.
func WithRelaySource(log EventLog) RelayOption {
	return func(r *EventRelay) error {
		if log == nil {
			return fmt.Errorf("event log cannot be nil")
		}
		r.source = log
		return nil
	}
}

// WithPublisher sets the downstream publisher. Required.
func WithPublisher(publisher EventPublisher) RelayOption {
	return func(r *EventRelay) error {
		if publisher == nil {
			return fmt.Errorf("publisher cannot be nil")
		}
		r.publisher = publisher
		return nil
	}
}

// WithRelayLogger sets the relay logger. Required.
func WithRelayLogger(logger Logger) RelayOption {
	return func(r *EventRelay) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		r.logger = logger
		return nil
	}
}

// WithRetryStrategy sets the backoff schedule applied after a failed publish.
// Defaults to retry.DefaultStrategy().
func WithRetryStrategy(strategy retry.Strategy) RelayOption {
	return func(r *EventRelay) error {
		r.retryStrategy = strategy
		return nil
	}
}

// WithBatchSize sets how many journal entries are read per poll. Default 100.
func WithBatchSize(size int) RelayOption {
	return func(r *EventRelay) error {
		if size <= 0 {
			return fmt.Errorf("batch size must be > 0, got %d", size)
		}
		r.batchSize = size
		return nil
	}
}

// WithStartAfter resumes relaying after the given journal sequence number.
func WithStartAfter(seq int64) RelayOption {
	return func(r *EventRelay) error {
		if seq < 0 {
			return fmt.Errorf("start sequence must be >= 0, got %d", seq)
		}
		r.cursor = seq
		return nil
	}
}

// WithCursorStore persists the relay position under name in store, so a
// restarted relay resumes where it stopped instead of replaying the journal.
func WithCursorStore(store RecordStore, name string) RelayOption {
	return func(r *EventRelay) error {
		if store == nil {
			return fmt.Errorf("cursor store cannot be nil")
		}
		if name == "" {
			return fmt.Errorf("cursor name is required")
		}
		r.cursorStore = store
		r.cursorName = name
		return nil
	}
}

// WithRelayClock overrides the time source used to schedule retries.
func WithRelayClock(now func() time.Time) RelayOption {
	return func(r *EventRelay) error {
		if now == nil {
			return fmt.Errorf("clock cannot be nil")
		}
		r.now = now
		return nil
	}
}
