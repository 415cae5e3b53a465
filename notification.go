package pushcomm

import (
	"context"

	"github.com/coregx/pushcomm/model"
)

// EventSink observes events after their request has committed.
//
// Sinks run synchronously on the request goroutine while the request's
// locations are still locked, so keep them fast. Errors are logged by the
// directory and never fail the request.
type EventSink interface {
	HandleEvent(ctx context.Context, event model.Event) error
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(ctx context.Context, event model.Event) error

// HandleEvent calls f.
func (f EventSinkFunc) HandleEvent(ctx context.Context, event model.Event) error {
	return f(ctx, event)
}

// NoOpEventSink ignores every event.
type NoOpEventSink struct{}

// HandleEvent does nothing.
func (n *NoOpEventSink) HandleEvent(_ context.Context, _ model.Event) error {
	return nil
}

// LoggingEventSink logs a one-line summary of every event.
type LoggingEventSink struct {
	logger Logger
}

// NewLoggingEventSink creates a new LoggingEventSink.
func NewLoggingEventSink(logger Logger) *LoggingEventSink {
	return &LoggingEventSink{logger: logger}
}

// HandleEvent logs the event.
func (n *LoggingEventSink) HandleEvent(_ context.Context, event model.Event) error {
	switch event.Kind {
	case model.EventSendNotification:
		var p model.SendNotificationEvent
		if err := event.Decode(&p); err != nil {
			return err
		}
		n.logger.Infof("Notification: seq=%d channel=%s recipient=%s bytes=%d",
			event.Seq, p.Channel, p.Recipient, len(p.Message))
	case model.EventSubscribed, model.EventUnsubscribed:
		var p model.Subscribed
		if err := event.Decode(&p); err != nil {
			return err
		}
		n.logger.Infof("%s: seq=%d subscriber=%s channel=%s", event.Kind, event.Seq, p.Subscriber, p.Channel)
	default:
		n.logger.Infof("%s: seq=%d request_id=%s", event.Kind, event.Seq, event.RequestID)
	}
	return nil
}
