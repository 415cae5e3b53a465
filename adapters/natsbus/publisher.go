// Package natsbus publishes directory journal events to NATS JetStream.
//
// Events land on "<prefix>.<kind>" subjects (for example
// "pushcomm.events.SendNotification") with the journal sequence as the
// JetStream message id. The stream drops a repeated id only inside its
// duplicate window (Config.DuplicateWindow); older re-sends are kept off the
// wire by the relay's persisted cursor.
package natsbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/coregx/pushcomm"
	"github.com/coregx/pushcomm/model"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Conn is the subset of *nats.Conn the publisher uses.
type Conn interface {
	Close()
	ConnectedUrl() string
}

// JetStream is the subset of jetstream.JetStream the publisher uses.
type JetStream interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
	CreateOrUpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
}

// Connector opens NATS connections. Swap it out in tests.
type Connector interface {
	Connect(url string, options ...nats.Option) (Conn, JetStream, error)
}

type natsConnector struct{}

// NewConnector returns a Connector backed by nats.Connect.
func NewConnector() Connector {
	return natsConnector{}
}

func (natsConnector) Connect(url string, options ...nats.Option) (Conn, JetStream, error) {
	nc, err := nats.Connect(url, options...)
	if err != nil {
		return nil, nil, err
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, err
	}
	return nc, js, nil
}

// Config holds the JetStream connection settings.
type Config struct {
	URL            string
	StreamName     string
	SubjectPrefix  string
	ConnectionName string
	MaxReconnects  int
	ReconnectWait  time.Duration

	// DuplicateWindow is the stream's Msg-Id dedup window. Zero keeps the
	// server default (two minutes).
	DuplicateWindow time.Duration
}

// Publisher implements pushcomm.EventPublisher.
type Publisher struct {
	nc     Conn
	js     JetStream
	cfg    Config
	logger pushcomm.Logger
}

// NewPublisher connects, makes sure the stream exists and returns a publisher.
func NewPublisher(ctx context.Context, cfg Config, connector Connector, logger pushcomm.Logger) (*Publisher, error) {
	if cfg.SubjectPrefix == "" {
		return nil, pushcomm.NewError(pushcomm.ErrCodeConfiguration, "nats subject prefix is required")
	}
	if cfg.StreamName == "" {
		return nil, pushcomm.NewError(pushcomm.ErrCodeConfiguration, "nats stream name is required")
	}

	opts := []nats.Option{
		nats.Name(cfg.ConnectionName),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warnf("Disconnected from NATS: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Infof("Reconnected to NATS at %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, js, err := connector.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, pushcomm.NewErrorWithCause(pushcomm.ErrCodeDelivery, "failed to connect to NATS", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       cfg.StreamName,
		Subjects:   []string{cfg.SubjectPrefix + ".>"},
		Duplicates: cfg.DuplicateWindow,
	})
	if err != nil {
		nc.Close()
		return nil, pushcomm.NewErrorWithCause(pushcomm.ErrCodeDelivery, "failed to create stream", err)
	}

	logger.Infof("Publishing events to NATS stream %s at %s", cfg.StreamName, nc.ConnectedUrl())
	return &Publisher{nc: nc, js: js, cfg: cfg, logger: logger}, nil
}

// Publish sends one journal event.
func (p *Publisher) Publish(ctx context.Context, event model.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := p.Subject(event.Kind)
	_, err = p.js.Publish(ctx, subject, data, jetstream.WithMsgID(strconv.FormatInt(event.Seq, 10)))
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}

	p.logger.Debugf("Published seq=%d to %s", event.Seq, subject)
	return nil
}

// Subject returns the subject events of kind are published on.
func (p *Publisher) Subject(kind model.EventKind) string {
	return p.cfg.SubjectPrefix + "." + string(kind)
}

// Close closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc == nil {
		return
	}
	p.nc.Close()
}
