// Package pushcomm provides a push communication directory: the registry of
// channels, subscribers, delegates and notification preferences behind a push
// notification network, with an append-only event journal that downstream
// services consume.
//
// Works both as a library embedded in your application AND as a standalone
// service with a signed REST API (cmd/pushcomm-server).
//
// # Features
//
//   - Atomic requests: every operation commits its writes and events together or not at all
//   - Deterministic record locations derived from the identities that key them
//   - Per-location locking so requests over disjoint records run in parallel
//   - Administrator controls: pause, address configuration, ownership transfer
//   - Channel delegates authorized to send notifications on a channel's behalf
//   - Event journal with monotonically increasing sequence numbers
//   - Event relay with exponential backoff for at-least-once publishing to NATS JetStream
//   - Multi-Database Support: MySQL, PostgreSQL, SQLite via Relica adapters
//   - Embedded Migrations for easy database setup
//   - Pluggable architecture: bring your own Logger, EventSink, EventPublisher
//
// # Quick Start
//
// Apply the migrations, then build a Directory over a Store:
//
//	db, _ := relica.Open(ctx, "sqlite3", "pushcomm.db")
//	_ = pushcomm.Migrate(ctx, db, "sqlite3")
//
//	store := relica.NewStore(db, "sqlite3")
//	directory, err := pushcomm.NewDirectory(
//	    pushcomm.WithStore(store),
//	    pushcomm.WithLogger(logger),
//	)
//
// Requests name their signer explicitly; authenticating the signer is the
// caller's job:
//
//	receipt, err := directory.Subscribe(ctx, subscriber, channel)
//	if errors.Is(err, pushcomm.ErrContractPaused) {
//	    // try later
//	}
//
// Relay the journal to a bus:
//
//	relay, _ := pushcomm.NewEventRelay(
//	    pushcomm.WithRelaySource(store),
//	    pushcomm.WithPublisher(natsPublisher),
//	)
//	go relay.Run(ctx, time.Second)
//
// # Errors
//
// Every rejected request returns an *Error whose Code identifies the reason.
// Match with errors.Is against the exported sentinels (ErrUnauthorized,
// ErrNotSubscribed, ...); matching compares codes, not messages.
//
// # Architecture
//
//   - model/: Domain records, identities, locations and events
//   - adapters/relica: SQL Store (MySQL, PostgreSQL, SQLite)
//   - adapters/memory: In-process Store for tests and embedding
//   - adapters/natsbus: JetStream EventPublisher
//   - adapters/zaplog: zap Logger with optional Sentry reporting
//   - retry/: Backoff schedules
//   - cmd/pushcomm-server: Standalone REST service
package pushcomm
