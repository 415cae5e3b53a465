package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/coregx/pushcomm"
	"github.com/coregx/pushcomm/adapters/natsbus"
	"github.com/coregx/pushcomm/adapters/relica"
	"github.com/coregx/pushcomm/adapters/zaplog"
	"github.com/coregx/pushcomm/cmd/pushcomm-server/internal/api"
	"github.com/coregx/pushcomm/cmd/pushcomm-server/internal/config"
)

const shutdownTimeout = 30 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the event relay",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap(opts)
			if err != nil {
				return err
			}
			defer logger.Sync(2 * time.Second)

			if err := serve(cmd.Context(), cfg, logger); err != nil {
				logger.Errorf("Server stopped: %v", err)
				return err
			}
			return nil
		},
	}
}

func serve(parent context.Context, cfg *config.Config, logger *zaplog.Logger) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting pushcomm-server...")

	db, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	store := relica.NewStore(db, cfg.Database.Driver)

	dirOpts := []pushcomm.DirectoryOption{
		pushcomm.WithStore(store),
		pushcomm.WithLogger(logger),
	}
	if cfg.Directory.LogEvents {
		dirOpts = append(dirOpts, pushcomm.WithEventSinks(pushcomm.NewLoggingEventSink(logger)))
	}
	if cfg.Directory.StrictPause {
		dirOpts = append(dirOpts, pushcomm.WithStrictPause())
	}

	directory, err := pushcomm.NewDirectory(dirOpts...)
	if err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	relayDone := make(chan struct{})
	if cfg.NATS.Enabled {
		publisher, err := connectNATS(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer publisher.Close()

		relay, err := pushcomm.NewEventRelay(
			pushcomm.WithRelaySource(store),
			pushcomm.WithPublisher(publisher),
			pushcomm.WithRelayLogger(logger),
			pushcomm.WithRetryStrategy(cfg.Relay.RelayStrategy()),
			pushcomm.WithBatchSize(cfg.Relay.BatchSize),
			pushcomm.WithStartAfter(cfg.Relay.StartAfter),
			pushcomm.WithCursorStore(store, cfg.NATS.StreamName),
		)
		if err != nil {
			return fmt.Errorf("failed to create relay: %w", err)
		}
		logger.Infof("Relay retry schedule: %s", relay.GetRetrySchedule())

		go func() {
			defer close(relayDone)
			relay.Run(ctx, time.Duration(cfg.Relay.IntervalMs)*time.Millisecond)
		}()
	} else {
		close(relayDone)
		logger.Info("NATS relay disabled")
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	verifier := api.NewSignatureVerifier(api.AuthConfig{
		MaxClockSkew:   time.Duration(cfg.Server.SignatureMaxSkew) * time.Second,
		NonceCacheSize: cfg.Server.NonceCacheSize,
	})
	router := api.NewRouter(api.NewHandler(directory, logger), verifier)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("HTTP server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	case err := <-serverErr:
		if err != nil {
			stop()
			<-relayDone
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown error: %v", err)
	}

	stop()
	<-relayDone

	logger.Info("Server stopped gracefully")
	return nil
}

// connectNATS dials JetStream with bounded retries.
func connectNATS(ctx context.Context, cfg *config.Config, logger pushcomm.Logger) (*natsbus.Publisher, error) {
	natsCfg := natsbus.Config{
		URL:            cfg.NATS.URL,
		StreamName:     cfg.NATS.StreamName,
		SubjectPrefix:  cfg.NATS.SubjectPrefix,
		ConnectionName: cfg.NATS.ConnectionName,
		MaxReconnects:  cfg.NATS.MaxReconnects,
		ReconnectWait:  time.Duration(cfg.NATS.ReconnectWait) * time.Second,

		DuplicateWindow: time.Duration(cfg.NATS.DuplicateWindow) * time.Second,
	}

	var publisher *natsbus.Publisher
	connect := func() error {
		var err error
		publisher, err = natsbus.NewPublisher(ctx, natsCfg, natsbus.NewConnector(), logger)
		if err != nil {
			logger.Warnf("NATS connection failed: %v", err)
		}
		return err
	}

	if err := backoff.Retry(connect, backoff.WithContext(cfg.Connect.Strategy().NewBackOff(), ctx)); err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return publisher, nil
}
