// Package cli wires the pushcomm-server commands.
package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"

	"github.com/coregx/pushcomm"
	"github.com/coregx/pushcomm/adapters/relica"
	"github.com/coregx/pushcomm/adapters/zaplog"
	"github.com/coregx/pushcomm/cmd/pushcomm-server/internal/config"
)

// RootOptions holds flags shared by every subcommand.
type RootOptions struct {
	ConfigFile string
	EnvPath    string
}

// NewRootCommand creates the pushcomm-server command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "pushcomm-server",
		Short:         "Push communication directory server",
		Long:          "Serves the channel/subscriber/delegate directory over HTTP and relays its event journal to NATS.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "path to config file (default: ./config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.EnvPath, "env", "config/", "directory holding .env files")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}

// bootstrap loads configuration and builds the logger.
func bootstrap(opts *RootOptions) (*config.Config, *zaplog.Logger, error) {
	cfg, err := config.Load(opts.ConfigFile, opts.EnvPath)
	if err != nil {
		return nil, nil, err
	}

	logger, err := zaplog.New(zaplog.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags:      map[string]string{"service": "pushcomm-server"},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, nil
}

// openDatabase dials the database with bounded retries and applies migrations.
func openDatabase(ctx context.Context, cfg *config.Config, logger pushcomm.Logger) (*sql.DB, error) {
	var db *sql.DB
	attempt := 0
	dial := func() error {
		attempt++
		var err error
		db, err = relica.Open(ctx, cfg.Database.Driver, cfg.Database.DSN())
		if err != nil {
			logger.Warnf("Database connection attempt %d failed: %v", attempt, err)
		}
		return err
	}

	if err := backoff.Retry(dial, backoff.WithContext(cfg.Connect.Strategy().NewBackOff(), ctx)); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Database.Driver, err)
	}
	logger.Infof("Connected to %s database", cfg.Database.Driver)

	if err := pushcomm.Migrate(ctx, db, cfg.Database.Driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	logger.Info("Database schema is up to date")

	return db, nil
}
