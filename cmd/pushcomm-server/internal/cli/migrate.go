package cli

import (
	"time"

	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command, which applies the schema and exits.
func NewMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the directory tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap(opts)
			if err != nil {
				return err
			}
			defer logger.Sync(2 * time.Second)

			db, err := openDatabase(cmd.Context(), cfg, logger)
			if err != nil {
				logger.Errorf("Migration failed: %v", err)
				return err
			}
			return db.Close()
		},
	}
}
