package main

import (
	"github.com/spf13/cobra"

	"github.com/deppfellow/storeops/internal/database"
)

func migrateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.close()

			db, err := database.New(a.cfg, &a.logger, a.loggerService)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(cmd.Context(), &a.logger); err != nil {
				return err
			}

			a.logger.Info().Str("database", string(db.Dialect)).Msg("migrations applied")
			return nil
		},
	}
}
