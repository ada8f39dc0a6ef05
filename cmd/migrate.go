package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"neosure-anc-server/internal/models"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, db, err := bootstrap()
			if err != nil {
				return err
			}
			defer log.Sync()

			if err := models.Migrate(db); err != nil {
				return err
			}
			log.Info("schema migrated")
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
			return nil
		},
	}
}
