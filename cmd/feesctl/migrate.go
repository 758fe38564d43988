package main

import (
	"fmt"

	"fee-management-system/app/config"
	"fee-management-system/app/database"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Database.Driver != config.DriverPostgres {
				return errors.Errorf("migrate needs the postgres driver, got %q", c.cfg.Database.Driver)
			}

			db, err := config.InitDB(cmd.Context(), c.cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := database.RunMigrations(cmd.Context(), db, c.logger); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		},
	}
}
