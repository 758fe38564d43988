package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"fee-management-system/app/config"
	"fee-management-system/app/logging"
	"fee-management-system/app/server"
	"fee-management-system/app/services"

	"github.com/spf13/cobra"
)

// cli carries what the subcommands share. Zero fields are filled from the
// environment before a command runs.
type cli struct {
	cfg       *config.Config
	logger    *slog.Logger
	clock     services.Clock
	openStore func(ctx context.Context) (services.Store, func(), error)
}

func (c *cli) setup() error {
	if c.cfg == nil {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		c.cfg = cfg
	}
	if c.logger == nil {
		c.logger = logging.NewWithWriter(os.Stderr, c.cfg.Log)
	}
	if c.clock == nil {
		loc, err := c.cfg.Location()
		if err != nil {
			c.logger.Warn("timezone not available, using UTC+3", "error", err)
		}
		c.clock = func() time.Time { return time.Now().In(loc) }
	}
	if c.openStore == nil {
		c.openStore = func(ctx context.Context) (services.Store, func(), error) {
			return server.OpenStore(ctx, c.cfg, c.logger)
		}
	}
	return nil
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "feesctl",
		Short:         "Maintenance commands for the fee management system",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}

	root.AddCommand(newMigrateCmd(c))
	root.AddCommand(newAddUserCmd(c))
	root.AddCommand(newOverdueCmd(c))
	return root
}
