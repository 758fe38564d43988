package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"fee-management-system/app/services"

	"github.com/spf13/cobra"
)

func newOverdueCmd(c *cli) *cobra.Command {
	var asJSON, remind bool

	cmd := &cobra.Command{
		Use:   "overdue",
		Short: "List parents with overdue fees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			reports := services.NewReports(store, store, store, c.clock)
			overdue, err := reports.OverdueGuardians(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(overdue); err != nil {
					return err
				}
			} else if len(overdue) == 0 {
				fmt.Fprintln(out, "No overdue parents")
			} else {
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tEMAIL\tFEES\tAMOUNT\tDAYS OVERDUE")
				for _, g := range overdue {
					fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\n", g.Name, g.Email, g.FeeCount, g.Amount.StringFixed(2), g.DaysOverdue)
				}
				if err := w.Flush(); err != nil {
					return err
				}
			}

			if !remind || len(overdue) == 0 {
				return nil
			}
			fanout := services.NewNotificationFanout(store, store, c.clock, c.logger)
			reminders := services.NewReminders(store, reports, fanout, c.cfg.Reminders.AuthorEmail, c.logger)
			sent, err := reminders.SendOverdueReminders(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Reminder sent to %d parents\n", sent)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	cmd.Flags().BoolVar(&remind, "remind", false, "also send the overdue reminder notification")
	return cmd
}
