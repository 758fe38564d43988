package main

import (
	"fmt"

	"fee-management-system/app/routes/auth"

	"github.com/spf13/cobra"
)

func newAddUserCmd(c *cli) *cobra.Command {
	var req auth.RegisterRequest

	cmd := &cobra.Command{
		Use:   "add-user",
		Short: "Create an admin or parent account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			user, err := auth.NewHandler(store, nil, c.logger).Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s <%s> id=%s\n", user.Role, user.Name, user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "full name")
	cmd.Flags().StringVar(&req.Email, "email", "", "login email")
	cmd.Flags().StringVar(&req.Password, "password", "", "initial password, at least 6 characters")
	cmd.Flags().StringVar(&req.UserType, "role", "admin", "admin or parent")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}
