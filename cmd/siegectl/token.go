package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/atayl16/siege-clan-tracker/internal/service"
)

func tokenCommand() *cobra.Command {
	var (
		accountID string
		username  string
		admin     bool
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an access token for an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if accountID == "" {
				return errors.New("--account-id is required")
			}
			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			token, expires, err := service.NewTokenService(rt.cfg.JWT).Issue(accountID, username, admin)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expires.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&accountID, "account-id", "", "account the token identifies")
	cmd.Flags().StringVar(&username, "username", "", "username claim")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant the admin claim")
	return cmd
}
