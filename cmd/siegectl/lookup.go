package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atayl16/siege-clan-tracker/internal/app"
	"github.com/atayl16/siege-clan-tracker/internal/stats"
)

func lookupCommand() *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Resolve a username to its statistics service id and totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(username) == "" {
				return errors.New("--username is required")
			}
			return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
				payload, err := c.Players.FetchByUsername(ctx, username)
				if err != nil {
					return err
				}
				totals, _ := stats.PlayerTotals(payload)
				fmt.Fprintf(cmd.OutOrStdout(), "wom id %v  name %q  exp %d  ehb %.2f\n",
					payload["id"], totals.DisplayName, totals.Experience, totals.EHB)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "in-game name")
	return cmd
}
