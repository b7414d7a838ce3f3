package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atayl16/siege-clan-tracker/internal/app"
	"github.com/atayl16/siege-clan-tracker/internal/dto"
	"github.com/atayl16/siege-clan-tracker/internal/models"
	"github.com/atayl16/siege-clan-tracker/internal/rank"
)

func syncGoalsCommand() *cobra.Command {
	var (
		womID     int64
		accountID string
	)
	cmd := &cobra.Command{
		Use:   "sync-goals",
		Short: "Synchronize goal progress, for one pair or every open goal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (womID == 0) != (accountID == "") {
				return errors.New("--wom-id and --account-id must be given together")
			}
			return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
				var (
					result dto.SyncGoalsResult
					err    error
				)
				if womID != 0 {
					result, err = c.Goals.Sync(ctx, models.SystemActor, dto.SyncGoalsRequest{WomID: womID, AccountID: accountID})
				} else {
					result, err = c.Scheduler.SyncAll(ctx)
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "updated %d goals, %d newly completed\n", result.Updated, result.Completed)
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&womID, "wom-id", 0, "character id")
	cmd.Flags().StringVar(&accountID, "account-id", "", "account holding the goals")
	return cmd
}

func refreshRosterCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh-roster",
		Short: "Re-fetch totals for every visible character",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
				summary, err := c.Roster.Refresh(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "refreshed %d, not found %d, failed %d\n",
					summary.Refreshed, summary.NotFound, summary.Failed)
				return nil
			})
		},
	}
}

func rankAuditCommand() *cobra.Command {
	var fix bool
	cmd := &cobra.Command{
		Use:   "rank-audit",
		Short: "List characters whose role does not match their statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
				views, err := c.Ranks.ListMismatches(ctx, models.SystemActor)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, v := range views {
					e := v.Evaluation
					fmt.Fprintf(out, "%-20s %-12s expected %-12s priority %d\n", e.Name, e.CurrentTier.Label(), e.ExpectedTier.Label(), e.Priority)
					if fix && e.Priority == rank.PriorityTierMismatch {
						if _, err := c.Ranks.FixTier(ctx, models.SystemActor, v.WomID); err != nil {
							return err
						}
					}
				}
				fmt.Fprintf(out, "%d characters need attention\n", len(views))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&fix, "fix", false, "rewrite roles that are on the right ladder but the wrong tier")
	return cmd
}
