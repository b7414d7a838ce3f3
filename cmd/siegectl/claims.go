package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atayl16/siege-clan-tracker/internal/app"
	"github.com/atayl16/siege-clan-tracker/internal/dto"
	"github.com/atayl16/siege-clan-tracker/internal/models"
)

func issueCodeCommand() *cobra.Command {
	var (
		womID      int64
		expiryDays int
		adminID    string
	)
	cmd := &cobra.Command{
		Use:   "issue-code",
		Short: "Issue a claim code for a character",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if womID <= 0 {
				return errors.New("--wom-id is required")
			}
			req := dto.IssueClaimCodeRequest{WomID: womID}
			if cmd.Flags().Changed("expiry-days") {
				req.ExpiryDays = &expiryDays
			}
			actor := operator(adminID)
			return withContainer(cmd, func(ctx context.Context, c *app.Container) error {
				code, err := c.ClaimCodes.Issue(ctx, actor, req)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), code.Code)
				if code.ExpiresAt != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", code.ExpiresAt.Format("2006-01-02 15:04 MST"))
				}
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&womID, "wom-id", 0, "character id")
	cmd.Flags().IntVar(&expiryDays, "expiry-days", 0, "days until the code expires, 0 for never (defaults to the configured value)")
	cmd.Flags().StringVar(&adminID, "admin-id", "", "admin account recorded as the issuer (defaults to system)")
	return cmd
}

// operator is the actor CLI commands run as.
func operator(adminID string) models.Actor {
	if adminID == "" {
		return models.SystemActor
	}
	return models.Actor{AccountID: adminID, IsAdmin: true}
}
