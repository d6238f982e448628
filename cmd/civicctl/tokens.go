package main

import (
	"fmt"
	"time"

	"civicpay/internal/config"
	"civicpay/internal/models"
	"civicpay/internal/utils"

	"github.com/spf13/cobra"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token [userID]",
		Short: "Mint a signed access token for testing and operations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := config.GetEnv("JWT_SECRET", "")
			role, _ := cmd.Flags().GetString("role")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			token, err := utils.IssueToken(secret, &models.UserClaims{
				UserID: args[0],
				Role:   role,
			}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().String("role", models.RoleResident, "Role claim")
	cmd.Flags().Duration("ttl", 15*time.Minute, "Token lifetime")
	return cmd
}

func jobTokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "job-token",
		Short: "Generate a scheduler job token and the hash for JOB_TOKEN_HASH",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := utils.GenerateSecureCode()
			if err != nil {
				return err
			}
			hash, err := utils.HashSecret(token)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "token: %s\nJOB_TOKEN_HASH=%s\n", token, hash)
			return nil
		},
	}
}
