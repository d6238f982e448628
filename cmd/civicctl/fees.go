package main

import (
	"encoding/json"
	"fmt"

	"civicpay/internal/models"
	"civicpay/internal/repositories"
	"civicpay/internal/services/fee"

	"github.com/spf13/cobra"
)

func scheduleFlags(cmd *cobra.Command) {
	cmd.Flags().Int64("card-bp", fee.DefaultCardBasisPoints, "Card rate in basis points")
	cmd.Flags().Int64("card-fixed", fee.DefaultCardFixedFeeCents, "Card fixed fee in cents")
	cmd.Flags().Int64("ach-bp", fee.DefaultACHBasisPoints, "ACH rate in basis points")
	cmd.Flags().Int64("ach-fixed", fee.DefaultACHFixedFeeCents, "ACH fixed fee in cents")
	cmd.Flags().Int64("ach-cap", -1, "Cap on the ACH percentage fee in cents (-1 for none)")
}

func scheduleFromFlags(cmd *cobra.Command) fee.Schedule {
	s := fee.Schedule{}
	s.CardBasisPoints, _ = cmd.Flags().GetInt64("card-bp")
	s.CardFixedFeeCents, _ = cmd.Flags().GetInt64("card-fixed")
	s.ACHBasisPoints, _ = cmd.Flags().GetInt64("ach-bp")
	s.ACHFixedFeeCents, _ = cmd.Flags().GetInt64("ach-fixed")
	if limit, _ := cmd.Flags().GetInt64("ach-cap"); limit >= 0 {
		s.ACHBasisPointsFeeLimitCents = &limit
	}
	return s
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func quoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote [baseAmountCents]",
		Short: "Compute the service fee for an amount",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var base int64
			if _, err := fmt.Sscan(args[0], &base); err != nil {
				return fmt.Errorf("base amount must be an integer number of cents: %w", err)
			}
			isCard, _ := cmd.Flags().GetBool("card")
			schedule := scheduleFromFlags(cmd)

			q, err := fee.CalculateServiceFee(fee.Params{
				BaseAmountCents: base,
				IsCard:          isCard,
				Schedule:        &schedule,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd, q)
		},
	}

	cmd.Flags().BoolP("card", "c", false, "Price as a card payment instead of ACH")
	scheduleFlags(cmd)
	return cmd
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [baseAmountCents] [totalAmountCents]",
		Short: "Check a client total against the computed total",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var base, total int64
			if _, err := fmt.Sscan(args[0], &base); err != nil {
				return fmt.Errorf("base amount must be an integer number of cents: %w", err)
			}
			if _, err := fmt.Sscan(args[1], &total); err != nil {
				return fmt.Errorf("total amount must be an integer number of cents: %w", err)
			}
			isCard, _ := cmd.Flags().GetBool("card")
			schedule := scheduleFromFlags(cmd)

			v, err := fee.ValidateTotalAmount(base, total, isCard, &schedule)
			if err != nil {
				return err
			}
			return printJSON(cmd, v)
		},
	}

	cmd.Flags().BoolP("card", "c", false, "Price as a card payment instead of ACH")
	scheduleFlags(cmd)
	return cmd
}

func feeProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fee-profile [merchantID]",
		Short: "Create or update a merchant's fee schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schedule := scheduleFromFlags(cmd)
			if err := schedule.Validate(); err != nil {
				return err
			}

			cfg, db, log, err := connect()
			if err != nil {
				return err
			}
			defer repositories.Close(db)

			profiles := repositories.NewFeeProfileRepository(db)
			if cfg.RedisHost != "" {
				cacheService, closeCache := newCache(cfg)
				defer closeCache()
				profiles = repositories.NewCachedFeeProfileRepository(profiles, cacheService, cfg.FeeProfileCacheTTL, log)
			}

			profile := &models.MerchantFeeProfile{
				MerchantID:                  args[0],
				CardBasisPoints:             schedule.CardBasisPoints,
				CardFixedFeeCents:           schedule.CardFixedFeeCents,
				ACHBasisPoints:              schedule.ACHBasisPoints,
				ACHFixedFeeCents:            schedule.ACHFixedFeeCents,
				ACHBasisPointsFeeLimitCents: schedule.ACHBasisPointsFeeLimitCents,
			}
			if err := profiles.Save(cmd.Context(), profile); err != nil {
				return err
			}
			return printJSON(cmd, profile)
		},
	}

	scheduleFlags(cmd)
	return cmd
}
