package main

import (
	"fmt"
	"time"

	"civicpay/internal/config"
	"civicpay/internal/repositories"
	"civicpay/internal/repositories/cache"
	"civicpay/internal/services/booking"

	"github.com/spf13/cobra"
)

func newCache(cfg config.App) (*cache.CacheService, func()) {
	client := cache.NewRedisClient(&cache.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	svc := cache.NewCacheService(client, cfg.FeeProfileCacheTTL)
	return svc, func() { _ = svc.Close() }
}

func sweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Expire draft bookings abandoned before payment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, log, err := connect()
			if err != nil {
				return err
			}
			defer repositories.Close(db)

			now := time.Now()
			if at, _ := cmd.Flags().GetString("now"); at != "" {
				if now, err = time.Parse(time.RFC3339, at); err != nil {
					return fmt.Errorf("--now must be RFC3339: %w", err)
				}
			}

			// Expiry events are not published from the CLI.
			svc := booking.NewService(repositories.NewReservationRepository(db), nil, log,
				booking.Config{AbandonAfter: cfg.AbandonAfter})

			result, err := svc.SweepAbandoned(cmd.Context(), now)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Expired %d abandoned booking(s)\n", result.ExpiredCount)
			for _, id := range result.ExpiredIDs {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", id)
			}
			return nil
		},
	}

	cmd.Flags().String("now", "", "Evaluate the abandonment window at this RFC3339 time")
	return cmd
}
