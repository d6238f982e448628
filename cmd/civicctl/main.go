// Command civicctl is the operator CLI: fee quotes, fee profile seeding,
// the abandoned-booking sweep and token minting.
package main

import (
	"fmt"
	"os"

	"civicpay/internal/config"
	"civicpay/internal/repositories"
	"civicpay/internal/utils"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var Version = "dev"

func main() {
	config.LoadEnv()

	rootCmd := &cobra.Command{
		Use:           "civicctl",
		Short:         "civicctl - operator tool for the civicpay service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(quoteCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(feeProfileCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(jobTokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// connect loads configuration and opens the database. The caller closes it.
func connect() (config.App, *gorm.DB, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, nil, fmt.Errorf("load config: %w", err)
	}
	log := utils.NewLogger(cfg.LogLevel, cfg.IsProduction())

	db, err := repositories.InitDB(cfg)
	if err != nil {
		return cfg, nil, nil, err
	}
	return cfg, db, log, nil
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			// InitDB migrates on open.
			_, db, _, err := connect()
			if err != nil {
				return err
			}
			defer repositories.Close(db)
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}
