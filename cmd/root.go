package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rmxops/plantctl/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "plantctl",
	Short: "Ready-mix plant operations toolkit",
	Long:  "Pulls plant-control delivery exports, reconciles them against the recipe and pricing catalogs, and resolves the contractual unit price for every record.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
