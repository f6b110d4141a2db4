package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rmxops/plantctl/internal/feed"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Pull new plant-control exports from the FTP drop",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("fetch"); err != nil {
			return err
		}

		client := feed.NewClient(cfg.Feed)
		pulled, err := client.Pull(cmd.Context())
		if err != nil {
			return err
		}

		if len(pulled) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no new export files")
			return nil
		}
		for _, f := range pulled {
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes) -> %s\n", f.Name, f.Size, f.LocalPath)
		}
		zap.L().Info("feed pull complete", zap.Int("files", len(pulled)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
