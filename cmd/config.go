package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rmxops/plantctl/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := renderConfig(cfg)
		if err != nil {
			return err
		}
		cmd.OutOrStdout().Write(out)
		return nil
	},
}

// renderConfig dumps the effective configuration as YAML with the feed
// password redacted.
func renderConfig(c *config.Config) ([]byte, error) {
	redacted := *c
	if redacted.Feed.Password != "" {
		redacted.Feed.Password = "********"
	}
	out, err := yaml.Marshal(&redacted)
	if err != nil {
		return nil, eris.Wrap(err, "encode config")
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(configCmd)
}
