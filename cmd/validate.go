package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rmxops/plantctl/internal/reconcile"
)

var (
	validateInput  string
	validateOutput string
	validatePlant  string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a staging batch against the catalogs",
	Long:  "Reads a JSON batch of staging records, resolves recipe, client, price, and site for each one, and writes the enriched batch back out with its validation errors.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("validate"); err != nil {
			return err
		}

		records, err := readRecords(validateInput)
		if err != nil {
			return err
		}

		store, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		engine := initEngine(store, validatePlant)
		result, err := engine.ValidateBatch(cmd.Context(), records)
		if err != nil {
			return eris.Wrap(err, "validate batch")
		}

		if err := writeResult(validateOutput, result); err != nil {
			return err
		}

		valid, warnings, errored := summarize(result)
		zap.L().Info("batch complete",
			zap.String("batch_id", result.BatchID),
			zap.Int("valid", valid),
			zap.Int("warnings", warnings),
			zap.Int("errored", errored),
		)
		fmt.Fprintf(cmd.OutOrStdout(), "batch %s: %d valid, %d warnings, %d errored (%d records)\n",
			result.BatchID, valid, warnings, errored, len(result.Validated))
		return nil
	},
}

func readRecords(path string) ([]*reconcile.StagingRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read input")
	}
	var records []*reconcile.StagingRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, eris.Wrap(err, "parse input")
	}
	return records, nil
}

func writeResult(path string, result *reconcile.BatchResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return eris.Wrap(err, "encode result")
	}
	if path == "" || path == "-" {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrap(err, "write output")
	}
	return nil
}

func summarize(result *reconcile.BatchResult) (valid, warnings, errored int) {
	for _, rec := range result.Validated {
		switch rec.Status {
		case reconcile.StatusValid:
			valid++
		case reconcile.StatusWarning:
			warnings++
		case reconcile.StatusError:
			errored++
		}
	}
	return valid, warnings, errored
}

func init() {
	validateCmd.Flags().StringVarP(&validateInput, "input", "i", "", "staging batch JSON file (required)")
	validateCmd.Flags().StringVarP(&validateOutput, "output", "o", "", "write enriched batch here (default stdout)")
	validateCmd.Flags().StringVar(&validatePlant, "plant", "", "plant ID (default from config)")
	validateCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(validateCmd)
}
