package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var compareContext string

var compareCmd = &cobra.Command{
	Use:   "compare <base.pdf> <new.pdf>",
	Short: "Compare two versions of a specification",
	Long: `Compare a base and an updated specification PDF and print the detected
changes as JSON.

Examples:
  tracedoc compare rev1.pdf rev2.pdf
  tracedoc compare rev1.pdf rev2.pdf --context "Focus on insulation values"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := configMgr.Get()

		docs, err := parseFiles(ctx, cfg.Workers.Count, args)
		if err != nil {
			return err
		}

		extractor := newExtractor(cfg)
		result, err := extractor.CompareDocuments(ctx, docs[0], docs[1], compareContext)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	compareCmd.Flags().StringVar(&compareContext, "context", "", "Additional context for the comparison")

	rootCmd.AddCommand(compareCmd)
}
