package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tracedoc/tracedoc/internal/extract"
	"github.com/tracedoc/tracedoc/internal/pdfx"
	"github.com/tracedoc/tracedoc/internal/report"
	"github.com/tracedoc/tracedoc/internal/workers"
)

var (
	extractKeys     string
	extractOutput   string
	extractLanguage string
)

var extractCmd = &cobra.Command{
	Use:   "extract <pdf>...",
	Short: "Extract specification keys from PDF files",
	Long: `Extract named specification keys from one or more PDF files and write
an XLSX report.

Without --keys the built-in key set for instrument transformer datasheets
is used.

Examples:
  tracedoc extract spec.pdf
  tracedoc extract spec.pdf appendix.pdf -o report.xlsx
  tracedoc extract spec.pdf --keys "Kunde,Isoliermedium" --language de`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := configMgr.Get()

		docs, err := parseFiles(ctx, cfg.Workers.Count, args)
		if err != nil {
			return err
		}

		keyNames := extract.KnownKeys()
		if extractKeys != "" {
			keyNames = splitKeys(extractKeys)
		}

		language := cfg.Extraction.Language
		if extractLanguage != "" {
			language = extractLanguage
		}

		extractor := newExtractor(cfg)
		results, err := extractor.ExtractKeys(ctx, extract.KeyExtractionRequest{
			KeyNames:      keyNames,
			Documents:     docs,
			BatchSize:     cfg.Extraction.BatchSize,
			MaxConcurrent: cfg.Extraction.MaxConcurrent,
			Language:      language,
		})
		if err != nil {
			return err
		}

		data, err := report.BuildWorkbook(results, logger)
		if err != nil {
			return err
		}
		if err := os.WriteFile(extractOutput, data, 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}

		fmt.Printf("Extracted %d keys from %d file(s) -> %s\n", len(results), len(docs), extractOutput)
		return nil
	},
}

// parseFiles parses PDFs through the CPU pool, preserving argument order.
func parseFiles(ctx context.Context, workerCount int, paths []string) ([]*pdfx.Document, error) {
	pool := workers.NewPool(workers.Config{Workers: workerCount, Logger: logger})
	poolCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	pool.Start(poolCtx)

	docs := make([]*pdfx.Document, len(paths))
	errs := make([]error, len(paths))
	done := make(chan int, len(paths))

	for i, path := range paths {
		i, path := i, path
		if err := pool.Submit(func(taskCtx context.Context) {
			docs[i], errs[i] = pdfx.ExtractDocumentFile(taskCtx, path, logger)
			done <- i
		}); err != nil {
			return nil, err
		}
	}

	for range paths {
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", paths[i], err)
		}
	}
	return docs, nil
}

func splitKeys(s string) []string {
	parts := strings.Split(s, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	return keys
}

func init() {
	extractCmd.Flags().StringVar(&extractKeys, "keys", "", "Comma-separated key names (default: built-in key set)")
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "extraction.xlsx", "Output XLSX path")
	extractCmd.Flags().StringVar(&extractLanguage, "language", "", "Result language: en or de (overrides config)")

	rootCmd.AddCommand(extractCmd)
}
