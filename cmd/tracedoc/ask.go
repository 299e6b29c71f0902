package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tracedoc/tracedoc/internal/extract"
)

var askFiles []string

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about PDF files",
	Long: `Ask a free-form question about one or more PDF files. The answer streams
to stdout as it is generated.

Examples:
  tracedoc ask "What is the rated frequency?" -f spec.pdf
  tracedoc ask "Which standards apply?" -f spec.pdf -f appendix.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := configMgr.Get()

		if len(askFiles) == 0 {
			return fmt.Errorf("at least one --file is required")
		}

		docs, err := parseFiles(ctx, cfg.Workers.Count, askFiles)
		if err != nil {
			return err
		}

		extractor := newExtractor(cfg)
		chunks, err := extractor.AnswerQuestion(ctx, extract.QuestionRequest{
			Question:  args[0],
			Documents: docs,
		})
		if err != nil {
			return err
		}

		for chunk := range chunks {
			if chunk.Err != nil {
				fmt.Fprintln(os.Stderr)
				return chunk.Err
			}
			fmt.Print(chunk.Content)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	askCmd.Flags().StringSliceVarP(&askFiles, "file", "f", nil, "PDF file to ask about (repeatable)")

	rootCmd.AddCommand(askCmd)
}
