package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tracedoc/tracedoc/internal/config"
	"github.com/tracedoc/tracedoc/version"
)

var (
	cfgFile   string
	configMgr *config.Manager
	logger    *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tracedoc",
	Short: "PDF specification extraction with LLM-backed Q&A",
	Long: `Tracedoc turns technical PDF specifications into addressable text and
answers questions about them.

Every extracted line and table cell carries a stable marker that maps back
to its bounding box on the page, so model answers can be traced to the
exact region they came from. Named specification keys are extracted in
concurrent batches with per-batch failure isolation.`,
	Version: version.GitRelease,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configMgr, err = config.NewManager(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		logger = newLogger(configMgr.Get().Log)
		slog.SetDefault(logger)
		return nil
	},
}

// newLogger builds the process logger from config.
func newLogger(cfg config.LogCfg) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.tracedoc/config.yaml)",
	)

	rootCmd.AddCommand(versionCmd)
}
