package main

import (
	"github.com/spf13/cobra"

	"github.com/tracedoc/tracedoc/internal/server"
	"github.com/tracedoc/tracedoc/internal/store"
	"github.com/tracedoc/tracedoc/internal/workers"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tracedoc server",
	Long: `Start the tracedoc HTTP server.

The server provides:
  - /documents          - Upload and manage parsed PDFs
  - /extract, /runs     - Batched key extraction and XLSX reports
  - /ask                - Streaming document Q&A (server-sent events)
  - /compare, /detect/* - Comparison and classification
  - /health, /ready     - Health checks

Examples:
  tracedoc serve                 # Start on the configured port
  tracedoc serve --port 3000     # Start on a custom port
  tracedoc serve --host 0.0.0.0  # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := configMgr.Get()

		host := cfg.Server.Host
		port := cfg.Server.Port
		if serveHost != "" {
			host = serveHost
		}
		if servePort != 0 {
			port = servePort
		}

		st, err := store.Open(cfg.Store.Path, logger)
		if err != nil {
			return err
		}

		pool := workers.NewPool(workers.Config{
			Workers:   cfg.Workers.Count,
			QueueSize: cfg.Workers.QueueSize,
			Logger:    logger,
		})

		srv, err := server.New(server.Config{
			Host:          host,
			Port:          port,
			Store:         st,
			Extractor:     newExtractor(cfg),
			Pool:          pool,
			ConfigManager: configMgr,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		configMgr.WatchConfig()

		// Start server (blocks until shutdown; closes the store)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")

	rootCmd.AddCommand(serveCmd)
}
