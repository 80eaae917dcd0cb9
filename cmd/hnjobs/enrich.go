package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"hnjobs/internal/pipeline"
)

var (
	enrichReprocess bool
	enrichBatchSize int
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Extract structured fields for stored postings",
	Long:  "Runs the LLM extraction pass over every posting without an enrichment row; --reprocess widens the selection to every stored posting.",
	RunE:  runEnrich,
}

func init() {
	enrichCmd.Flags().BoolVar(&enrichReprocess, "reprocess", false, "re-extract postings that already have enrichments")
	enrichCmd.Flags().IntVar(&enrichBatchSize, "batch-size", 0, "postings per checkpoint flush (default: config value)")
	rootCmd.AddCommand(enrichCmd)
}

func runEnrich(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	batchSize := cfg.Extraction.BatchSize
	if enrichBatchSize > 0 {
		batchSize = enrichBatchSize
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := openStore(cfg, logger)
	defer st.Close()

	p := pipeline.New(buildScraper(cfg), buildExtractor(ctx, cfg, logger), st, batchSize, logger)

	if _, err := p.Enrich(ctx, enrichReprocess); err != nil {
		logger.Error("enrichment failed", "error", err)
		os.Exit(1)
	}
	return nil
}
