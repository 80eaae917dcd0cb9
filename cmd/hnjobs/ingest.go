package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"hnjobs/internal/pipeline"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [page ...]",
	Short: "Scrape listing pages into the store",
	Long:  "Fetches the given listing pages (or every configured page when none are given) and upserts the postings without touching existing rows.",
	RunE:  runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	pages := args
	if len(pages) == 0 {
		pages = cfg.Source.Pages
	}
	if len(pages) == 0 {
		logger.Error("no pages to ingest; pass pages as arguments or set source.pages in config")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := openStore(cfg, logger)
	defer st.Close()

	// Ingestion never calls the extractor, so skip the Ollama probe.
	p := pipeline.New(buildScraper(cfg), nil, st, cfg.Extraction.BatchSize, logger)

	for _, page := range pages {
		if _, err := p.Ingest(ctx, page); err != nil {
			logger.Error("ingest failed", "page", page, "error", err)
			os.Exit(1)
		}
	}
	return nil
}
