package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Ingest all configured pages, then enrich",
	Long:  "Scrapes every configured listing page into the store, then extracts structured fields for all unprocessed postings.",
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"database", cfg.Database.Path,
		"pages", len(cfg.Source.Pages),
		"model", cfg.Ollama.Model,
		"batch_size", cfg.Extraction.BatchSize,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := openStore(cfg, logger)
	defer st.Close()

	p := buildPipeline(ctx, cfg, st, logger)

	for _, page := range cfg.Source.Pages {
		if _, err := p.Ingest(ctx, page); err != nil {
			logger.Error("ingest failed", "page", page, "error", err)
			os.Exit(1)
		}
	}

	if _, err := p.Enrich(ctx, false); err != nil {
		logger.Error("enrichment failed", "error", err)
		os.Exit(1)
	}

	logger.Info("run complete")
	return nil
}
