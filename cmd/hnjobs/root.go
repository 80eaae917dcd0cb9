package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"hnjobs/internal/config"
	"hnjobs/internal/extract"
	"hnjobs/internal/ollama"
	"hnjobs/internal/pipeline"
	"hnjobs/internal/scraper"
	"hnjobs/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "hnjobs",
	Short: "Scrape and enrich Hacker News job postings",
	Long:  "hnjobs scrapes monthly Who is hiring listings, dedupes them into SQLite, and enriches each posting with a local LLM.",
	// Default to `run` so that `hnjobs` with no args executes the full
	// ingest-then-enrich pipeline over the configured pages.
	RunE: runRun,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: HNJOBS_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > HNJOBS_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("HNJOBS_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func openStore(cfg *config.Config, logger *slog.Logger) *store.SQLiteStore {
	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		logger.Error("failed to open store", "path", cfg.Database.Path, "error", err)
		os.Exit(1)
	}
	return st
}

func buildScraper(cfg *config.Config) *scraper.HNHiringScraper {
	httpClient := &http.Client{Timeout: cfg.Source.Timeout}
	return scraper.NewHNHiringScraper(cfg.Source.BaseURL, httpClient)
}

// buildExtractor probes the Ollama server before any work starts: an
// unreachable server or an empty model list aborts the command.
func buildExtractor(ctx context.Context, cfg *config.Config, logger *slog.Logger) *extract.Extractor {
	httpClient := &http.Client{Timeout: cfg.Ollama.Timeout}
	client, err := ollama.NewClient(ctx, cfg.Ollama.BaseURL, cfg.Ollama.Model, httpClient)
	if err != nil {
		logger.Error("failed to reach enrichment service", "error", err)
		os.Exit(1)
	}
	return extract.NewExtractor(client, logger)
}

func buildPipeline(ctx context.Context, cfg *config.Config, st *store.SQLiteStore, logger *slog.Logger) *pipeline.Pipeline {
	return pipeline.New(
		buildScraper(cfg),
		buildExtractor(ctx, cfg, logger),
		st,
		cfg.Extraction.BatchSize,
		logger,
	)
}
