package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hnjobs/internal/browse"
	"hnjobs/internal/model"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Scrape a listing page without storing it (TUI)",
	Long:  "Shows the page picker, fetches the chosen listing live, and opens the browser view without writing anything to the store.",
	RunE:  runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if len(cfg.Source.Pages) == 0 {
		fmt.Println("No pages configured. Set source.pages in config.")
		return nil
	}

	s := buildScraper(cfg)

	for {
		choice, err := browse.RunPagePicker(cfg.Source.Pages)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return nil
		}
		if choice < 0 {
			return nil
		}
		page := cfg.Source.Pages[choice]

		postings, err := browse.RunLoader(page, func(ctx context.Context) ([]model.Posting, error) {
			return s.FetchPostings(ctx, page)
		})
		if err != nil {
			fmt.Printf("Error fetching postings: %v\n", err)
			continue
		}

		items := make([]browse.Item, 0, len(postings))
		for i := range postings {
			postings[i].ID = model.Fingerprint(postings[i].Title, postings[i].PostedDate)
			items = append(items, browse.Item{Posting: postings[i]})
		}

		wantQuit, err := browse.RunBrowseTUI(items, nil)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return nil
		}
		// else: loop → back to picker
	}
}
