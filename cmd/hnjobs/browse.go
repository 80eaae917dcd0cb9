package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hnjobs/internal/browse"
	"hnjobs/internal/store"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse stored postings interactively (TUI)",
	Long:  "Opens a split-pane view of every stored posting and its extracted fields.",
	RunE:  runBrowse,
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	st := openStore(cfg, logger)
	defer st.Close()

	allItems, enrichedItems, err := loadItems(context.Background(), st)
	if err != nil {
		logger.Error("failed to load postings", "error", err)
		os.Exit(1)
	}
	if len(allItems) == 0 {
		fmt.Println("Store is empty. Run `hnjobs ingest` first.")
		return nil
	}

	if _, err := browse.RunBrowseTUI(allItems, enrichedItems); err != nil {
		fmt.Printf("TUI error: %v\n", err)
	}
	return nil
}

// loadItems joins stored postings with their enrichments in memory.
func loadItems(ctx context.Context, st *store.SQLiteStore) (all, enriched []browse.Item, err error) {
	postings, err := st.ListPostings(ctx)
	if err != nil {
		return nil, nil, err
	}
	enrichments, err := st.ListEnrichments(ctx)
	if err != nil {
		return nil, nil, err
	}

	byID := make(map[string]int, len(enrichments))
	for i := range enrichments {
		byID[enrichments[i].ID] = i
	}

	for _, p := range postings {
		item := browse.Item{Posting: p}
		if i, ok := byID[p.ID]; ok {
			item.Enrichment = &enrichments[i]
			enriched = append(enriched, item)
		}
		all = append(all, item)
	}
	return all, enriched, nil
}
