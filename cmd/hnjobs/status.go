package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store counts",
	Long:  "Prints how many postings are stored and how many of them have been enriched.",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	st := openStore(cfg, logger)
	defer st.Close()

	raw, enriched, err := st.Counts(context.Background())
	if err != nil {
		logger.Error("failed to read counts", "error", err)
		os.Exit(1)
	}

	fmt.Printf("%-20s %s\n", "Table", "Rows")
	fmt.Println(strings.Repeat("─", 28))
	fmt.Printf("%-20s %d\n", "raw postings", raw)
	fmt.Printf("%-20s %d\n", "enriched", enriched)
	fmt.Printf("%-20s %d\n", "pending", raw-enriched)

	fmt.Printf("\nDatabase: %s\n", cfg.Database.Path)
	return nil
}
