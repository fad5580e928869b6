package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/gainers/internal/gainers"
	"github.com/wonny/gainers/internal/report"
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract the gainers listing only",
	Long: `Extracts the daily gainers symbol listing from Yahoo Finance
without fetching price history or ranking, and writes top_gainers.csv.

Example:
  go run ./cmd/gainers extract
  go run ./cmd/gainers extract --target 100 --page-size 25`,
	RunE: runExtract,
}

var (
	extractTarget   int
	extractPageSize int
)

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().IntVar(&extractTarget, "target", 0, "number of symbols to extract (default from strategy)")
	extractCmd.Flags().IntVar(&extractPageSize, "page-size", 0, "listing page size (default from strategy)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, strategy, log, err := loadEnvironment()
	if err != nil {
		return err
	}

	target := strategy.Extraction.TargetCount
	if extractTarget > 0 {
		target = extractTarget
	}
	pageSize := strategy.Extraction.PageSize
	if extractPageSize > 0 {
		pageSize = extractPageSize
	}

	extractor := gainers.NewExtractor(gainers.ChromeSessionFactory(cfg.ChromeHeadless), log,
		gainers.WithWait(cfg.PageWaitTime, 500*time.Millisecond),
	)

	records, err := extractor.Extract(cmd.Context(), target, pageSize)
	if err != nil {
		return fmt.Errorf("extract gainers: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("no gainers extracted")
	}

	writer := report.NewWriter(cfg.OutputDir, log)
	if err := writer.WriteGainers(records); err != nil {
		return fmt.Errorf("write listing: %w", err)
	}

	fmt.Printf("Extracted %d symbols\n", len(records))
	for i, rec := range records {
		fmt.Printf("%3d  %-8s %s\n", i+1, rec.Symbol, rec.Name)
	}

	return nil
}
