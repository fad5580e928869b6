package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/gainers/internal/gainers"
	"github.com/wonny/gainers/internal/marketdata"
	"github.com/wonny/gainers/internal/pipeline"
	"github.com/wonny/gainers/internal/ranking"
	"github.com/wonny/gainers/internal/report"
	"github.com/wonny/gainers/internal/strategyconfig"
	"github.com/wonny/gainers/pkg/config"
	"github.com/wonny/gainers/pkg/httputil"
	"github.com/wonny/gainers/pkg/logger"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline once",
	Long: `Runs the full gainers pipeline a single time:

- Extract the daily gainers listing from Yahoo Finance
- Fetch monthly adjusted-close history per symbol
- Rank the formation-window momentum portfolio
- Write CSV reports to the output directory

Example:
  go run ./cmd/gainers run
  go run ./cmd/gainers run --strategy config/strategy.yaml`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, strategy, log, err := loadEnvironment()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	p := buildPipeline(cfg, strategy, log)

	start := time.Now()
	result, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	writer := report.NewWriter(cfg.OutputDir, log)
	if err := writer.WriteAll(result); err != nil {
		return fmt.Errorf("write reports: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"gainers":  len(result.Gainers),
		"selected": len(result.Summary.Selected),
		"duration": time.Since(start),
	}).Info("Pipeline completed")

	fmt.Printf("Extracted %d gainers, selected %d symbols (weight %.4f)\n",
		len(result.Gainers), len(result.Summary.Selected), result.Summary.Weight)
	fmt.Printf("Reports written to %s\n", cfg.OutputDir)

	return nil
}

// buildPipeline wires the extractor, history client, and ranker into a
// runnable pipeline. Each pipeline run opens and closes its own browser
// session through the session factory.
func buildPipeline(cfg *config.Config, strategy *strategyconfig.Config, log *logger.Logger) *pipeline.Pipeline {
	extractor := gainers.NewExtractor(gainers.ChromeSessionFactory(cfg.ChromeHeadless), log,
		gainers.WithWait(cfg.PageWaitTime, 500*time.Millisecond),
	)

	httpClient := httputil.New(cfg, log)
	history := marketdata.NewYahooClient(httpClient, log)
	builder := marketdata.NewBuilder(history, log)
	ranker := ranking.NewRanker(strategy.Portfolio, log)

	return pipeline.New(extractor, builder, ranker, strategy, log)
}
