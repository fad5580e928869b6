package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/gainers/internal/strategyconfig"
	"github.com/wonny/gainers/pkg/config"
	"github.com/wonny/gainers/pkg/logger"
)

var (
	// Global flags
	strategyFile string
	outputDir    string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gainers",
	Short: "Daily gainers portfolio pipeline",
	Long: `Gainers pipeline CLI

Extracts the Yahoo Finance daily gainers listing, builds a monthly
adjusted-close price matrix, and ranks an equal-weighted momentum
portfolio.

Usage:
  go run ./cmd/gainers [command]

Examples:
  go run ./cmd/gainers run
  go run ./cmd/gainers extract --target 50
  go run ./cmd/gainers serve
  go run ./cmd/gainers reddit --subreddits stocks investing`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML file (default is built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", "", "directory for CSV outputs (overrides OUTPUT_DIR)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadEnvironment loads the process config plus the strategy file and
// builds the logger, applying global flag overrides.
func loadEnvironment() (*config.Config, *strategyconfig.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	if outputDir != "" {
		cfg.OutputDir = outputDir
	}
	if strategyFile != "" {
		cfg.StrategyFile = strategyFile
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	strategy, err := strategyconfig.Load(cfg.StrategyFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load strategy: %w", err)
	}

	log := logger.New(cfg)
	return cfg, strategy, log, nil
}
