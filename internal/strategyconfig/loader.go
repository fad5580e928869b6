package strategyconfig

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML strategy file. Unknown fields fail immediately so a typo
// never silently falls back to a default. An empty path returns Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read strategy file: %w", err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode strategy file: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that parameter combinations are usable.
func Validate(cfg *Config) error {
	if cfg.Extraction.TargetCount <= 0 {
		return fmt.Errorf("extraction.target_count must be positive, got %d", cfg.Extraction.TargetCount)
	}
	if cfg.Extraction.PageSize <= 0 {
		return fmt.Errorf("extraction.page_size must be positive, got %d", cfg.Extraction.PageSize)
	}
	if cfg.History.Months < 2 {
		return fmt.Errorf("history.months must be at least 2, got %d", cfg.History.Months)
	}
	if cfg.Portfolio.FormationMonths <= 0 {
		return fmt.Errorf("portfolio.formation_months must be positive, got %d", cfg.Portfolio.FormationMonths)
	}
	if cfg.Portfolio.FormationMonths >= cfg.History.Months {
		return fmt.Errorf("portfolio.formation_months (%d) must be smaller than history.months (%d)",
			cfg.Portfolio.FormationMonths, cfg.History.Months)
	}
	if cfg.Portfolio.TopN <= 0 {
		return fmt.Errorf("portfolio.top_n must be positive, got %d", cfg.Portfolio.TopN)
	}
	if cfg.Portfolio.MinFormationReturns < 2 {
		// Sample standard deviation needs at least two returns
		return fmt.Errorf("portfolio.min_formation_returns must be at least 2, got %d", cfg.Portfolio.MinFormationReturns)
	}
	return nil
}
