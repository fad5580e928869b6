package strategyconfig

// Config holds the tunable parameters of the gainers pipeline.
type Config struct {
	Extraction Extraction `yaml:"extraction" json:"extraction"`
	History    History    `yaml:"history" json:"history"`
	Portfolio  Portfolio  `yaml:"portfolio" json:"portfolio"`
}

// Extraction controls the top-gainers listing scrape.
type Extraction struct {
	TargetCount int `yaml:"target_count" json:"target_count"` // final symbol cap
	PageSize    int `yaml:"page_size" json:"page_size"`       // rows per listing page
}

// History controls the monthly price history fetch.
type History struct {
	Months int `yaml:"months" json:"months"` // trailing months of adjusted close
}

// Portfolio controls formation scoring and selection.
type Portfolio struct {
	FormationMonths     int `yaml:"formation_months" json:"formation_months"`
	TopN                int `yaml:"top_n" json:"top_n"`
	MinFormationReturns int `yaml:"min_formation_returns" json:"min_formation_returns"`
}

// Default returns the default strategy configuration.
func Default() *Config {
	return &Config{
		Extraction: Extraction{
			TargetCount: 50,
			PageSize:    25,
		},
		History: History{
			Months: 12,
		},
		Portfolio: Portfolio{
			FormationMonths:     6,
			TopN:                10,
			MinFormationReturns: 2,
		},
	}
}
