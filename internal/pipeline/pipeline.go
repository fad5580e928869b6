package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/gainers/internal/gainers"
	"github.com/wonny/gainers/internal/marketdata"
	"github.com/wonny/gainers/internal/ranking"
	"github.com/wonny/gainers/internal/strategyconfig"
	"github.com/wonny/gainers/pkg/logger"
)

// Terminal pipeline failures. Per-item failures inside the stages degrade the
// result instead; only exhaustion of an entire stage's output surfaces here.
var (
	ErrNoSymbols   = errors.New("extraction returned zero symbols")
	ErrNoPriceData = errors.New("no usable price series")
)

// SymbolSource produces the ranked symbol listing.
type SymbolSource interface {
	Extract(ctx context.Context, targetCount, pageSize int) ([]gainers.SymbolRecord, error)
}

// MatrixBuilder assembles the month-end price matrix for a symbol set.
type MatrixBuilder interface {
	Build(ctx context.Context, records []gainers.SymbolRecord, months int) (*marketdata.PriceMatrix, error)
}

// PortfolioRanker derives the candidate portfolio from a matrix.
type PortfolioRanker interface {
	Rank(matrix *marketdata.PriceMatrix) (*ranking.Summary, error)
}

// Result is the output of one complete pipeline run. Each stage fully produced
// its structure before the next consumed it; nothing here is shared mutable
// state.
type Result struct {
	Gainers []gainers.SymbolRecord
	Matrix  *marketdata.PriceMatrix
	Summary *ranking.Summary
	RanAt   time.Time
}

// Pipeline sequences extraction, matrix building and ranking.
type Pipeline struct {
	source  SymbolSource
	builder MatrixBuilder
	ranker  PortfolioRanker
	cfg     *strategyconfig.Config
	logger  *logger.Logger
}

// New creates a pipeline over the three stages.
func New(source SymbolSource, builder MatrixBuilder, ranker PortfolioRanker, cfg *strategyconfig.Config, log *logger.Logger) *Pipeline {
	return &Pipeline{
		source:  source,
		builder: builder,
		ranker:  ranker,
		cfg:     cfg,
		logger:  log,
	}
}

// Run executes one full pass. Retry and degradation policy lives inside the
// stages; Run fails only on terminal conditions: an error from a stage, zero
// extracted symbols, or zero usable price columns.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	started := time.Now()

	records, err := p.source.Extract(ctx, p.cfg.Extraction.TargetCount, p.cfg.Extraction.PageSize)
	if err != nil {
		return nil, fmt.Errorf("symbol extraction: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoSymbols
	}
	p.logger.WithField("symbols", len(records)).Info("Symbols extracted")

	matrix, err := p.builder.Build(ctx, records, p.cfg.History.Months)
	if err != nil {
		return nil, fmt.Errorf("price matrix: %w", err)
	}
	if len(matrix.Symbols) == 0 || len(matrix.Months) == 0 {
		return nil, ErrNoPriceData
	}

	summary, err := p.ranker.Rank(matrix)
	if err != nil {
		return nil, fmt.Errorf("ranking: %w", err)
	}

	p.logger.WithFields(map[string]interface{}{
		"symbols":  len(records),
		"columns":  len(matrix.Symbols),
		"selected": len(summary.Selected),
		"duration": time.Since(started),
	}).Info("Pipeline run completed")

	return &Result{
		Gainers: records,
		Matrix:  matrix,
		Summary: summary,
		RanAt:   started,
	}, nil
}
