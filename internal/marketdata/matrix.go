package marketdata

import (
	"context"
	"sort"
	"time"

	"github.com/wonny/gainers/internal/gainers"
	"github.com/wonny/gainers/pkg/logger"
)

// PriceMatrix is a wide month-end × symbol table of adjusted closes.
// Cells may be empty where a symbol lacks data for a month; nothing forces
// density and nothing is interpolated.
type PriceMatrix struct {
	Months  []time.Time // chronological month-ends
	Symbols []string    // extraction order
	names   map[string]string
	cells   map[string]map[time.Time]float64
}

// At returns the adjusted close for a symbol at a month-end.
func (m *PriceMatrix) At(symbol string, month time.Time) (float64, bool) {
	col, ok := m.cells[symbol]
	if !ok {
		return 0, false
	}
	v, ok := col[month]
	return v, ok
}

// Name returns the display name attached to a symbol column.
func (m *PriceMatrix) Name(symbol string) string {
	return m.names[symbol]
}

// Builder assembles a PriceMatrix from per-symbol provider responses.
type Builder struct {
	provider HistoryProvider
	logger   *logger.Logger
}

// NewBuilder creates a matrix builder over a history provider.
func NewBuilder(provider HistoryProvider, log *logger.Logger) *Builder {
	return &Builder{provider: provider, logger: log}
}

// Build fetches months of monthly history for every record and outer-joins the
// surviving series on month-end date. Symbols whose fetch fails or comes back
// empty are skipped, not fatal; the caller decides whether an empty matrix is
// terminal. Display names ride along as column metadata.
func (b *Builder) Build(ctx context.Context, records []gainers.SymbolRecord, months int) (*PriceMatrix, error) {
	matrix := &PriceMatrix{
		names: make(map[string]string, len(records)),
		cells: make(map[string]map[time.Time]float64, len(records)),
	}

	monthSet := make(map[time.Time]bool)

	for _, rec := range records {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		series, err := b.provider.MonthlyAdjClose(ctx, rec.Symbol, months)
		if err != nil {
			b.logger.WithError(err).WithField("symbol", rec.Symbol).Warn("Price history fetch failed, skipping symbol")
			continue
		}
		if len(series.Observations) == 0 {
			b.logger.WithField("symbol", rec.Symbol).Warn("Empty price history, skipping symbol")
			continue
		}

		col := make(map[time.Time]float64, len(series.Observations))
		for _, obs := range series.Observations {
			col[obs.MonthEnd] = obs.AdjClose
			monthSet[obs.MonthEnd] = true
		}

		matrix.Symbols = append(matrix.Symbols, rec.Symbol)
		matrix.names[rec.Symbol] = rec.Name
		matrix.cells[rec.Symbol] = col
	}

	matrix.Months = make([]time.Time, 0, len(monthSet))
	for m := range monthSet {
		matrix.Months = append(matrix.Months, m)
	}
	sort.Slice(matrix.Months, func(i, j int) bool { return matrix.Months[i].Before(matrix.Months[j]) })

	// Restrict the grid to the trailing window even when symbol histories
	// start at different points
	if len(matrix.Months) > months {
		dropped := matrix.Months[:len(matrix.Months)-months]
		matrix.Months = matrix.Months[len(matrix.Months)-months:]
		for _, col := range matrix.cells {
			for _, m := range dropped {
				delete(col, m)
			}
		}
	}

	b.logger.WithFields(map[string]interface{}{
		"symbols":   len(matrix.Symbols),
		"months":    len(matrix.Months),
		"requested": len(records),
	}).Info("Price matrix assembled")

	return matrix, nil
}
