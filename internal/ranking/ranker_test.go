package ranking

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/gainers/internal/gainers"
	"github.com/wonny/gainers/internal/marketdata"
	"github.com/wonny/gainers/internal/strategyconfig"
	"github.com/wonny/gainers/pkg/logger"
)

// seriesProvider serves canned series; unknown symbols fail per-symbol.
type seriesProvider map[string]marketdata.PriceSeries

func (p seriesProvider) MonthlyAdjClose(ctx context.Context, symbol string, months int) (marketdata.PriceSeries, error) {
	s, ok := p[symbol]
	if !ok {
		return marketdata.PriceSeries{}, fmt.Errorf("no data for %s", symbol)
	}
	return s, nil
}

// mend returns the month-end date offset months after January 2025.
func mend(offset int) time.Time {
	return time.Date(2025, time.February+time.Month(offset), 0, 0, 0, 0, 0, time.UTC)
}

// series builds a month-end series starting at January 2025.
// A NaN-free gap is expressed by a zero price filtered out by the caller; use
// seriesAt for explicit month placement instead.
func series(symbol string, prices ...float64) marketdata.PriceSeries {
	s := marketdata.PriceSeries{Symbol: symbol}
	for i, p := range prices {
		s.Observations = append(s.Observations, marketdata.Observation{MonthEnd: mend(i), AdjClose: p})
	}
	return s
}

// seriesAt builds a series from explicit (month offset, price) pairs.
func seriesAt(symbol string, points map[int]float64) marketdata.PriceSeries {
	s := marketdata.PriceSeries{Symbol: symbol}
	for i := 0; i < 64; i++ {
		if p, ok := points[i]; ok {
			s.Observations = append(s.Observations, marketdata.Observation{MonthEnd: mend(i), AdjClose: p})
		}
	}
	return s
}

func buildMatrix(t *testing.T, provider seriesProvider, symbols ...string) *marketdata.PriceMatrix {
	t.Helper()
	var recs []gainers.SymbolRecord
	for _, s := range symbols {
		recs = append(recs, gainers.SymbolRecord{Symbol: s, Name: s + " Inc."})
	}
	matrix, err := marketdata.NewBuilder(provider, logger.NewWriter(io.Discard, "error")).
		Build(context.Background(), recs, 12)
	require.NoError(t, err)
	return matrix
}

func defaultRanker() *Ranker {
	return NewRanker(strategyconfig.Default().Portfolio, logger.NewWriter(io.Discard, "error"))
}

// twelve months of prices whose first six returns are
// [0.02, -0.01, 0.03, 0.00, 0.01, -0.02]
var scenarioPrices = []float64{
	100, 102, 100.98, 104.0094, 104.0094, 105.049494,
	102.948504, 108.095929, 104.853051, 106.950112, 108.019614, 105.859221,
}

func TestRankFormationScenario(t *testing.T) {
	matrix := buildMatrix(t, seriesProvider{"NVDA": series("NVDA", scenarioPrices...)}, "NVDA")

	summary, err := defaultRanker().Rank(matrix)
	require.NoError(t, err)

	require.Len(t, summary.Selected, 1)
	cand := summary.Selected[0]
	assert.Equal(t, "NVDA", cand.Symbol)
	assert.InDelta(t, 0.004854866, cand.GeoMean, 1e-8)
	assert.InDelta(t, 0.018708287, cand.Volatility, 1e-8)
	assert.InDelta(t, 0.259503524, cand.Score, 1e-8)
	assert.InDelta(t, 1.0, summary.Weight, 1e-12)

	// Evaluation covers the trailing six returns
	require.Len(t, summary.Evaluation, 6)
	want := []float64{-0.02, 0.05, -0.03, 0.02, 0.01, -0.02}
	for i, m := range summary.Evaluation {
		assert.InDelta(t, want[i], m.Return, 1e-9, "month %d", i)
		assert.Equal(t, 1, m.Symbols)
	}

	assert.Equal(t, 6, summary.Metrics.Months)
	assert.InDelta(t, 0.001666667, summary.Metrics.Mean, 1e-8)
	assert.InDelta(t, 0.027938424, summary.Metrics.Std, 1e-8)
	assert.InDelta(t, 0.007708055, summary.Metrics.Cumulative, 1e-8)
}

func TestRankZeroVolatilityExcluded(t *testing.T) {
	constant := make([]float64, 12)
	for i := range constant {
		constant[i] = 100
	}

	matrix := buildMatrix(t, seriesProvider{
		"FLAT": series("FLAT", constant...),
		"NVDA": series("NVDA", scenarioPrices...),
	}, "FLAT", "NVDA")

	summary, err := defaultRanker().Rank(matrix)
	require.NoError(t, err)

	require.Len(t, summary.Selected, 1)
	assert.Equal(t, "NVDA", summary.Selected[0].Symbol)
}

func TestRankDeterministicTieBreak(t *testing.T) {
	matrix := buildMatrix(t, seriesProvider{
		"ZZZ": series("ZZZ", scenarioPrices...),
		"AAA": series("AAA", scenarioPrices...),
	}, "ZZZ", "AAA")

	summary, err := defaultRanker().Rank(matrix)
	require.NoError(t, err)

	require.Len(t, summary.Selected, 2)
	assert.Equal(t, summary.Selected[0].Score, summary.Selected[1].Score)
	// Equal scores break ties by symbol ascending
	assert.Equal(t, "AAA", summary.Selected[0].Symbol)
	assert.Equal(t, "ZZZ", summary.Selected[1].Symbol)
}

func TestRankIdempotent(t *testing.T) {
	matrix := buildMatrix(t, seriesProvider{
		"AAA": series("AAA", scenarioPrices...),
		"BBB": series("BBB", 100, 105, 99, 108, 103, 110, 104, 112, 108, 115, 111, 118),
	}, "AAA", "BBB")

	ranker := defaultRanker()
	first, err := ranker.Rank(matrix)
	require.NoError(t, err)
	second, err := ranker.Rank(matrix)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRankFewerSurvivorsThanTopN(t *testing.T) {
	provider := seriesProvider{}
	var symbols []string
	for i := 0; i < 7; i++ {
		sym := fmt.Sprintf("S%02d", i)
		symbols = append(symbols, sym)
		prices := make([]float64, 12)
		for m := range prices {
			// Varied, non-constant price paths per symbol
			prices[m] = 100 + float64(i) + float64(m*m%7)*float64(i+1)
		}
		provider[sym] = series(sym, prices...)
	}

	matrix := buildMatrix(t, provider, symbols...)

	summary, err := defaultRanker().Rank(matrix) // top_n defaults to 10
	require.NoError(t, err)

	assert.Len(t, summary.Selected, 7)
	assert.InDelta(t, 1.0/7.0, summary.Weight, 1e-12)
}

func TestRankInsufficientFormationReturnsExcluded(t *testing.T) {
	matrix := buildMatrix(t, seriesProvider{
		// Only two prices inside the window: one return, below the minimum of two
		"THIN": seriesAt("THIN", map[int]float64{10: 100, 11: 105}),
		"NVDA": series("NVDA", scenarioPrices...),
	}, "THIN", "NVDA")

	summary, err := defaultRanker().Rank(matrix)
	require.NoError(t, err)

	require.Len(t, summary.Selected, 1)
	assert.Equal(t, "NVDA", summary.Selected[0].Symbol)
}

func TestRankEvaluationExcludesMissingMonths(t *testing.T) {
	// BBB lacks prices for months 8 and 9; those months fall back to AAA alone
	// and the 9->10 return for BBB is also undefined.
	bbb := map[int]float64{}
	for i := 0; i < 12; i++ {
		if i == 8 || i == 9 {
			continue
		}
		bbb[i] = 100 + 3*float64(i%5)
	}

	matrix := buildMatrix(t, seriesProvider{
		"AAA": series("AAA", scenarioPrices...),
		"BBB": seriesAt("BBB", bbb),
	}, "AAA", "BBB")

	summary, err := defaultRanker().Rank(matrix)
	require.NoError(t, err)
	require.Len(t, summary.Selected, 2)

	require.Len(t, summary.Evaluation, 6)
	for _, m := range summary.Evaluation {
		mon := m.Month.Month()
		// Months 8..10 offsets: Sep, Oct, Nov 2025 returns involve a gap
		if mon == time.September || mon == time.October || mon == time.November {
			assert.Equal(t, 1, m.Symbols, "month %s should only include AAA", m.Month)
		} else {
			assert.Equal(t, 2, m.Symbols, "month %s should include both", m.Month)
		}
	}
}

func TestRankSkipsMonthsWithNoContributors(t *testing.T) {
	// Month offset 9 exists in the grid only through FLAT, which is excluded
	// from selection for zero volatility. With no selected symbol holding a
	// price there, its month is omitted from the evaluation rather than
	// emitted as zero; the gap also removes the following month's return.
	aaa := map[int]float64{}
	bbb := map[int]float64{}
	flat := map[int]float64{}
	for i := 0; i < 12; i++ {
		flat[i] = 50
		if i == 9 {
			continue
		}
		aaa[i] = 100 + 3*float64(i)
		bbb[i] = 80 + float64(i*i)
	}

	matrix := buildMatrix(t, seriesProvider{
		"AAA":  seriesAt("AAA", aaa),
		"BBB":  seriesAt("BBB", bbb),
		"FLAT": seriesAt("FLAT", flat),
	}, "AAA", "BBB", "FLAT")

	summary, err := defaultRanker().Rank(matrix)
	require.NoError(t, err)
	require.Len(t, summary.Selected, 2)

	months := make([]string, 0, len(summary.Evaluation))
	for _, m := range summary.Evaluation {
		months = append(months, m.Month.Format("2006-01"))
		assert.Equal(t, 2, m.Symbols, "month %s", m.Month)
	}
	assert.Equal(t, []string{"2025-07", "2025-08", "2025-09", "2025-12"}, months)
}

func TestRankEmptyMatrix(t *testing.T) {
	matrix := buildMatrix(t, seriesProvider{})

	summary, err := defaultRanker().Rank(matrix)
	require.NoError(t, err)

	assert.Empty(t, summary.Selected)
	assert.Empty(t, summary.Evaluation)
	assert.Zero(t, summary.Weight)
}
