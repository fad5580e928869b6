package ranking

import (
	"sort"
	"time"

	"github.com/wonny/gainers/internal/marketdata"
	"github.com/wonny/gainers/internal/strategyconfig"
	"github.com/wonny/gainers/pkg/logger"
)

// minVolatility guards the score division: symbols whose formation window
// shows effectively constant prices are excluded rather than scored.
const minVolatility = 1e-9

// Candidate is one scored symbol from the formation window.
type Candidate struct {
	Symbol     string  `json:"symbol"`
	Name       string  `json:"name"`
	GeoMean    float64 `json:"geo_mean"`
	ArithMean  float64 `json:"arith_mean"`
	Volatility float64 `json:"volatility"`
	Score      float64 `json:"score"` // GeoMean / Volatility
}

// MonthReturn is the equal-weighted portfolio return for one evaluation month.
type MonthReturn struct {
	Month   time.Time `json:"month"`
	Return  float64   `json:"return"`
	Symbols int       `json:"symbols"` // selected symbols contributing this month
}

// Metrics aggregates the evaluation sequence.
type Metrics struct {
	Months     int     `json:"months"`
	Mean       float64 `json:"mean_monthly_return"`
	Std        float64 `json:"std_monthly_return"`
	Cumulative float64 `json:"cumulative_return"`
}

// Summary is the final ranked candidate portfolio for one pipeline run.
// Computed once, never mutated.
type Summary struct {
	Selected   []Candidate   `json:"selected"` // descending by score
	Weight     float64       `json:"weight"`   // equal weight per selected symbol
	Evaluation []MonthReturn `json:"evaluation"`
	Metrics    Metrics       `json:"metrics"`
}

// Ranker scores symbols over the formation window and evaluates the selected
// set over the trailing window of the same length.
type Ranker struct {
	cfg    strategyconfig.Portfolio
	logger *logger.Logger
}

// NewRanker creates a ranker with the given portfolio parameters.
func NewRanker(cfg strategyconfig.Portfolio, log *logger.Logger) *Ranker {
	return &Ranker{cfg: cfg, logger: log}
}

// Rank derives the candidate portfolio from a price matrix. Deterministic for
// identical input: ordering is score descending with symbol ascending as the
// tie-break. Fewer survivors than top-N select all; an evaluation window with
// no overlap yields an empty sequence. Neither case is an error.
func (r *Ranker) Rank(matrix *marketdata.PriceMatrix) (*Summary, error) {
	candidates := r.scoreFormation(matrix)

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Symbol < candidates[j].Symbol
	})

	topN := r.cfg.TopN
	if len(candidates) < topN {
		topN = len(candidates)
	}
	selected := candidates[:topN]

	summary := &Summary{
		Selected:   selected,
		Evaluation: r.evaluate(matrix, selected),
	}
	if len(selected) > 0 {
		summary.Weight = 1 / float64(len(selected))
	}
	summary.Metrics = evaluationMetrics(summary.Evaluation)

	r.logger.WithFields(map[string]interface{}{
		"candidates":  len(candidates),
		"selected":    len(selected),
		"eval_months": len(summary.Evaluation),
	}).Info("Portfolio ranked")

	return summary, nil
}

// scoreFormation computes formation-window returns, geometric mean, sample
// volatility and score per symbol. Symbols with insufficient returns or
// near-zero volatility are excluded from ranking.
func (r *Ranker) scoreFormation(matrix *marketdata.PriceMatrix) []Candidate {
	formRows := matrix.Months
	// The first formation_months returns need formation_months+1 price rows
	if len(formRows) > r.cfg.FormationMonths+1 {
		formRows = formRows[:r.cfg.FormationMonths+1]
	}

	var candidates []Candidate
	for _, symbol := range matrix.Symbols {
		returns := monthlyReturns(matrix, symbol, formRows)

		if len(returns) < r.cfg.MinFormationReturns {
			r.logger.WithFields(map[string]interface{}{
				"symbol":  symbol,
				"returns": len(returns),
			}).Debug("Insufficient formation returns, excluded from ranking")
			continue
		}

		vol := stdDev(returns, true)
		if vol < minVolatility {
			r.logger.WithField("symbol", symbol).Debug("Zero formation volatility, excluded from ranking")
			continue
		}

		geo := geoMean(returns)
		candidates = append(candidates, Candidate{
			Symbol:     symbol,
			Name:       matrix.Name(symbol),
			GeoMean:    geo,
			ArithMean:  arithMean(returns),
			Volatility: vol,
			Score:      geo / vol,
		})
	}

	return candidates
}

// evaluate computes the equal-weighted portfolio return per evaluation month.
// The window is the trailing formation_months returns of the matrix. A symbol
// missing a month is excluded from that month's average, not zero-filled;
// months where no selected symbol has a return are skipped entirely.
func (r *Ranker) evaluate(matrix *marketdata.PriceMatrix, selected []Candidate) []MonthReturn {
	if len(selected) == 0 || len(matrix.Months) < 2 {
		return nil
	}

	start := len(matrix.Months) - r.cfg.FormationMonths - 1
	if start < 0 {
		start = 0
	}
	evalRows := matrix.Months[start:]

	var out []MonthReturn
	for i := 1; i < len(evalRows); i++ {
		var rets []float64
		for _, cand := range selected {
			prev, okPrev := matrix.At(cand.Symbol, evalRows[i-1])
			curr, okCurr := matrix.At(cand.Symbol, evalRows[i])
			if !okPrev || !okCurr || prev == 0 {
				continue
			}
			rets = append(rets, curr/prev-1)
		}
		if len(rets) == 0 {
			continue
		}
		out = append(out, MonthReturn{
			Month:   evalRows[i],
			Return:  arithMean(rets),
			Symbols: len(rets),
		})
	}
	return out
}

// monthlyReturns computes month-over-month simple returns for a symbol over
// the given rows. A return exists only when the symbol has prices in both
// adjacent months; gaps are dropped, never interpolated.
func monthlyReturns(matrix *marketdata.PriceMatrix, symbol string, rows []time.Time) []float64 {
	var returns []float64
	for i := 1; i < len(rows); i++ {
		prev, okPrev := matrix.At(symbol, rows[i-1])
		curr, okCurr := matrix.At(symbol, rows[i])
		if !okPrev || !okCurr || prev == 0 {
			continue
		}
		returns = append(returns, curr/prev-1)
	}
	return returns
}

// evaluationMetrics aggregates the evaluation sequence like the portfolio
// summary sheet: month count, mean, population std and compounded return.
func evaluationMetrics(eval []MonthReturn) Metrics {
	rets := make([]float64, 0, len(eval))
	for _, m := range eval {
		rets = append(rets, m.Return)
	}
	return Metrics{
		Months:     len(rets),
		Mean:       arithMean(rets),
		Std:        stdDev(rets, false),
		Cumulative: cumulative(rets),
	}
}
