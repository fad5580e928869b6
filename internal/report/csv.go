package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/wonny/gainers/internal/gainers"
	"github.com/wonny/gainers/internal/pipeline"
	"github.com/wonny/gainers/pkg/logger"
)

// Writer persists pipeline results as flat CSV files under a single output
// directory. It only sees plain tabular structures; the pipeline core knows
// nothing about paths or formats.
type Writer struct {
	dir    string
	logger *logger.Logger
}

// NewWriter creates a report writer rooted at dir.
func NewWriter(dir string, log *logger.Logger) *Writer {
	return &Writer{dir: dir, logger: log}
}

// WriteAll persists the gainers list, the wide price matrix and the portfolio
// files for one run.
func (w *Writer) WriteAll(result *pipeline.Result) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("ensure output dir: %w", err)
	}

	if err := w.writeGainers(result); err != nil {
		return err
	}
	if err := w.writeMatrix(result); err != nil {
		return err
	}
	if err := w.writePortfolio(result); err != nil {
		return err
	}

	w.logger.WithField("dir", w.dir).Info("Reports written")
	return nil
}

// writeGainers writes the extracted (symbol, name) listing.
func (w *Writer) writeGainers(result *pipeline.Result) error {
	return w.WriteGainers(result.Gainers)
}

// WriteGainers writes top_gainers.csv for a bare symbol listing, used
// when only the extraction stage ran.
func (w *Writer) WriteGainers(records []gainers.SymbolRecord) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("ensure output dir: %w", err)
	}

	rows := [][]string{{"symbol", "name"}}
	for _, rec := range records {
		rows = append(rows, []string{rec.Symbol, rec.Name})
	}
	return w.writeCSV("top_gainers.csv", rows)
}

// writeMatrix writes the wide month-end x symbol adjusted-close table, one row
// per symbol with YYYY-MM date headers. Missing cells stay empty.
func (w *Writer) writeMatrix(result *pipeline.Result) error {
	matrix := result.Matrix

	header := []string{"symbol", "name"}
	for _, m := range matrix.Months {
		header = append(header, m.Format("2006-01"))
	}

	rows := [][]string{header}
	for _, symbol := range matrix.Symbols {
		row := []string{symbol, matrix.Name(symbol)}
		for _, m := range matrix.Months {
			if v, ok := matrix.At(symbol, m); ok {
				row = append(row, formatFloat(v))
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}

	return w.writeCSV("adj_close_monthly_wide.csv", rows)
}

// writePortfolio writes the selection, the per-month evaluation returns and
// the aggregate metrics.
func (w *Writer) writePortfolio(result *pipeline.Result) error {
	summary := result.Summary

	selection := [][]string{{"symbol", "name", "geo_mean", "arith_mean", "volatility", "score", "weight"}}
	for _, c := range summary.Selected {
		selection = append(selection, []string{
			c.Symbol, c.Name,
			formatFloat(c.GeoMean), formatFloat(c.ArithMean),
			formatFloat(c.Volatility), formatFloat(c.Score),
			formatFloat(summary.Weight),
		})
	}
	if err := w.writeCSV("portfolio_selection.csv", selection); err != nil {
		return err
	}

	eval := [][]string{{"month", "portfolio_return", "symbols"}}
	for _, m := range summary.Evaluation {
		eval = append(eval, []string{
			m.Month.Format("2006-01"),
			formatFloat(m.Return),
			strconv.Itoa(m.Symbols),
		})
	}
	if err := w.writeCSV("portfolio_evaluation.csv", eval); err != nil {
		return err
	}

	metrics := [][]string{
		{"metric", "value"},
		{"months", strconv.Itoa(summary.Metrics.Months)},
		{"mean_monthly_return", formatFloat(summary.Metrics.Mean)},
		{"std_monthly_return", formatFloat(summary.Metrics.Std)},
		{"cumulative_return", formatFloat(summary.Metrics.Cumulative)},
	}
	return w.writeCSV("portfolio_summary.csv", metrics)
}

func (w *Writer) writeCSV(name string, rows [][]string) error {
	path := filepath.Join(w.dir, name)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
