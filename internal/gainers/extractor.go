package gainers

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/gainers/pkg/logger"
)

// DefaultBaseURL is the public top-gainers listing.
const DefaultBaseURL = "https://finance.yahoo.com/markets/stocks/gainers"

// strategyKind names one way of requesting the listing.
type strategyKind string

const (
	strategyPaged strategyKind = "paged" // page through offset windows
	strategyWide  strategyKind = "wide"  // single request with an enlarged count
)

// fetchStrategy is one listing request plan. Strategies are tried in order
// until the target count is met or strategies exhaust.
type fetchStrategy struct {
	kind    strategyKind
	count   int   // count query parameter
	offsets []int // offset query parameter per page
	minRows int   // rendered rows to wait for before extraction
}

// SessionFactory opens a fresh browser session. The extractor calls it once
// per extraction and closes the session on every exit path, so a browser that
// dies never outlives the run that saw it die.
type SessionFactory func(ctx context.Context) (Session, error)

// Extractor pulls the ranked (symbol, name) listing from the gainers page.
type Extractor struct {
	newSession   SessionFactory
	logger       *logger.Logger
	baseURL      string
	waitTimeout  time.Duration // max wait for the table to render
	pollInterval time.Duration
	loadRetries  int // full page-load attempts before degrading
	retryDelay   time.Duration
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithBaseURL overrides the listing URL, used by tests.
func WithBaseURL(url string) Option {
	return func(e *Extractor) { e.baseURL = url }
}

// WithWait overrides the render wait timeout and poll interval.
func WithWait(timeout, interval time.Duration) Option {
	return func(e *Extractor) {
		e.waitTimeout = timeout
		e.pollInterval = interval
	}
}

// WithLoadRetries overrides the page-load retry policy.
func WithLoadRetries(retries int, delay time.Duration) Option {
	return func(e *Extractor) {
		e.loadRetries = retries
		e.retryDelay = delay
	}
}

// NewExtractor creates an extractor that acquires a browser session per run.
func NewExtractor(newSession SessionFactory, log *logger.Logger, opts ...Option) *Extractor {
	e := &Extractor{
		newSession:   newSession,
		logger:       log,
		baseURL:      DefaultBaseURL,
		waitTimeout:  60 * time.Second,
		pollInterval: 500 * time.Millisecond,
		loadRetries:  3,
		retryDelay:   3 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns up to targetCount unique symbols in listing order.
// A result shorter than targetCount is not an error; the wide-page fallback is
// best effort. Zero usable pages still return an empty, non-nil slice so the
// caller decides whether that is terminal.
func (e *Extractor) Extract(ctx context.Context, targetCount, pageSize int) ([]SymbolRecord, error) {
	if targetCount <= 0 || pageSize <= 0 {
		return nil, fmt.Errorf("invalid extraction parameters: target=%d page_size=%d", targetCount, pageSize)
	}

	sess, err := e.newSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("open browser session: %w", err)
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			e.logger.WithError(cerr).Warn("Failed to close browser session")
		}
	}()

	merged := make([]SymbolRecord, 0, targetCount)
	seen := make(map[string]bool, targetCount)

	for _, strat := range buildStrategies(targetCount, pageSize) {
		if len(merged) >= targetCount {
			break
		}

		e.logger.WithFields(map[string]interface{}{
			"strategy": string(strat.kind),
			"count":    strat.count,
			"have":     len(merged),
			"target":   targetCount,
		}).Info("Running extraction strategy")

		for _, offset := range strat.offsets {
			if len(merged) >= targetCount {
				break
			}

			rows, err := e.loadPage(ctx, sess, strat.count, offset, strat.minRows)
			if err != nil {
				// Degraded input, not fatal: continue with the next page
				e.logger.WithError(err).WithFields(map[string]interface{}{
					"strategy": string(strat.kind),
					"offset":   offset,
				}).Warn("Listing page failed, continuing with partial extraction")
				continue
			}

			for _, rec := range rows {
				if seen[rec.Symbol] {
					continue
				}
				seen[rec.Symbol] = true
				merged = append(merged, rec)
			}
		}
	}

	if len(merged) > targetCount {
		merged = merged[:targetCount]
	}

	e.logger.WithFields(map[string]interface{}{
		"symbols": len(merged),
		"target":  targetCount,
	}).Info("Extraction completed")

	return merged, nil
}

// buildStrategies returns the request plans in priority order: offset paging
// first, then a single enlarged-count request as fallback widening.
func buildStrategies(targetCount, pageSize int) []fetchStrategy {
	pages := (targetCount + pageSize - 1) / pageSize
	offsets := make([]int, 0, pages)
	for p := 0; p < pages; p++ {
		offsets = append(offsets, p*pageSize)
	}

	return []fetchStrategy{
		{kind: strategyPaged, count: pageSize, offsets: offsets, minRows: pageSize},
		{kind: strategyWide, count: targetCount * 2, offsets: []int{0}, minRows: targetCount},
	}
}

// loadPage navigates to one listing window and extracts its rows. Navigation
// failures retry with a fixed delay; a render-wait timeout is recoverable and
// extraction proceeds with the rows present.
func (e *Extractor) loadPage(ctx context.Context, sess Session, count, offset, minRows int) ([]SymbolRecord, error) {
	url := fmt.Sprintf("%s?count=%d&offset=%d", e.baseURL, count, offset)

	var lastErr error
	for attempt := 1; attempt <= e.loadRetries; attempt++ {
		if err := sess.Navigate(ctx, url); err != nil {
			lastErr = fmt.Errorf("navigate %s: %w", url, err)
			e.logger.WithError(err).WithFields(map[string]interface{}{
				"url":     url,
				"attempt": attempt,
			}).Warn("Page load failed")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(e.retryDelay):
			}
			continue
		}

		if err := sess.DismissConsent(ctx); err != nil {
			// Overlay handling is best effort
			e.logger.WithError(err).Debug("Consent dismissal failed")
		}

		n, reached := waitRows(ctx, sess, minRows, e.waitTimeout, e.pollInterval)
		if !reached {
			e.logger.WithFields(map[string]interface{}{
				"url":      url,
				"rows":     n,
				"expected": minRows,
			}).Warn("Row count not reached before timeout, extracting present rows")
		}
		if n == 0 {
			lastErr = fmt.Errorf("no rows rendered at %s", url)
			continue
		}

		html, err := sess.TableHTML(ctx)
		if err != nil {
			lastErr = fmt.Errorf("read table: %w", err)
			continue
		}

		rows, err := ParseRows(html)
		if err != nil {
			lastErr = err
			continue
		}

		e.logger.WithFields(map[string]interface{}{
			"url":  url,
			"rows": len(rows),
		}).Debug("Extracted listing page")
		return rows, nil
	}

	return nil, lastErr
}
