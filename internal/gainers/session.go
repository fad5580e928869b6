package gainers

import (
	"context"
	"time"
)

// Session is a live browser session against the listing site. The production
// implementation drives headless Chrome; tests substitute a fake.
type Session interface {
	// Navigate loads the given URL and scrolls the page to the bottom so the
	// full table renders.
	Navigate(ctx context.Context, url string) error

	// DismissConsent clicks the cookie/consent overlay when present.
	// A missing overlay is not an error.
	DismissConsent(ctx context.Context) error

	// RowCount returns the number of currently rendered table rows.
	RowCount(ctx context.Context) (int, error)

	// TableHTML returns the outer HTML of the listing table, or an empty
	// string when the table has not rendered yet.
	TableHTML(ctx context.Context) (string, error)

	// Close tears the session down. Safe to call on all exit paths.
	Close() error
}

// waitRows polls the session until at least min rows are rendered or the
// timeout elapses. It returns the last observed row count and whether the
// threshold was reached; hitting the deadline is recoverable, the caller
// proceeds with whatever rows are present.
func waitRows(ctx context.Context, sess Session, min int, timeout, interval time.Duration) (int, bool) {
	deadline := time.Now().Add(timeout)
	last := 0

	for {
		n, err := sess.RowCount(ctx)
		if err == nil {
			last = n
			if n >= min {
				return n, true
			}
		}

		if time.Now().After(deadline) {
			return last, false
		}

		select {
		case <-ctx.Done():
			return last, false
		case <-time.After(interval):
		}
	}
}
