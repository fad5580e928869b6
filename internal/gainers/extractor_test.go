package gainers

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/gainers/pkg/logger"
)

const testBaseURL = "https://listing.test/gainers"

// fakeSession serves canned pages keyed by URL.
type fakeSession struct {
	pages        map[string][]SymbolRecord
	navFailures  map[string]int // URL -> remaining navigation failures
	navigated    []string
	current      []SymbolRecord
	consentCalls int
	closed       bool
}

func (f *fakeSession) Navigate(ctx context.Context, url string) error {
	f.navigated = append(f.navigated, url)
	if f.navFailures[url] > 0 {
		f.navFailures[url]--
		return fmt.Errorf("connection reset")
	}
	f.current = f.pages[url]
	return nil
}

func (f *fakeSession) DismissConsent(ctx context.Context) error {
	f.consentCalls++
	return nil
}

func (f *fakeSession) RowCount(ctx context.Context) (int, error) {
	return len(f.current), nil
}

func (f *fakeSession) TableHTML(ctx context.Context) (string, error) {
	return renderTable(f.current), nil
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

func renderTable(rows []SymbolRecord) string {
	var b strings.Builder
	b.WriteString("<table><tbody>")
	for _, r := range rows {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>+1.0%%</td></tr>", r.Symbol, r.Name)
	}
	b.WriteString("</tbody></table>")
	return b.String()
}

func symbols(prefix string, from, to int) []SymbolRecord {
	var out []SymbolRecord
	for i := from; i < to; i++ {
		out = append(out, SymbolRecord{
			Symbol: fmt.Sprintf("%s%02d", prefix, i),
			Name:   fmt.Sprintf("%s Corp %02d", prefix, i),
		})
	}
	return out
}

func pageURL(count, offset int) string {
	return fmt.Sprintf("%s?count=%d&offset=%d", testBaseURL, count, offset)
}

func newTestExtractor(sess Session) *Extractor {
	factory := func(ctx context.Context) (Session, error) { return sess, nil }
	return newTestExtractorFactory(factory)
}

func newTestExtractorFactory(factory SessionFactory) *Extractor {
	return NewExtractor(factory, logger.NewWriter(io.Discard, "error"),
		WithBaseURL(testBaseURL),
		WithWait(50*time.Millisecond, 5*time.Millisecond),
		WithLoadRetries(2, time.Millisecond),
	)
}

func TestExtractTwoFullPages(t *testing.T) {
	sess := &fakeSession{pages: map[string][]SymbolRecord{
		pageURL(25, 0):  symbols("A", 0, 25),
		pageURL(25, 25): symbols("B", 0, 25),
	}}

	got, err := newTestExtractor(sess).Extract(context.Background(), 50, 25)
	require.NoError(t, err)

	assert.Len(t, got, 50)
	assert.Equal(t, "A00", got[0].Symbol)
	assert.Equal(t, "B24", got[49].Symbol)
	// Target met by paging, the wide fallback must not fire
	assert.Equal(t, []string{pageURL(25, 0), pageURL(25, 25)}, sess.navigated)
	assert.Equal(t, 2, sess.consentCalls)
	assertNoDuplicates(t, got)
}

func TestExtractWideFallbackAfterShortPages(t *testing.T) {
	// Both pages overlap: only 45 unique rows, so the wide request fires.
	// The wide page re-returns already-seen symbols plus fresh ones.
	page1 := symbols("A", 0, 25)
	page2 := append(symbols("A", 20, 25), symbols("B", 0, 20)...) // 5 dupes + 20 new
	wide := append(append([]SymbolRecord{}, page1...), append(symbols("B", 0, 20), symbols("C", 0, 10)...)...)

	sess := &fakeSession{pages: map[string][]SymbolRecord{
		pageURL(25, 0):  page1,
		pageURL(25, 25): page2,
		pageURL(100, 0): wide,
	}}

	got, err := newTestExtractor(sess).Extract(context.Background(), 50, 25)
	require.NoError(t, err)

	assert.Len(t, got, 50)
	assertNoDuplicates(t, got)
	assert.Contains(t, sess.navigated, pageURL(100, 0))
	// Paged rows keep their extraction order ahead of fallback additions
	assert.Equal(t, "A00", got[0].Symbol)
	assert.Equal(t, "C04", got[49].Symbol)
}

func TestExtractShortResultIsNotAnError(t *testing.T) {
	// 30 unique rows total, fallback returns nothing new
	sess := &fakeSession{pages: map[string][]SymbolRecord{
		pageURL(25, 0):  symbols("A", 0, 25),
		pageURL(25, 25): symbols("A", 20, 30),
		pageURL(100, 0): symbols("A", 0, 30),
	}}

	got, err := newTestExtractor(sess).Extract(context.Background(), 50, 25)
	require.NoError(t, err)

	assert.Len(t, got, 30)
	assertNoDuplicates(t, got)
}

func TestExtractWaitTimeoutProceedsWithPresentRows(t *testing.T) {
	// Page renders fewer rows than the page size; the wait deadline passes and
	// extraction proceeds with what is there.
	sess := &fakeSession{pages: map[string][]SymbolRecord{
		pageURL(25, 0):  symbols("A", 0, 10),
		pageURL(25, 25): nil,
		pageURL(100, 0): symbols("A", 0, 10),
	}}

	got, err := newTestExtractor(sess).Extract(context.Background(), 50, 25)
	require.NoError(t, err)
	assert.Len(t, got, 10)
}

func TestExtractNavigationRetry(t *testing.T) {
	sess := &fakeSession{
		pages: map[string][]SymbolRecord{
			pageURL(25, 0): symbols("A", 0, 25),
		},
		navFailures: map[string]int{
			pageURL(25, 0): 1, // first attempt fails, retry succeeds
		},
	}

	got, err := newTestExtractor(sess).Extract(context.Background(), 25, 25)
	require.NoError(t, err)
	assert.Len(t, got, 25)
}

func TestExtractPageFailureDegrades(t *testing.T) {
	// Page 1 never loads; page 2 and the fallback still contribute.
	sess := &fakeSession{
		pages: map[string][]SymbolRecord{
			pageURL(25, 25): symbols("B", 0, 25),
			pageURL(100, 0): symbols("B", 0, 25),
		},
		navFailures: map[string]int{
			pageURL(25, 0): 10,
		},
	}

	got, err := newTestExtractor(sess).Extract(context.Background(), 50, 25)
	require.NoError(t, err)
	assert.Len(t, got, 25)
	assertNoDuplicates(t, got)
}

func TestExtractTruncatesToTarget(t *testing.T) {
	sess := &fakeSession{pages: map[string][]SymbolRecord{
		pageURL(10, 0): symbols("A", 0, 30),
	}}

	got, err := newTestExtractor(sess).Extract(context.Background(), 10, 10)
	require.NoError(t, err)
	assert.Len(t, got, 10)
	assert.Equal(t, "A09", got[9].Symbol)
}

func TestExtractEmptyListing(t *testing.T) {
	sess := &fakeSession{pages: map[string][]SymbolRecord{}}

	got, err := newTestExtractor(sess).Extract(context.Background(), 50, 25)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExtractInvalidParameters(t *testing.T) {
	sess := &fakeSession{}
	_, err := newTestExtractor(sess).Extract(context.Background(), 0, 25)
	assert.Error(t, err)
}

func TestExtractClosesSessionOnExit(t *testing.T) {
	sess := &fakeSession{pages: map[string][]SymbolRecord{
		pageURL(25, 0): symbols("A", 0, 25),
	}}

	_, err := newTestExtractor(sess).Extract(context.Background(), 25, 25)
	require.NoError(t, err)
	assert.True(t, sess.closed)
}

func TestExtractOpensFreshSessionPerRun(t *testing.T) {
	// A session that died in one run must not poison the next: each
	// extraction gets its own session from the factory.
	var opened []*fakeSession
	factory := func(ctx context.Context) (Session, error) {
		sess := &fakeSession{pages: map[string][]SymbolRecord{
			pageURL(25, 0): symbols("A", 0, 25),
		}}
		opened = append(opened, sess)
		return sess, nil
	}
	e := newTestExtractorFactory(factory)

	for i := 0; i < 2; i++ {
		got, err := e.Extract(context.Background(), 25, 25)
		require.NoError(t, err)
		assert.Len(t, got, 25)
	}

	require.Len(t, opened, 2)
	assert.NotSame(t, opened[0], opened[1])
	for _, sess := range opened {
		assert.True(t, sess.closed)
	}
}

func TestExtractSessionOpenFailure(t *testing.T) {
	factory := func(ctx context.Context) (Session, error) {
		return nil, fmt.Errorf("browser binary not found")
	}

	_, err := newTestExtractorFactory(factory).Extract(context.Background(), 25, 25)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open browser session")
}

func assertNoDuplicates(t *testing.T, records []SymbolRecord) {
	t.Helper()
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		assert.False(t, seen[r.Symbol], "duplicate symbol %s", r.Symbol)
		seen[r.Symbol] = true
	}
}
