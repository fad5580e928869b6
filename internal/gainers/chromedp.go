package gainers

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36"

// consentClickJS clicks the cookie/consent button when one is on the page.
// Returns false when no overlay is present.
const consentClickJS = `(() => {
	let btn = document.querySelector("button[aria-label*='Accept']");
	if (!btn) {
		btn = Array.from(document.querySelectorAll('button'))
			.find(b => /accept|agree/i.test(b.textContent));
	}
	if (btn) {
		btn.scrollIntoView({block: 'center'});
		btn.click();
		return true;
	}
	return false;
})()`

// ChromeSession drives a headless Chrome instance via the DevTools protocol.
// The session is exclusive and must be closed on all exit paths.
type ChromeSession struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	opTimeout   time.Duration
}

// ChromeSessionFactory returns a SessionFactory that starts a fresh Chrome
// process for each extraction.
func ChromeSessionFactory(headless bool) SessionFactory {
	return func(ctx context.Context) (Session, error) {
		return NewChromeSession(ctx, headless)
	}
}

// NewChromeSession starts a browser process and opens a tab.
func NewChromeSession(parent context.Context, headless bool) (*ChromeSession, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(1400, 900),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	// Start the browser eagerly so a missing Chrome binary surfaces here
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &ChromeSession{
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: allocCancel,
		opTimeout:   90 * time.Second,
	}, nil
}

// Navigate loads the URL and scrolls to the bottom so lazy rows render.
func (s *ChromeSession) Navigate(ctx context.Context, url string) error {
	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	err := chromedp.Run(opCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(2*time.Second),
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
	)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// DismissConsent clicks the consent overlay when present. No-op otherwise.
func (s *ChromeSession) DismissConsent(ctx context.Context) error {
	opCtx, cancel := s.opContextTimeout(ctx, 5*time.Second)
	defer cancel()

	var clicked bool
	if err := chromedp.Run(opCtx, chromedp.Evaluate(consentClickJS, &clicked)); err != nil {
		return fmt.Errorf("consent click: %w", err)
	}
	if clicked {
		// Give the overlay a moment to disappear
		_ = chromedp.Run(opCtx, chromedp.Sleep(500*time.Millisecond))
	}
	return nil
}

// RowCount returns the number of rendered listing table rows.
func (s *ChromeSession) RowCount(ctx context.Context) (int, error) {
	opCtx, cancel := s.opContextTimeout(ctx, 10*time.Second)
	defer cancel()

	var n int
	err := chromedp.Run(opCtx,
		chromedp.Evaluate(`document.querySelectorAll('section table tbody tr').length`, &n),
	)
	if err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return n, nil
}

// TableHTML returns the outer HTML of the listing table, empty when absent.
func (s *ChromeSession) TableHTML(ctx context.Context) (string, error) {
	opCtx, cancel := s.opContextTimeout(ctx, 10*time.Second)
	defer cancel()

	var html string
	err := chromedp.Run(opCtx,
		chromedp.Evaluate(`(document.querySelector('section table') || {outerHTML: ''}).outerHTML`, &html),
	)
	if err != nil {
		return "", fmt.Errorf("read table HTML: %w", err)
	}
	return html, nil
}

// Close shuts the tab and the browser process down.
func (s *ChromeSession) Close() error {
	s.cancel()
	s.allocCancel()
	return nil
}

// opContext derives an operation context from the session tab, bounded by the
// default operation timeout and cancelled when the caller's context is.
func (s *ChromeSession) opContext(caller context.Context) (context.Context, context.CancelFunc) {
	return s.opContextTimeout(caller, s.opTimeout)
}

func (s *ChromeSession) opContextTimeout(caller context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	opCtx, cancel := context.WithTimeout(s.ctx, timeout)

	stop := context.AfterFunc(caller, cancel)
	return opCtx, func() {
		stop()
		cancel()
	}
}
