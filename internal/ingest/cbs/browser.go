package cbs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/courtvision/internal/ingest"
	"github.com/fortuna/courtvision/internal/logging"
)

// MinRequestInterval to prevent rate limiting.
const MinRequestInterval = 2 * time.Second

// BrowserFetcher renders pages in headless Chrome, for when the plain
// fetch is blocked.
type BrowserFetcher struct {
	mu          sync.Mutex
	lastRequest time.Time
	interval    time.Duration
	timeout     time.Duration

	allocCtx context.Context
	cancel   context.CancelFunc
	log      *logrus.Entry
}

// NewBrowserFetcher starts a headless Chrome allocator.
func NewBrowserFetcher(timeout time.Duration, log *logrus.Logger) *BrowserFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(ingest.UserAgent),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &BrowserFetcher{
		interval: MinRequestInterval,
		timeout:  timeout,
		allocCtx: allocCtx,
		cancel:   cancel,
		log:      logging.Component(log, "cbs-browser"),
	}
}

// Close releases resources.
func (b *BrowserFetcher) Close() {
	if b.cancel != nil {
		b.cancel()
	}
}

// FetchHTML implements Fetcher.
func (b *BrowserFetcher) FetchHTML(ctx context.Context, url string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.lastRequest.IsZero() {
		if wait := b.interval - time.Since(b.lastRequest); wait > 0 {
			b.log.WithField("wait", wait.String()).Debug("Rate limiting browser fetch")
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	defer func() { b.lastRequest = time.Now() }()

	browserCtx, cancel := chromedp.NewContext(b.allocCtx)
	defer cancel()
	browserCtx, cancel = context.WithTimeout(browserCtx, b.timeout)
	defer cancel()

	// Stop the browser if the caller gives up first.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var htmlContent string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady(`table`, chromedp.ByQuery),
		chromedp.OuterHTML(`html`, &htmlContent, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("chromedp error: %w", err)
	}
	if htmlContent == "" {
		return "", fmt.Errorf("empty HTML content returned")
	}
	return htmlContent, nil
}
