package htmlreport

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"golang.org/x/text/encoding/charmap"
)

// UserAgent is sent by the headless browser
const UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// BrowserClient downloads reports through headless Chrome, for hosts that
// turn away plain HTTP clients. Pages come back as the DOM's UTF-8 and are
// re-encoded to Latin-1 so they parse like a direct download.
type BrowserClient struct {
	baseURL string
	logger  *log.Logger

	mu          sync.Mutex
	lastRequest time.Time
	interval    time.Duration

	allocCtx context.Context
	cancel   context.CancelFunc
}

// NewBrowserClient starts a Chrome allocator. Call Close to release it.
func NewBrowserClient(baseURL string, interval time.Duration) *BrowserClient {
	if baseURL == "" {
		baseURL = BaseURL
	}
	if interval <= 0 {
		interval = MinRequestInterval
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(UserAgent),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &BrowserClient{
		baseURL:  baseURL,
		logger:   log.New(log.Writer(), "[htmlreport] ", log.LstdFlags),
		interval: interval,
		allocCtx: allocCtx,
		cancel:   cancel,
	}
}

// Close releases the browser
func (c *BrowserClient) Close() {
	if c.cancel != nil {
		c.cancel()
	}
}

// ReportURL is the address of one report
func (c *BrowserClient) ReportURL(season, gameID int, kind string) string {
	return reportURL(c.baseURL, season, gameID, kind)
}

// Fetch renders one report and returns it Latin-1 encoded
func (c *BrowserClient) Fetch(ctx context.Context, season, gameID int, kind string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lastRequest.IsZero() {
		if wait := c.interval - time.Since(c.lastRequest); wait > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	defer func() { c.lastRequest = time.Now() }()

	browserCtx, cancel := chromedp.NewContext(c.allocCtx)
	defer cancel()
	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, 30*time.Second)
	defer cancelTimeout()

	stop := context.AfterFunc(ctx, cancelTimeout)
	defer stop()

	url := c.ReportURL(season, gameID, kind)
	resp, err := chromedp.RunResponse(browserCtx, chromedp.Navigate(url))
	if err != nil {
		c.logger.Printf("❌ browser failed for %s: %v", url, err)
		return nil, fmt.Errorf("navigating to %s: %w", url, err)
	}
	if resp != nil && resp.Status >= 400 {
		return nil, fmt.Errorf("%s for game %d (HTTP %d): %w", kind, gameID, resp.Status, ErrReportMissing)
	}

	var page string
	if err := chromedp.Run(browserCtx, chromedp.OuterHTML(`html`, &page, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}

	latin1, err := charmap.ISO8859_1.NewEncoder().String(page)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", url, err)
	}
	return []byte(latin1), nil
}
