package htmlreport

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"sync"
	"time"
)

const (
	BaseURL = "http://www.nhl.com/scores/htmlreports"

	// MinRequestInterval spaces out requests to the report host
	MinRequestInterval = 500 * time.Millisecond
)

// Report kinds
const (
	KindPlayByPlay = "PL"
	KindRoster     = "RO"
	KindHomeShifts = "TH"
	KindAwayShifts = "TV"
)

// ErrReportMissing means the host has no such report (HTTP 4xx)
var ErrReportMissing = errors.New("report not available")

// curl exits with 22 under -f when the server answers 400 or above
const curlHTTPError = 22

// Client downloads reports with rate limiting. It is safe for concurrent
// use; requests are serialized.
type Client struct {
	baseURL string
	logger  *log.Logger

	mu          sync.Mutex
	lastRequest time.Time
	interval    time.Duration
}

// NewClient creates a report client. An empty baseURL selects BaseURL.
func NewClient(baseURL string, interval time.Duration) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	if interval <= 0 {
		interval = MinRequestInterval
	}
	return &Client{
		baseURL:  baseURL,
		logger:   log.New(log.Writer(), "[htmlreport] ", log.LstdFlags),
		interval: interval,
	}
}

// ReportURL is the address of one report, e.g. .../20232024/PL020001.HTM
func (c *Client) ReportURL(season, gameID int, kind string) string {
	return reportURL(c.baseURL, season, gameID, kind)
}

func reportURL(base string, season, gameID int, kind string) string {
	return fmt.Sprintf("%s/%d/%s%06d.HTM", base, season, kind, gameID%1000000)
}

// Fetch downloads one report
func (c *Client) Fetch(ctx context.Context, season, gameID int, kind string) ([]byte, error) {
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

	url := c.ReportURL(season, gameID, kind)
	cmd := exec.CommandContext(ctx, "curl", "-s", "-f", "-L", "-m", "15", url)

	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == curlHTTPError {
			return nil, fmt.Errorf("%s for game %d: %w", kind, gameID, ErrReportMissing)
		}
		c.logger.Printf("❌ curl failed for %s: %v", url, err)
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}

	return output, nil
}
