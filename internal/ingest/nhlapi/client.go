package nhlapi

import (
	"context"
	"fmt"
	"log"
	"os/exec"
)

const BaseURL = "https://statsapi.web.nhl.com/api/v1"

// Client fetches live feeds. It shells out to curl like the report client
// so both sources share one transport.
type Client struct {
	baseURL string
	logger  *log.Logger
}

// New creates a feed client with a custom base URL
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	return &Client{
		baseURL: baseURL,
		logger:  log.New(log.Writer(), "[nhlapi] ", log.LstdFlags),
	}
}

// FeedURL is the live feed endpoint for a game
func (c *Client) FeedURL(gameID int) string {
	return fmt.Sprintf("%s/game/%d/feed/live", c.baseURL, gameID)
}

// FetchFeed downloads the raw live feed for a game
func (c *Client) FetchFeed(ctx context.Context, gameID int) ([]byte, error) {
	url := c.FeedURL(gameID)
	cmd := exec.CommandContext(ctx, "curl", "-s", "-L", "-m", "15", url)

	output, err := cmd.Output()
	if err != nil {
		c.logger.Printf("❌ curl failed for game %d: %v", gameID, err)
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("curl failed: %s (stderr: %s)", err, string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("curl execution failed: %w", err)
	}

	if len(output) > 0 && output[0] == '<' {
		return nil, fmt.Errorf("feed returned HTML error page: %s", string(output[:min(len(output), 200)]))
	}

	c.logger.Printf("✓ game %d feed: %d bytes", gameID, len(output))
	return output, nil
}
