// Package ats fetches job listings from the third-party job-board feed.
// The rest of the service consumes it only as a cached fetch source.
package ats

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Job is a single open position from the job board.
type Job struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Department string    `json:"department"`
	Location   string    `json:"location"`
	ApplyURL   string    `json:"applyUrl"`
	PostedAt   time.Time `json:"postedAt"`
}

// Client fetches the published job feed.
type Client struct {
	feedURL string
	http    *http.Client
}

// NewClient creates a job-board client for the given feed URL.
func NewClient(feedURL string) *Client {
	return &Client{
		feedURL: feedURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// ListJobs fetches all currently open positions.
func (c *Client) ListJobs(ctx context.Context) ([]Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build job feed request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch job feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("job feed returned status %d", resp.StatusCode)
	}

	var feed struct {
		Jobs []Job `json:"jobs"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decode job feed: %w", err)
	}

	return feed.Jobs, nil
}
