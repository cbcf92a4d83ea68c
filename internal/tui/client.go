package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/dive-conditions/internal/domain"
)

// Client fetches the latest daily report from a running ranker service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a report client for the ranker at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Report fetches the most recent daily report.
func (c *Client) Report(ctx context.Context) (domain.DailyReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/report", nil)
	if err != nil {
		return domain.DailyReport{}, fmt.Errorf("building report request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.DailyReport{}, fmt.Errorf("fetching report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		return domain.DailyReport{}, errors.New("ranker has not generated a report yet")
	}
	if resp.StatusCode != http.StatusOK {
		return domain.DailyReport{}, fmt.Errorf("report request returned status %d", resp.StatusCode)
	}

	var report domain.DailyReport
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return domain.DailyReport{}, fmt.Errorf("decoding report: %w", err)
	}
	return report, nil
}
