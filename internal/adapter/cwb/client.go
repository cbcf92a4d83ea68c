// Package cwb checks Hawaii Department of Health Clean Water Branch
// advisories for active water quality hazards.
//
// Any active advisory at a beach (brown water, sewage spill, bacteria)
// means runoff or contamination, so site matching treats them all as a
// brown water condition. Matching is by name against the advisory's beach
// and reason text, with a minimum length guard so short Hawaiian name
// fragments do not cross-match.
package cwb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/dive-conditions/internal/adapter/fetchcache"
	"github.com/couchcryptid/dive-conditions/internal/domain"
)

const (
	defaultBaseURL = "https://eha-cloud.doh.hawaii.gov/cwb/api/advisories"
	cacheTTL       = 30 * time.Minute

	// minMatchLen guards name matching; "kai" alone would match half the
	// island.
	minMatchLen = 4
)

// oahuLocations recognize an Oahu advisory when the island field is blank.
var oahuLocations = []string{
	"oahu", "honolulu", "waikiki", "ala moana", "hanauma", "kailua",
	"kaneohe", "north shore", "waimea", "haleiwa", "waianae", "makaha",
	"ko olina", "diamond head", "hawaii kai", "waimanalo", "lanikai",
	"sandy beach", "makapuu",
}

// Advisory is one active Clean Water Branch posting.
type Advisory struct {
	Beach      string `json:"beach"`
	Island     string `json:"island"`
	Type       string `json:"type"`
	Reason     string `json:"reason"`
	PostedDate string `json:"posted_date"`
	Status     string `json:"status"`
}

// IsBrownWater reports whether the advisory is specifically a brown water
// (storm runoff) posting rather than a spill or bacteria exceedance.
func (a Advisory) IsBrownWater() bool {
	return strings.Contains(strings.ToLower(a.Type), "brown water") ||
		strings.Contains(strings.ToLower(a.Reason), "brown water")
}

// Client fetches advisories from the DOH API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cache      *fetchcache.Cache
	logger     *slog.Logger
}

// NewClient creates a CWB client. cache may be nil to disable caching.
func NewClient(timeout time.Duration, cache *fetchcache.Cache, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		cache:      cache,
		logger:     logger,
	}
}

// OahuAdvisories returns the active advisories that apply to Oahu.
func (c *Client) OahuAdvisories(ctx context.Context) ([]Advisory, error) {
	body, err := c.fetch(ctx, c.baseURL)
	if err != nil {
		return nil, err
	}

	var decoded []advisoryJSON
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode cwb response: %w", err)
	}

	var advisories []Advisory
	for _, item := range decoded {
		a := Advisory{
			Beach:      firstNonEmpty(item.BeachName, item.Location),
			Island:     item.Island,
			Type:       firstNonEmpty(item.AdvisoryType, item.Type),
			Reason:     firstNonEmpty(item.Reason, item.Description),
			PostedDate: firstNonEmpty(item.PostedDate, item.StartDate),
			Status:     firstNonEmpty(item.Status, "active"),
		}
		if isOahu(a) {
			advisories = append(advisories, a)
		}
	}
	return advisories, nil
}

// BrownWater fetches the active Oahu advisories and maps them onto the
// sites they cover.
func (c *Client) BrownWater(ctx context.Context, sites []domain.Site) (map[string]bool, error) {
	advisories, err := c.OahuAdvisories(ctx)
	if err != nil {
		return nil, err
	}
	return BrownWaterSites(advisories, sites), nil
}

// BrownWaterSites maps active advisories onto the sites they cover, keyed
// by site ID.
func BrownWaterSites(advisories []Advisory, sites []domain.Site) map[string]bool {
	flagged := make(map[string]bool)
	for _, site := range sites {
		for _, a := range advisories {
			if MatchesSite(a, site.Name) {
				flagged[site.ID] = true
				break
			}
		}
	}
	return flagged
}

// MatchesSite reports whether an advisory covers the named site.
func MatchesSite(a Advisory, siteName string) bool {
	site := strings.ToLower(siteName)
	beach := strings.ToLower(a.Beach)
	reason := strings.ToLower(a.Reason)

	if len(site) >= minMatchLen && len(beach) >= minMatchLen {
		if site == beach || strings.Contains(beach, site) || strings.Contains(site, beach) {
			return true
		}
	} else if site == beach && site != "" {
		return true
	}

	return len(site) >= minMatchLen && strings.Contains(reason, site)
}

func isOahu(a Advisory) bool {
	if strings.EqualFold(a.Island, "oahu") {
		return true
	}
	beach := strings.ToLower(a.Beach)
	reason := strings.ToLower(a.Reason)
	for _, loc := range oahuLocations {
		if strings.Contains(beach, loc) || strings.Contains(reason, loc) {
			return true
		}
	}
	return false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	if body, ok := c.cache.Get(url); ok {
		return body, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build cwb request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cwb API error: status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read cwb response: %w", err)
	}
	c.cache.Put(url, body, cacheTTL)
	return body, nil
}

// DOH API response types.

type advisoryJSON struct {
	BeachName    string `json:"beach_name"`
	Location     string `json:"location"`
	Island       string `json:"island"`
	AdvisoryType string `json:"advisory_type"`
	Type         string `json:"type"`
	Reason       string `json:"reason"`
	Description  string `json:"description"`
	PostedDate   string `json:"posted_date"`
	StartDate    string `json:"start_date"`
	Status       string `json:"status"`
}
