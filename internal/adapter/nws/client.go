// Package nws fetches wind forecasts and marine alerts from the National
// Weather Service API.
//
// The API requires a User-Agent header and resolves coordinates to a
// forecast gridpoint before any forecast can be requested. Gridpoint
// assignments never change for a fixed site list, so they are memoized
// in memory for the life of the client.
package nws

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/dive-conditions/internal/adapter/fetchcache"
	"github.com/couchcryptid/dive-conditions/internal/domain"
)

const (
	defaultBaseURL   = "https://api.weather.gov"
	defaultUserAgent = "dive-conditions/1.0 (github.com/couchcryptid/dive-conditions)"

	forecastCacheTTL = 30 * time.Minute
	alertsCacheTTL   = 5 * time.Minute

	mphToKnots = 0.868976
)

// marineKeywords mark an alert as relevant to in-water activity.
var marineKeywords = []string{
	"surf", "wave", "marine", "wind", "coastal", "beach",
	"rip current", "sea", "ocean", "small craft",
}

// otherIslands disqualify an alert that names a neighbor island without
// mentioning Oahu.
var otherIslands = []string{"maui", "kauai", "molokai", "lanai", "niihau", "kahoolawe"}

// Client fetches forecasts and alerts from api.weather.gov.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	cache      *fetchcache.Cache
	logger     *slog.Logger

	mu         sync.Mutex
	gridpoints map[string]gridpoint
}

type gridpoint struct {
	office string
	x, y   int
}

// NewClient creates an NWS client. cache may be nil to disable caching.
func NewClient(timeout time.Duration, cache *fetchcache.Cache, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
		cache:      cache,
		logger:     logger,
		gridpoints: make(map[string]gridpoint),
	}
}

// Wind returns the current-hour wind forecast for a site's coordinates.
func (c *Client) Wind(ctx context.Context, siteID string, lat, lon float64) (domain.WindForecast, error) {
	gp, err := c.gridpoint(ctx, lat, lon)
	if err != nil {
		return domain.WindForecast{}, err
	}

	url := fmt.Sprintf("%s/gridpoints/%s/%d,%d/forecast/hourly", c.baseURL, gp.office, gp.x, gp.y)
	body, err := c.fetch(ctx, url, forecastCacheTTL)
	if err != nil {
		return domain.WindForecast{}, err
	}

	var decoded forecastResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return domain.WindForecast{}, fmt.Errorf("decode nws forecast: %w", err)
	}
	periods := decoded.Properties.Periods
	if len(periods) == 0 {
		return domain.WindForecast{}, fmt.Errorf("nws forecast for %s: no hourly periods", siteID)
	}

	current := periods[0]
	forecastAt, err := time.Parse(time.RFC3339, current.StartTime)
	if err != nil {
		forecastAt = time.Time{}
	}

	return domain.WindForecast{
		SiteID:       siteID,
		SpeedKt:      parseWindSpeed(current.WindSpeed),
		DirectionDeg: parseWindDirection(current.WindDirection),
		ForecastAt:   forecastAt,
	}, nil
}

// Alerts returns the active alerts for Hawaii.
func (c *Client) Alerts(ctx context.Context) ([]Alert, error) {
	body, err := c.fetch(ctx, c.baseURL+"/alerts/active?area=HI", alertsCacheTTL)
	if err != nil {
		return nil, err
	}

	var decoded alertsResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode nws alerts: %w", err)
	}

	alerts := make([]Alert, 0, len(decoded.Features))
	for _, f := range decoded.Features {
		alerts = append(alerts, Alert{
			Event:    f.Properties.Event,
			Headline: f.Properties.Headline,
			Severity: f.Properties.Severity,
			Urgency:  f.Properties.Urgency,
			AreaDesc: f.Properties.AreaDesc,
			Onset:    parseAlertTime(f.Properties.Onset),
			Expires:  parseAlertTime(f.Properties.Expires),
		})
	}
	return alerts, nil
}

// MarineAlerts returns the subset of active alerts relevant to ocean
// conditions.
func (c *Client) MarineAlerts(ctx context.Context) ([]Alert, error) {
	alerts, err := c.Alerts(ctx)
	if err != nil {
		return nil, err
	}

	var marine []Alert
	for _, a := range alerts {
		if a.IsMarine() {
			marine = append(marine, a)
		}
	}
	return marine, nil
}

// HighSurf fetches the active marine alerts once and returns both the
// coasts under a high surf warning and the alerts mapped for report
// display.
func (c *Client) HighSurf(ctx context.Context) (map[domain.Coast]bool, []domain.MarineAlert, error) {
	alerts, err := c.MarineAlerts(ctx)
	if err != nil {
		return nil, nil, err
	}

	marine := make([]domain.MarineAlert, 0, len(alerts))
	for _, a := range alerts {
		marine = append(marine, domain.MarineAlert{
			Event:    a.Event,
			Headline: a.Headline,
			Areas:    splitAreas(a.AreaDesc),
			Severity: a.Severity,
			Expires:  a.Expires,
		})
	}
	return HighSurfCoasts(alerts), marine, nil
}

func splitAreas(areaDesc string) []string {
	if areaDesc == "" {
		return nil
	}
	parts := strings.Split(areaDesc, ";")
	areas := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			areas = append(areas, p)
		}
	}
	return areas
}

// IsMarine reports whether the alert concerns ocean or shoreline hazards.
func (a Alert) IsMarine() bool {
	event := strings.ToLower(a.Event)
	headline := strings.ToLower(a.Headline)
	for _, kw := range marineKeywords {
		if strings.Contains(event, kw) || strings.Contains(headline, kw) {
			return true
		}
	}
	return false
}

// HighSurfCoasts maps active high surf warnings to the Oahu coasts they
// cover. NWS phrases warning areas as facing shores ("North and West Facing
// Shores of Oahu"); a warning whose area cannot be parsed is applied to
// every coast.
func HighSurfCoasts(alerts []Alert) map[domain.Coast]bool {
	coasts := make(map[domain.Coast]bool)
	for _, a := range alerts {
		if !strings.Contains(strings.ToLower(a.Event), "high surf warning") {
			continue
		}
		area := strings.ToLower(a.AreaDesc)
		if !mentionsOahu(area) {
			continue
		}

		matched := false
		if strings.Contains(area, "facing") {
			if strings.Contains(area, "north") {
				coasts[domain.CoastNorthShore] = true
				matched = true
			}
			if strings.Contains(area, "west") {
				coasts[domain.CoastWestSide] = true
				matched = true
			}
			if strings.Contains(area, "south") {
				coasts[domain.CoastSouthShore] = true
				coasts[domain.CoastSoutheast] = true
				matched = true
			}
			if strings.Contains(area, "east") {
				coasts[domain.CoastWindward] = true
				matched = true
			}
		}
		if !matched {
			for _, coast := range domain.AllCoasts() {
				coasts[coast] = true
			}
		}
	}
	return coasts
}

// mentionsOahu reports whether an alert area applies to Oahu. Areas that
// name only neighbor islands are excluded; areas with no island reference
// are assumed statewide.
func mentionsOahu(area string) bool {
	if strings.Contains(area, "oahu") {
		return true
	}
	for _, island := range otherIslands {
		if strings.Contains(area, island) {
			return false
		}
	}
	return true
}

// gridpoint resolves coordinates to an NWS forecast grid cell, memoizing
// the result.
func (c *Client) gridpoint(ctx context.Context, lat, lon float64) (gridpoint, error) {
	key := fmt.Sprintf("%.4f,%.4f", lat, lon)

	c.mu.Lock()
	gp, ok := c.gridpoints[key]
	c.mu.Unlock()
	if ok {
		return gp, nil
	}

	body, err := c.fetch(ctx, fmt.Sprintf("%s/points/%s", c.baseURL, key), forecastCacheTTL)
	if err != nil {
		return gridpoint{}, err
	}

	var decoded pointResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return gridpoint{}, fmt.Errorf("decode nws point: %w", err)
	}
	if decoded.Properties.GridID == "" {
		return gridpoint{}, fmt.Errorf("nws point %s: no grid assignment", key)
	}

	gp = gridpoint{
		office: decoded.Properties.GridID,
		x:      decoded.Properties.GridX,
		y:      decoded.Properties.GridY,
	}
	c.mu.Lock()
	c.gridpoints[key] = gp
	c.mu.Unlock()
	return gp, nil
}

func (c *Client) fetch(ctx context.Context, url string, ttl time.Duration) ([]byte, error) {
	if body, ok := c.cache.Get(url); ok {
		return body, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build nws request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nws API error: status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read nws response: %w", err)
	}
	c.cache.Put(url, body, ttl)
	return body, nil
}

// parseWindSpeed converts the API's "12 mph" phrasing to knots. Gusty
// forecasts arrive as a range ("10 to 15 mph"); the leading value is the
// sustained speed.
func parseWindSpeed(s string) domain.Reading {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return domain.Reading{}
	}
	mph, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return domain.Reading{}
	}
	return domain.KnownReading(mph * mphToKnots)
}

func parseWindDirection(s string) domain.Reading {
	deg, ok := domain.DegreesFromCompass(s)
	if !ok {
		return domain.Reading{}
	}
	return domain.KnownReading(deg)
}

func parseAlertTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Alert is one active NWS alert.
type Alert struct {
	Event    string    `json:"event"`
	Headline string    `json:"headline"`
	Severity string    `json:"severity"`
	Urgency  string    `json:"urgency"`
	AreaDesc string    `json:"area_desc"`
	Onset    time.Time `json:"onset"`
	Expires  time.Time `json:"expires"`
}

// NWS API response types.

type pointResponse struct {
	Properties pointProperties `json:"properties"`
}

type pointProperties struct {
	GridID string `json:"gridId"`
	GridX  int    `json:"gridX"`
	GridY  int    `json:"gridY"`
}

type forecastResponse struct {
	Properties forecastProperties `json:"properties"`
}

type forecastProperties struct {
	Periods []forecastPeriod `json:"periods"`
}

type forecastPeriod struct {
	StartTime     string `json:"startTime"`
	Temperature   int    `json:"temperature"`
	WindSpeed     string `json:"windSpeed"`
	WindDirection string `json:"windDirection"`
	ShortForecast string `json:"shortForecast"`
}

type alertsResponse struct {
	Features []alertFeature `json:"features"`
}

type alertFeature struct {
	Properties alertProperties `json:"properties"`
}

type alertProperties struct {
	Event    string `json:"event"`
	Headline string `json:"headline"`
	Severity string `json:"severity"`
	Urgency  string `json:"urgency"`
	AreaDesc string `json:"areaDesc"`
	Onset    string `json:"onset"`
	Expires  string `json:"expires"`
}
