// Package ndbc fetches real-time wave observations from NDBC buoys.
//
// The realtime2 feed serves plain-text tables, newest row first, with two
// header lines and sentinel markers (MM, 999) for missing measurements.
// The spectral product (.spec) carries the swell breakdown; the standard
// meteorological product (.txt) is the fallback when spectral data is
// unavailable for a station.
package ndbc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/dive-conditions/internal/adapter/fetchcache"
	"github.com/couchcryptid/dive-conditions/internal/domain"
)

const (
	defaultBaseURL = "https://www.ndbc.noaa.gov/data/realtime2"
	cacheTTL       = 10 * time.Minute
	metersToFeet   = 3.28084
)

// Column positions within a realtime2 data row. The first five fields are
// the observation timestamp (YY MM DD hh mm).
const (
	specHeightCol    = 5
	specPeriodCol    = 7
	specDirectionCol = 14
	specMinFields    = 15

	stdHeightCol    = 8
	stdPeriodCol    = 9
	stdDirectionCol = 11
	stdMinFields    = 13
)

// Client fetches buoy observations from the NDBC realtime2 feed.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cache      *fetchcache.Cache
	logger     *slog.Logger
}

// NewClient creates an NDBC client. cache may be nil to disable caching.
func NewClient(timeout time.Duration, cache *fetchcache.Cache, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		cache:      cache,
		logger:     logger,
	}
}

// Latest returns the most recent wave observation for a station. It prefers
// the spectral product for the cleaner swell period and falls back to the
// standard meteorological file.
func (c *Client) Latest(ctx context.Context, stationID string) (domain.BuoyObservation, error) {
	obs, err := c.latestSpectral(ctx, stationID)
	if err == nil {
		return obs, nil
	}
	c.logger.Warn("ndbc spectral fetch failed, falling back to standard file",
		"station", stationID, "error", err)
	return c.latestStandard(ctx, stationID)
}

func (c *Client) latestSpectral(ctx context.Context, stationID string) (domain.BuoyObservation, error) {
	body, err := c.fetch(ctx, fmt.Sprintf("%s/%s.spec", c.baseURL, stationID))
	if err != nil {
		return domain.BuoyObservation{}, err
	}
	rows := parseRealtimeRows(body, specMinFields)
	if len(rows) == 0 {
		return domain.BuoyObservation{}, fmt.Errorf("ndbc station %s: no spectral observations", stationID)
	}
	latest := rows[0]
	return domain.BuoyObservation{
		StationID:    stationID,
		HeightFt:     toFeet(latest.reading(specHeightCol)),
		PeriodS:      latest.reading(specPeriodCol),
		DirectionDeg: latest.reading(specDirectionCol),
		ObservedAt:   latest.observedAt,
	}, nil
}

func (c *Client) latestStandard(ctx context.Context, stationID string) (domain.BuoyObservation, error) {
	body, err := c.fetch(ctx, fmt.Sprintf("%s/%s.txt", c.baseURL, stationID))
	if err != nil {
		return domain.BuoyObservation{}, err
	}
	rows := parseRealtimeRows(body, stdMinFields)
	if len(rows) == 0 {
		return domain.BuoyObservation{}, fmt.Errorf("ndbc station %s: no standard observations", stationID)
	}
	latest := rows[0]
	return domain.BuoyObservation{
		StationID:    stationID,
		HeightFt:     toFeet(latest.reading(stdHeightCol)),
		PeriodS:      latest.reading(stdPeriodCol),
		DirectionDeg: latest.reading(stdDirectionCol),
		ObservedAt:   latest.observedAt,
	}, nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	if body, ok := c.cache.Get(url); ok {
		return body, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build ndbc request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ndbc API error: status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read ndbc response: %w", err)
	}
	c.cache.Put(url, body, cacheTTL)
	return body, nil
}

// observationRow is one parsed realtime2 data line.
type observationRow struct {
	observedAt time.Time
	fields     []string
}

func (r observationRow) reading(col int) domain.Reading {
	if col >= len(r.fields) {
		return domain.Reading{}
	}
	return parseReading(r.fields[col])
}

// parseRealtimeRows splits a realtime2 file into data rows, skipping the
// two header lines and any row too short or with an unparseable timestamp.
func parseRealtimeRows(body []byte, minFields int) []observationRow {
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	if len(lines) < 3 {
		return nil
	}

	var rows []observationRow
	for _, line := range lines[2:] {
		fields := strings.Fields(line)
		if len(fields) < minFields {
			continue
		}
		observedAt, err := parseRowTime(fields)
		if err != nil {
			continue
		}
		rows = append(rows, observationRow{observedAt: observedAt, fields: fields})
	}
	return rows
}

func parseRowTime(fields []string) (time.Time, error) {
	parts := make([]int, 5)
	for i := range parts {
		n, err := strconv.Atoi(fields[i])
		if err != nil {
			return time.Time{}, err
		}
		parts[i] = n
	}
	year := parts[0]
	if year < 100 {
		year += 2000
	}
	return time.Date(year, time.Month(parts[1]), parts[2], parts[3], parts[4], 0, 0, time.UTC), nil
}

// parseReading converts one field, mapping NDBC missing-data sentinels to
// an unknown reading.
func parseReading(s string) domain.Reading {
	switch s {
	case "MM", "999", "99.0", "99.00", "9999":
		return domain.Reading{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return domain.Reading{}
	}
	return domain.KnownReading(v)
}

func toFeet(meters domain.Reading) domain.Reading {
	if !meters.Known {
		return meters
	}
	return domain.KnownReading(meters.Value * metersToFeet)
}
