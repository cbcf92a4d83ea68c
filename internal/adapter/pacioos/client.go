// Package pacioos fetches nearshore wave model data from the PacIOOS ERDDAP
// server.
//
// The SWAN Oahu model covers the island at ~500m resolution with hourly
// forecasts. It is the wave source for sites whose assigned buoy is offline.
// The ERDDAP endpoint is periodically unreachable for minutes at a time, so
// requests run behind a circuit breaker: after consecutive failures the
// client stops calling out and reports no data until a cooldown passes.
package pacioos

import (
	"bytes"
	"context"
	"encoding/csv"
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
	defaultBaseURL = "https://pae-paha.pacioos.hawaii.edu/erddap/griddap/swan_oahu"
	cacheTTL       = time.Hour
	metersToFeet   = 3.28084

	forecastWindowHours = 6

	breakerThreshold = 3
	breakerCooldown  = 5 * time.Minute
)

// SWAN Oahu model domain bounds, longitude in -180..180 form.
const (
	latMin = 21.2
	latMax = 21.75
	lonMin = -158.35
	lonMax = -157.6
)

// Client fetches SWAN model samples for site coordinates.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cache      *fetchcache.Cache
	logger     *slog.Logger
	breaker    breaker
}

// NewClient creates a PacIOOS client. cache may be nil to disable caching.
func NewClient(timeout time.Duration, cache *fetchcache.Cache, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		cache:      cache,
		logger:     logger,
	}
}

// Current returns the model wave sample nearest to at for a site's
// coordinates. Sites outside the model domain, an open circuit breaker, and
// an all-NaN response all yield a zero-value sample with no error; the
// aggregation layer treats that as an absent source.
func (c *Client) Current(ctx context.Context, siteID string, lat, lon float64, at time.Time) (domain.ModelWave, error) {
	if !inDomain(lat, lon) {
		return domain.ModelWave{}, nil
	}
	if !c.breaker.allow(time.Now()) {
		c.logger.Debug("pacioos circuit open, skipping fetch", "site", siteID)
		return domain.ModelWave{}, nil
	}

	body, err := c.fetch(ctx, c.gridURL(lat, lon, at))
	if err != nil {
		c.breaker.failure()
		return domain.ModelWave{}, err
	}
	c.breaker.success()

	sample, ok := parseFirstSample(body)
	if !ok {
		return domain.ModelWave{}, nil
	}

	return domain.ModelWave{
		SiteID:       siteID,
		HeightFt:     domain.KnownReading(sample.heightM * metersToFeet),
		PeriodS:      sample.periodS,
		DirectionDeg: sample.directionDeg,
		SampledAt:    sample.at,
	}, nil
}

// gridURL builds the griddap selector for the three wave variables at a
// single point over the forecast window.
func (c *Client) gridURL(lat, lon float64, at time.Time) string {
	start := at.UTC().Format("2006-01-02T15:04:05Z")
	end := at.UTC().Add(forecastWindowHours * time.Hour).Format("2006-01-02T15:04:05Z")

	point := fmt.Sprintf("[(%s):1:(%s)][(0.0):1:(0.0)][(%.4f):1:(%.4f)][(%.4f):1:(%.4f)]",
		start, end, lat, lat, lonTo360(lon), lonTo360(lon))
	return fmt.Sprintf("%s.csv?shgt%s,mper%s,mdir%s", c.baseURL, point, point, point)
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	if body, ok := c.cache.Get(url); ok {
		return body, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build pacioos request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pacioos API error: status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read pacioos response: %w", err)
	}
	c.cache.Put(url, body, cacheTTL)
	return body, nil
}

type modelSample struct {
	at           time.Time
	heightM      float64
	periodS      domain.Reading
	directionDeg domain.Reading
}

// parseFirstSample returns the first data row with a usable wave height.
// The CSV carries a column-name row and a units row before the data; rows
// where the model reports NaN are skipped.
func parseFirstSample(body []byte) (modelSample, bool) {
	reader := csv.NewReader(bytes.NewReader(body))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil || len(records) < 3 {
		return modelSample{}, false
	}

	for _, record := range records[2:] {
		if len(record) < 5 {
			continue
		}
		height := parseCSVFloat(record[4])
		if !height.Known {
			continue
		}
		at, err := time.Parse(time.RFC3339, strings.TrimSpace(record[0]))
		if err != nil {
			continue
		}

		sample := modelSample{at: at, heightM: height.Value}
		if len(record) > 5 {
			sample.periodS = parseCSVFloat(record[5])
		}
		if len(record) > 6 {
			sample.directionDeg = parseCSVFloat(record[6])
		}
		return sample, true
	}
	return modelSample{}, false
}

func parseCSVFloat(s string) domain.Reading {
	s = strings.TrimSpace(s)
	if s == "" || s == "NaN" {
		return domain.Reading{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return domain.Reading{}
	}
	return domain.KnownReading(v)
}

func inDomain(lat, lon float64) bool {
	return lat >= latMin && lat <= latMax && lon >= lonMin && lon <= lonMax
}

func lonTo360(lon float64) float64 {
	if lon < 0 {
		return 360 + lon
	}
	return lon
}

// breaker is a minimal circuit breaker: it opens after consecutive
// failures and allows a probe request once the cooldown has passed.
type breaker struct {
	mu       sync.Mutex
	failures int
	openedAt time.Time
}

func (b *breaker) allow(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failures < breakerThreshold {
		return true
	}
	return now.Sub(b.openedAt) >= breakerCooldown
}

func (b *breaker) failure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	if b.failures >= breakerThreshold {
		b.openedAt = time.Now()
	}
}

func (b *breaker) success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.openedAt = time.Time{}
}
