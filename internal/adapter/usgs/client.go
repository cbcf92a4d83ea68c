// Package usgs fetches stream data from USGS Water Services.
//
// Stream discharge is the visibility proxy for sites near stream mouths:
// high flow means runoff and murky water. Accumulated rainfall over the
// trailing 48 hours backs it up where a gage also reports precipitation.
package usgs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/dive-conditions/internal/adapter/fetchcache"
	"github.com/couchcryptid/dive-conditions/internal/domain"
)

const (
	defaultBaseURL = "https://waterservices.usgs.gov/nwis/iv/"
	cacheTTL       = 15 * time.Minute

	paramDischarge     = "00060"
	paramPrecipitation = "00045"

	dischargeWindowHours = 6
	rainfallWindowHours  = 48
)

// Client fetches instantaneous values from USGS gages.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cache      *fetchcache.Cache
	logger     *slog.Logger
}

// NewClient creates a USGS client. cache may be nil to disable caching.
func NewClient(timeout time.Duration, cache *fetchcache.Cache, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		cache:      cache,
		logger:     logger,
	}
}

// Discharge returns the most recent streamflow reading at a gage.
func (c *Client) Discharge(ctx context.Context, gageID string) (domain.DischargeReading, error) {
	values, err := c.instantaneous(ctx, gageID, paramDischarge, dischargeWindowHours)
	if err != nil {
		return domain.DischargeReading{}, err
	}
	if len(values) == 0 {
		return domain.DischargeReading{}, fmt.Errorf("usgs gage %s: no discharge values", gageID)
	}

	latest := values[len(values)-1]
	return domain.DischargeReading{
		StationID:  gageID,
		CFS:        domain.KnownReading(latest.value),
		ObservedAt: latest.at,
	}, nil
}

// Rainfall48h returns accumulated precipitation at a gage over the trailing
// 48 hours. Gages report incremental totals per interval, so the window sum
// is the accumulation.
func (c *Client) Rainfall48h(ctx context.Context, gageID string) (domain.RainfallReading, error) {
	values, err := c.instantaneous(ctx, gageID, paramPrecipitation, rainfallWindowHours)
	if err != nil {
		return domain.RainfallReading{}, err
	}
	if len(values) == 0 {
		return domain.RainfallReading{}, fmt.Errorf("usgs gage %s: no precipitation values", gageID)
	}

	var total float64
	for _, v := range values {
		total += v.value
	}
	return domain.RainfallReading{
		StationID:   gageID,
		TotalIn:     domain.KnownReading(total),
		WindowHours: rainfallWindowHours,
		ObservedAt:  values[len(values)-1].at,
	}, nil
}

type instantValue struct {
	at    time.Time
	value float64
}

// instantaneous fetches one parameter's values over a trailing window,
// oldest first. Sentinel and negative values are dropped; USGS reports
// -999999 for ice-affected or missing readings.
func (c *Client) instantaneous(ctx context.Context, gageID, parameter string, windowHours int) ([]instantValue, error) {
	params := url.Values{}
	params.Set("sites", gageID)
	params.Set("parameterCd", parameter)
	params.Set("period", fmt.Sprintf("PT%dH", windowHours))
	params.Set("format", "json")
	params.Set("siteStatus", "active")

	body, err := c.fetch(ctx, fmt.Sprintf("%s?%s", c.baseURL, params.Encode()))
	if err != nil {
		return nil, err
	}

	var decoded waterResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode usgs response: %w", err)
	}

	var values []instantValue
	for _, series := range decoded.Value.TimeSeries {
		for _, block := range series.Values {
			for _, v := range block.Value {
				parsed, err := strconv.ParseFloat(v.Value, 64)
				if err != nil || parsed < 0 {
					continue
				}
				at, err := time.Parse(time.RFC3339, v.DateTime)
				if err != nil {
					continue
				}
				values = append(values, instantValue{at: at, value: parsed})
			}
		}
	}
	return values, nil
}

func (c *Client) fetch(ctx context.Context, fullURL string) ([]byte, error) {
	if body, ok := c.cache.Get(fullURL); ok {
		return body, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build usgs request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", fullURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("usgs API error: status %d for %s", resp.StatusCode, fullURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read usgs response: %w", err)
	}
	c.cache.Put(fullURL, body, cacheTTL)
	return body, nil
}

// USGS Water Services response types.

type waterResponse struct {
	Value waterValue `json:"value"`
}

type waterValue struct {
	TimeSeries []timeSeries `json:"timeSeries"`
}

type timeSeries struct {
	Values []valueBlock `json:"values"`
}

type valueBlock struct {
	Value []seriesValue `json:"value"`
}

type seriesValue struct {
	Value    string `json:"value"`
	DateTime string `json:"dateTime"`
}
