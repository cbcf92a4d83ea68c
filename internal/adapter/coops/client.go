// Package coops fetches tide predictions from the NOAA CO-OPS API.
//
// Predictions are requested as high/low extremes (interval=hilo) against the
// MLLW datum in station-local time. The tide state at a given instant is
// derived from the surrounding extremes: within a slack window of an extreme
// the state is high or low, otherwise the water is rising toward a high or
// falling toward a low.
package coops

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/couchcryptid/dive-conditions/internal/adapter/fetchcache"
	"github.com/couchcryptid/dive-conditions/internal/domain"
)

const (
	defaultBaseURL = "https://api.tidesandcurrents.noaa.gov/api/prod/datagetter"
	cacheTTL       = time.Hour

	// slackWindow is how close to a predicted extreme the tide still counts
	// as high or low rather than rising or falling.
	slackWindow = 45 * time.Minute

	timeLayout = "2006-01-02 15:04"
)

// Client fetches tide predictions for CO-OPS stations.
type Client struct {
	httpClient *http.Client
	baseURL    string
	loc        *time.Location
	cache      *fetchcache.Cache
	logger     *slog.Logger
}

// NewClient creates a CO-OPS client. Predicted times are interpreted in loc,
// which must match the time_zone the API returns (station local time).
func NewClient(timeout time.Duration, loc *time.Location, cache *fetchcache.Cache, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		loc:        loc,
		cache:      cache,
		logger:     logger,
	}
}

// Predictions returns the predicted tide extremes for a station from the
// start date through days later, sorted by time.
func (c *Client) Predictions(ctx context.Context, stationID string, start time.Time, days int) ([]domain.TideEvent, error) {
	params := url.Values{}
	params.Set("station", stationID)
	params.Set("begin_date", start.In(c.loc).Format("20060102"))
	params.Set("end_date", start.In(c.loc).AddDate(0, 0, days).Format("20060102"))
	params.Set("product", "predictions")
	params.Set("datum", "MLLW")
	params.Set("units", "english")
	params.Set("time_zone", "lst_ldt")
	params.Set("interval", "hilo")
	params.Set("format", "json")

	body, err := c.fetch(ctx, fmt.Sprintf("%s?%s", c.baseURL, params.Encode()))
	if err != nil {
		return nil, err
	}

	var decoded predictionsResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode co-ops response: %w", err)
	}
	if decoded.Error != nil {
		return nil, fmt.Errorf("co-ops API error for station %s: %s", stationID, decoded.Error.Message)
	}

	events := make([]domain.TideEvent, 0, len(decoded.Predictions))
	for _, p := range decoded.Predictions {
		event, ok := c.parsePrediction(p)
		if !ok {
			continue
		}
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Time.Before(events[j].Time) })
	return events, nil
}

// Current derives the tide state at a station for the given instant. The
// prediction window starts a day early so the previous extreme is always
// available.
func (c *Client) Current(ctx context.Context, stationID string, at time.Time) (domain.TideObservation, error) {
	events, err := c.Predictions(ctx, stationID, at.AddDate(0, 0, -1), 3)
	if err != nil {
		return domain.TideObservation{}, err
	}
	if len(events) == 0 {
		return domain.TideObservation{}, fmt.Errorf("co-ops station %s: no predicted extremes", stationID)
	}

	state, prev, next := deriveState(events, at)
	nextHigh, nextLow := upcomingExtremes(events, at)
	return domain.TideObservation{
		StationID:   stationID,
		State:       state,
		Next:        next,
		Previous:    prev,
		NextHigh:    nextHigh,
		NextLow:     nextLow,
		PredictedAt: at,
	}, nil
}

// upcomingExtremes returns the first predicted high and the first predicted
// low after the given instant.
func upcomingExtremes(events []domain.TideEvent, at time.Time) (*domain.TideEvent, *domain.TideEvent) {
	var nextHigh, nextLow *domain.TideEvent
	for i := range events {
		if !events[i].Time.After(at) {
			continue
		}
		if events[i].Type == domain.TideEventHigh && nextHigh == nil {
			nextHigh = &events[i]
		}
		if events[i].Type == domain.TideEventLow && nextLow == nil {
			nextLow = &events[i]
		}
		if nextHigh != nil && nextLow != nil {
			break
		}
	}
	return nextHigh, nextLow
}

func (c *Client) parsePrediction(p prediction) (domain.TideEvent, bool) {
	at, err := time.ParseInLocation(timeLayout, p.Time, c.loc)
	if err != nil {
		c.logger.Warn("skipping co-ops prediction with bad timestamp", "time", p.Time, "error", err)
		return domain.TideEvent{}, false
	}

	var eventType domain.TideEventType
	switch p.Type {
	case "H":
		eventType = domain.TideEventHigh
	case "L":
		eventType = domain.TideEventLow
	default:
		return domain.TideEvent{}, false
	}

	height, err := strconv.ParseFloat(p.WaterLevel, 64)
	if err != nil {
		height = 0
	}
	return domain.TideEvent{Time: at, Type: eventType, HeightFt: height}, true
}

// deriveState classifies the instant against the sorted extremes.
func deriveState(events []domain.TideEvent, at time.Time) (domain.TideState, *domain.TideEvent, *domain.TideEvent) {
	var prev, next *domain.TideEvent
	for i := range events {
		if events[i].Time.After(at) {
			next = &events[i]
			break
		}
		prev = &events[i]
	}

	switch {
	case next != nil && next.Time.Sub(at) <= slackWindow:
		return stateAtExtreme(next.Type), prev, next
	case prev != nil && at.Sub(prev.Time) <= slackWindow:
		return stateAtExtreme(prev.Type), prev, next
	case next != nil && next.Type == domain.TideEventHigh:
		return domain.TideStateRising, prev, next
	case next != nil:
		return domain.TideStateFalling, prev, next
	case prev != nil && prev.Type == domain.TideEventHigh:
		return domain.TideStateFalling, prev, next
	case prev != nil:
		return domain.TideStateRising, prev, next
	default:
		return domain.TideStateUnknown, nil, nil
	}
}

func stateAtExtreme(t domain.TideEventType) domain.TideState {
	if t == domain.TideEventHigh {
		return domain.TideStateHigh
	}
	return domain.TideStateLow
}

func (c *Client) fetch(ctx context.Context, fullURL string) ([]byte, error) {
	if body, ok := c.cache.Get(fullURL); ok {
		return body, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build co-ops request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", fullURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("co-ops API error: status %d for %s", resp.StatusCode, fullURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read co-ops response: %w", err)
	}
	c.cache.Put(fullURL, body, cacheTTL)
	return body, nil
}

// CO-OPS API response types.

type predictionsResponse struct {
	Predictions []prediction `json:"predictions"`
	Error       *apiError    `json:"error"`
}

type prediction struct {
	Time       string `json:"t"`
	WaterLevel string `json:"v"`
	Type       string `json:"type"`
}

type apiError struct {
	Message string `json:"message"`
}
