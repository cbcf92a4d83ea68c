package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/dive-conditions/internal/catalog"
	"github.com/couchcryptid/dive-conditions/internal/domain"
	"github.com/couchcryptid/dive-conditions/internal/observability"
)

// Source labels shared by metrics and source statuses.
const (
	sourceNDBC    = "ndbc"
	sourcePacIOOS = "pacioos"
	sourceNWS     = "nws"
	sourceCOOPS   = "coops"
	sourceUSGS    = "usgs"
	sourceCWB     = "cwb"

	sourceCount = 6
)

// BuoySource fetches the latest observation for one NDBC station.
type BuoySource interface {
	Latest(ctx context.Context, stationID string) (domain.BuoyObservation, error)
}

// WaveModelSource samples the nearshore wave model at a site's coordinates.
type WaveModelSource interface {
	Current(ctx context.Context, siteID string, lat, lon float64, at time.Time) (domain.ModelWave, error)
}

// WindSource fetches the current wind forecast for a site.
type WindSource interface {
	Wind(ctx context.Context, siteID string, lat, lon float64) (domain.WindForecast, error)
}

// TideSource derives the tide state at a CO-OPS station.
type TideSource interface {
	Current(ctx context.Context, stationID string, at time.Time) (domain.TideObservation, error)
}

// StreamflowSource fetches discharge and trailing rainfall at a USGS gage.
type StreamflowSource interface {
	Discharge(ctx context.Context, gageID string) (domain.DischargeReading, error)
	Rainfall48h(ctx context.Context, gageID string) (domain.RainfallReading, error)
}

// HazardSource fetches active marine alerts and the coasts under a high
// surf warning.
type HazardSource interface {
	HighSurf(ctx context.Context) (map[domain.Coast]bool, []domain.MarineAlert, error)
}

// AdvisorySource maps active brown water advisories onto catalog sites.
type AdvisorySource interface {
	BrownWater(ctx context.Context, sites []domain.Site) (map[string]bool, error)
}

// Sources bundles the upstream clients a Fetcher draws from.
type Sources struct {
	Buoys      BuoySource
	WaveModel  WaveModelSource
	Wind       WindSource
	Tides      TideSource
	Streamflow StreamflowSource
	Hazards    HazardSource
	Advisories AdvisorySource
}

// Fetcher gathers one RawSources bundle per refresh. Source kinds fetch
// concurrently, each writing only its own slot of the bundle. A failing
// source degrades to missing data and a not-OK status; it never aborts
// the bundle.
type Fetcher struct {
	src     Sources
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewFetcher wires the upstream clients into a fetcher.
func NewFetcher(src Sources, logger *slog.Logger, metrics *observability.Metrics) *Fetcher {
	return &Fetcher{src: src, logger: logger, metrics: metrics}
}

// FetchAll gathers every source for the catalog's stations and sites.
// Statuses come back in a fixed source order regardless of which fetches
// ran concurrently.
func (f *Fetcher) FetchAll(ctx context.Context, cat *catalog.Catalog, at time.Time) (domain.RawSources, []domain.SourceStatus) {
	src := domain.RawSources{
		Buoys:      make(map[string]domain.BuoyObservation),
		ModelWaves: make(map[string]domain.ModelWave),
		Winds:      make(map[string]domain.WindForecast),
		Tides:      make(map[string]domain.TideObservation),
		Discharges: make(map[string]domain.DischargeReading),
		Rainfall:   make(map[string]domain.RainfallReading),
		FetchedAt:  at,
	}
	statuses := make([]domain.SourceStatus, sourceCount)

	var highSurf map[domain.Coast]bool
	var marine []domain.MarineAlert
	var brownWater map[string]bool

	var wg sync.WaitGroup
	wg.Add(5)

	go func() {
		defer wg.Done()
		f.timeSource(sourceNDBC, &statuses[0], func() error {
			return f.fetchBuoys(ctx, cat, src.Buoys)
		})
		// The wave model only backfills sites whose buoy came up empty,
		// so it runs after the buoy pass.
		f.timeSource(sourcePacIOOS, &statuses[1], func() error {
			return f.fetchModelWaves(ctx, cat, &src, at)
		})
	}()
	go func() {
		defer wg.Done()
		f.timeSource(sourceNWS, &statuses[2], func() error {
			coasts, alerts, hazardErr := f.src.Hazards.HighSurf(ctx)
			if hazardErr == nil {
				highSurf, marine = coasts, alerts
			}
			return errors.Join(f.fetchWinds(ctx, cat, src.Winds), hazardErr)
		})
	}()
	go func() {
		defer wg.Done()
		f.timeSource(sourceCOOPS, &statuses[3], func() error {
			return f.fetchTides(ctx, cat, src.Tides, at)
		})
	}()
	go func() {
		defer wg.Done()
		f.timeSource(sourceUSGS, &statuses[4], func() error {
			return f.fetchStreamflow(ctx, cat, src.Discharges, src.Rainfall)
		})
	}()
	go func() {
		defer wg.Done()
		f.timeSource(sourceCWB, &statuses[5], func() error {
			flagged, err := f.src.Advisories.BrownWater(ctx, cat.Sites)
			if err != nil {
				return err
			}
			brownWater = flagged
			return nil
		})
	}()

	wg.Wait()

	src.Advisories = domain.AdvisorySet{
		BrownWaterSites: brownWater,
		HighSurfCoasts:  highSurf,
		Marine:          marine,
		IssuedAt:        at,
	}
	return src, statuses
}

// timeSource runs one source fetch, recording duration, failure metrics,
// and the resulting status.
func (f *Fetcher) timeSource(source string, status *domain.SourceStatus, fn func() error) {
	start := time.Now()
	err := fn()
	f.metrics.FetchDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())

	*status = domain.SourceStatus{Source: source, OK: err == nil}
	if err != nil {
		f.metrics.FetchFailures.WithLabelValues(source).Inc()
		f.logger.Warn("source degraded", "source", source, "error", err)
		status.Detail = err.Error()
	}
}

func (f *Fetcher) fetchBuoys(ctx context.Context, cat *catalog.Catalog, out map[string]domain.BuoyObservation) error {
	ids := cat.BuoyIDs()
	var failed []string
	for _, id := range ids {
		obs, err := f.src.Buoys.Latest(ctx, id)
		if err != nil {
			f.logger.Warn("buoy fetch failed", "station", id, "error", err)
			failed = append(failed, id)
			continue
		}
		out[id] = obs
	}
	return partialFailure("buoys", failed, len(ids))
}

func (f *Fetcher) fetchModelWaves(ctx context.Context, cat *catalog.Catalog, src *domain.RawSources, at time.Time) error {
	var failed []string
	attempted := 0
	for _, site := range cat.Sites {
		if obs, ok := src.Buoys[site.NearestBuoy]; ok && obs.HeightFt.Known {
			continue
		}
		attempted++
		mw, err := f.src.WaveModel.Current(ctx, site.ID, site.Geo.Lat, site.Geo.Lon, at)
		if err != nil {
			f.logger.Warn("wave model fetch failed", "site", site.ID, "error", err)
			failed = append(failed, site.ID)
			continue
		}
		if mw.HeightFt.Known {
			src.ModelWaves[site.ID] = mw
		}
	}
	return partialFailure("model samples", failed, attempted)
}

func (f *Fetcher) fetchWinds(ctx context.Context, cat *catalog.Catalog, out map[string]domain.WindForecast) error {
	var failed []string
	for _, site := range cat.Sites {
		w, err := f.src.Wind.Wind(ctx, site.ID, site.Geo.Lat, site.Geo.Lon)
		if err != nil {
			f.logger.Warn("wind fetch failed", "site", site.ID, "error", err)
			failed = append(failed, site.ID)
			continue
		}
		out[site.ID] = w
	}
	return partialFailure("site winds", failed, len(cat.Sites))
}

func (f *Fetcher) fetchTides(ctx context.Context, cat *catalog.Catalog, out map[string]domain.TideObservation, at time.Time) error {
	ids := cat.TideStationIDs()
	var failed []string
	for _, id := range ids {
		obs, err := f.src.Tides.Current(ctx, id, at)
		if err != nil {
			f.logger.Warn("tide fetch failed", "station", id, "error", err)
			failed = append(failed, id)
			continue
		}
		out[id] = obs
	}
	return partialFailure("tide stations", failed, len(ids))
}

// fetchStreamflow gathers discharge and rainfall per gage. Not every gage
// carries a rain sensor, so a missing rainfall series is logged but only
// a discharge failure marks the gage failed.
func (f *Fetcher) fetchStreamflow(ctx context.Context, cat *catalog.Catalog, discharges map[string]domain.DischargeReading, rainfall map[string]domain.RainfallReading) error {
	ids := cat.StreamgageIDs()
	var failed []string
	for _, id := range ids {
		d, err := f.src.Streamflow.Discharge(ctx, id)
		if err != nil {
			f.logger.Warn("discharge fetch failed", "gage", id, "error", err)
			failed = append(failed, id)
		} else {
			discharges[id] = d
		}

		r, err := f.src.Streamflow.Rainfall48h(ctx, id)
		if err != nil {
			f.logger.Debug("rainfall unavailable", "gage", id, "error", err)
			continue
		}
		rainfall[id] = r
	}
	return partialFailure("gages", failed, len(ids))
}

func partialFailure(what string, failed []string, total int) error {
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d %s failed: %s", len(failed), total, what, strings.Join(failed, ", "))
}
