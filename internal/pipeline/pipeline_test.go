package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/dive-conditions/internal/catalog"
	"github.com/couchcryptid/dive-conditions/internal/config"
	"github.com/couchcryptid/dive-conditions/internal/domain"
	"github.com/couchcryptid/dive-conditions/internal/observability"
	"github.com/couchcryptid/dive-conditions/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type stubBuoys struct {
	obs map[string]domain.BuoyObservation
	err error
}

func (s *stubBuoys) Latest(_ context.Context, stationID string) (domain.BuoyObservation, error) {
	if s.err != nil {
		return domain.BuoyObservation{}, s.err
	}
	obs, ok := s.obs[stationID]
	if !ok {
		return domain.BuoyObservation{}, errors.New("station offline")
	}
	return obs, nil
}

type stubWaveModel struct {
	waves map[string]domain.ModelWave
	calls atomic.Int64
	err   error
}

func (s *stubWaveModel) Current(_ context.Context, siteID string, _, _ float64, _ time.Time) (domain.ModelWave, error) {
	s.calls.Add(1)
	if s.err != nil {
		return domain.ModelWave{}, s.err
	}
	mw, ok := s.waves[siteID]
	if !ok {
		return domain.ModelWave{}, errors.New("no model cell")
	}
	return mw, nil
}

type stubWind struct {
	winds map[string]domain.WindForecast
	err   error
}

func (s *stubWind) Wind(_ context.Context, siteID string, _, _ float64) (domain.WindForecast, error) {
	if s.err != nil {
		return domain.WindForecast{}, s.err
	}
	return s.winds[siteID], nil
}

type stubTides struct {
	obs map[string]domain.TideObservation
	err error
}

func (s *stubTides) Current(_ context.Context, stationID string, _ time.Time) (domain.TideObservation, error) {
	if s.err != nil {
		return domain.TideObservation{}, s.err
	}
	return s.obs[stationID], nil
}

type stubStreamflow struct {
	discharges  map[string]domain.DischargeReading
	rainfall    map[string]domain.RainfallReading
	rainfallErr error
	err         error
}

func (s *stubStreamflow) Discharge(_ context.Context, gageID string) (domain.DischargeReading, error) {
	if s.err != nil {
		return domain.DischargeReading{}, s.err
	}
	return s.discharges[gageID], nil
}

func (s *stubStreamflow) Rainfall48h(_ context.Context, gageID string) (domain.RainfallReading, error) {
	if s.rainfallErr != nil {
		return domain.RainfallReading{}, s.rainfallErr
	}
	r, ok := s.rainfall[gageID]
	if !ok {
		return domain.RainfallReading{}, errors.New("no precipitation values")
	}
	return r, nil
}

type stubHazards struct {
	coasts map[domain.Coast]bool
	alerts []domain.MarineAlert
	err    error
}

func (s *stubHazards) HighSurf(_ context.Context) (map[domain.Coast]bool, []domain.MarineAlert, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.coasts, s.alerts, nil
}

type stubAdvisories struct {
	flagged map[string]bool
	err     error
}

func (s *stubAdvisories) BrownWater(_ context.Context, _ []domain.Site) (map[string]bool, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.flagged, nil
}

type stubPublisher struct {
	published []domain.DailyReport
	attempts  atomic.Int64
	err       error
}

func (p *stubPublisher) PublishReport(_ context.Context, report domain.DailyReport) error {
	p.attempts.Add(1)
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, report)
	return nil
}

func newTestMetrics() *observability.Metrics {
	// Unregistered collectors, so parallel tests never collide.
	return observability.NewMetricsForTesting()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- tests ---

func TestFetcher_FetchAll_AllSourcesHealthy(t *testing.T) {
	cat := testCatalog()
	model := &stubWaveModel{}
	src := healthySources(time.Now())
	src.WaveModel = model

	f := pipeline.NewFetcher(src, discardLogger(), newTestMetrics())

	at := time.Now()
	raw, statuses := f.FetchAll(context.Background(), cat, at)

	require.Len(t, statuses, 6)
	order := make([]string, 0, len(statuses))
	for _, st := range statuses {
		assert.True(t, st.OK, "source %s degraded: %s", st.Source, st.Detail)
		order = append(order, st.Source)
	}
	assert.Equal(t, []string{"ndbc", "pacioos", "nws", "coops", "usgs", "cwb"}, order)

	assert.Len(t, raw.Buoys, 2)
	assert.Len(t, raw.Winds, 2)
	assert.Len(t, raw.Tides, 1)
	assert.Len(t, raw.Discharges, 1)
	assert.Len(t, raw.Rainfall, 1)
	assert.True(t, raw.FetchedAt.Equal(at))

	// Both sites had a live buoy, so the model was never sampled.
	assert.Empty(t, raw.ModelWaves)
	assert.Zero(t, model.calls.Load())
}

func TestFetcher_FetchAll_BuoyOutageFallsBackToModel(t *testing.T) {
	cat := testCatalog()
	now := time.Now()
	model := &stubWaveModel{waves: map[string]domain.ModelWave{
		"three_tables": {SiteID: "three_tables", HeightFt: domain.KnownReading(2.5), PeriodS: domain.KnownReading(11), SampledAt: now},
		"kahe_point":   {SiteID: "kahe_point", HeightFt: domain.KnownReading(1.8), PeriodS: domain.KnownReading(13), SampledAt: now},
	}}
	src := healthySources(now)
	src.Buoys = &stubBuoys{err: errors.New("ndbc: 503")}
	src.WaveModel = model

	f := pipeline.NewFetcher(src, discardLogger(), newTestMetrics())

	raw, statuses := f.FetchAll(context.Background(), cat, now)

	assert.False(t, statuses[0].OK)
	assert.Contains(t, statuses[0].Detail, "2 of 2 buoys failed")
	assert.True(t, statuses[1].OK)

	assert.Empty(t, raw.Buoys)
	assert.Len(t, raw.ModelWaves, 2)
	assert.Equal(t, int64(2), model.calls.Load())
}

func TestFetcher_FetchAll_ModelSamplesOnlyUncoveredSites(t *testing.T) {
	cat := testCatalog()
	now := time.Now()
	model := &stubWaveModel{waves: map[string]domain.ModelWave{
		"three_tables": {SiteID: "three_tables", HeightFt: domain.KnownReading(2.5), PeriodS: domain.KnownReading(11), SampledAt: now},
	}}
	src := healthySources(now)
	// 51201 is down; kahe_point's buoy 51212 still reports.
	src.Buoys = &stubBuoys{obs: map[string]domain.BuoyObservation{
		"51212": {StationID: "51212", HeightFt: domain.KnownReading(1.4), PeriodS: domain.KnownReading(14), ObservedAt: now},
	}}
	src.WaveModel = model

	f := pipeline.NewFetcher(src, discardLogger(), newTestMetrics())

	raw, statuses := f.FetchAll(context.Background(), cat, now)

	assert.False(t, statuses[0].OK)
	assert.Contains(t, statuses[0].Detail, "51201")
	assert.True(t, statuses[1].OK)

	assert.Len(t, raw.Buoys, 1)
	assert.Equal(t, int64(1), model.calls.Load())
	assert.Contains(t, raw.ModelWaves, "three_tables")
	assert.NotContains(t, raw.ModelWaves, "kahe_point")
}

func TestFetcher_FetchAll_HazardOutageDegradesNWS(t *testing.T) {
	cat := testCatalog()
	now := time.Now()
	src := healthySources(now)
	src.Hazards = &stubHazards{err: errors.New("api.weather.gov: 502")}

	f := pipeline.NewFetcher(src, discardLogger(), newTestMetrics())

	raw, statuses := f.FetchAll(context.Background(), cat, now)

	assert.False(t, statuses[2].OK)
	assert.Contains(t, statuses[2].Detail, "502")

	// Winds share the NWS slot but still land even when hazards fail.
	assert.Len(t, raw.Winds, 2)
	assert.Empty(t, raw.Advisories.HighSurfCoasts)
	assert.Empty(t, raw.Advisories.Marine)
}

func TestFetcher_FetchAll_RainfallErrorDoesNotFailGage(t *testing.T) {
	cat := testCatalog()
	now := time.Now()
	src := healthySources(now)
	src.Streamflow = &stubStreamflow{
		discharges:  map[string]domain.DischargeReading{"16275000": {StationID: "16275000", CFS: domain.KnownReading(4.2), ObservedAt: now}},
		rainfallErr: errors.New("no precipitation values"),
	}

	f := pipeline.NewFetcher(src, discardLogger(), newTestMetrics())

	raw, statuses := f.FetchAll(context.Background(), cat, now)

	assert.True(t, statuses[4].OK)
	assert.Len(t, raw.Discharges, 1)
	assert.Empty(t, raw.Rainfall)
}

func TestFetcher_FetchAll_AdvisoriesAttach(t *testing.T) {
	cat := testCatalog()
	now := time.Now()
	src := healthySources(now)
	src.Hazards = &stubHazards{
		coasts: map[domain.Coast]bool{domain.CoastNorthShore: true},
		alerts: []domain.MarineAlert{{Event: "High Surf Warning", Severity: "Severe"}},
	}
	src.Advisories = &stubAdvisories{flagged: map[string]bool{"three_tables": true}}

	f := pipeline.NewFetcher(src, discardLogger(), newTestMetrics())

	at := time.Now()
	raw, statuses := f.FetchAll(context.Background(), cat, at)

	for _, st := range statuses {
		assert.True(t, st.OK, "source %s degraded: %s", st.Source, st.Detail)
	}
	assert.True(t, raw.Advisories.HighSurfCoasts[domain.CoastNorthShore])
	assert.True(t, raw.Advisories.BrownWaterSites["three_tables"])
	require.Len(t, raw.Advisories.Marine, 1)
	assert.Equal(t, "High Surf Warning", raw.Advisories.Marine[0].Event)
	assert.True(t, raw.Advisories.IssuedAt.Equal(at))
}

func TestRanker_GenerateReport(t *testing.T) {
	r := newTestRanker(t, healthySources(time.Now()), nil)

	report, err := r.GenerateReport(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.False(t, report.GeneratedAt.IsZero())
	assert.Equal(t, 2, report.TotalCount)
	assert.Equal(t, 2, report.DiveableCount)
	require.Len(t, report.Scores, 2)
	for _, s := range report.Scores {
		assert.Equal(t, domain.StatusOK, s.Status)
		assert.True(t, s.Diveable)
	}
	require.Len(t, report.Sources, 6)
	assert.Equal(t, "nws", report.Sources[2].Source)

	latest, ok := r.LatestReport()
	require.True(t, ok)
	assert.Equal(t, report.ID, latest.ID)
	assert.NoError(t, r.CheckReadiness(context.Background()))
}

func TestRanker_GenerateReport_HighSurfGatesCoast(t *testing.T) {
	src := healthySources(time.Now())
	src.Hazards = &stubHazards{
		coasts: map[domain.Coast]bool{domain.CoastNorthShore: true},
		alerts: []domain.MarineAlert{{Event: "High Surf Warning", Severity: "Severe"}},
	}
	r := newTestRanker(t, src, nil)

	report, err := r.GenerateReport(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.DiveableCount)
	require.Len(t, report.Alerts, 1)
	assert.Equal(t, "High Surf Warning", report.Alerts[0].Event)

	for _, s := range report.Scores {
		if s.Site.Coast != domain.CoastNorthShore {
			continue
		}
		assert.False(t, s.Diveable)
		assert.Equal(t, domain.GradeF, s.Grade)
		assert.Equal(t, domain.UnsafeHighSurf, s.UnsafeReason)
	}
}

func TestRanker_NotReadyBeforeFirstReport(t *testing.T) {
	r := newTestRanker(t, healthySources(time.Now()), nil)

	err := r.CheckReadiness(context.Background())
	assert.EqualError(t, err, "no report generated yet")

	_, ok := r.LatestReport()
	assert.False(t, ok)
}

func TestRanker_Run_ContextCancellation(t *testing.T) {
	r := newTestRanker(t, healthySources(time.Now()), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	err := r.Run(ctx)
	require.NoError(t, err)

	_, ok := r.LatestReport()
	assert.False(t, ok)
}

func TestRanker_Run_GeneratesAndPublishes(t *testing.T) {
	pub := &stubPublisher{}
	r := newTestRanker(t, healthySources(time.Now()), pub)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	err := r.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), pub.attempts.Load())
	require.Len(t, pub.published, 1)

	latest, ok := r.LatestReport()
	require.True(t, ok)
	assert.Equal(t, pub.published[0].ID, latest.ID)
	assert.NoError(t, r.CheckReadiness(ctx))
}

func TestRanker_Run_NilPublisherKeepsReportsLocal(t *testing.T) {
	r := newTestRanker(t, healthySources(time.Now()), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	err := r.Run(ctx)
	require.NoError(t, err)

	_, ok := r.LatestReport()
	assert.True(t, ok)
}

func TestRanker_Run_RetriesAfterPublishFailure(t *testing.T) {
	pub := &stubPublisher{err: errors.New("broker down")}
	r := newTestRanker(t, healthySources(time.Now()), pub)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := r.Run(ctx)
	require.NoError(t, err)

	// First attempt immediately, retries after 200ms and 600ms of backoff.
	assert.GreaterOrEqual(t, pub.attempts.Load(), int64(2))
	assert.Empty(t, pub.published)

	// The report is stored and readiness flips before publishing, so a
	// broker outage never blanks the HTTP surface.
	_, ok := r.LatestReport()
	assert.True(t, ok)
	assert.NoError(t, r.CheckReadiness(ctx))
}

// --- helpers ---

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Sites: []domain.Site{
			{
				ID:                  "three_tables",
				Name:                "Three Tables",
				Coast:               domain.CoastNorthShore,
				Geo:                 domain.Geo{Lat: 21.642, Lon: -158.065},
				Exposure:            domain.SwellExposure{Primary: "NW", Secondary: "N"},
				SafeWaveThresholdFt: 4,
				OptimalTide:         domain.TideAny,
				NearestBuoy:         "51201",
				NearestTideStation:  "1612340",
				NearestStreamgage:   "16275000",
			},
			{
				ID:                  "kahe_point",
				Name:                "Kahe Point",
				Coast:               domain.CoastWestSide,
				Geo:                 domain.Geo{Lat: 21.355, Lon: -158.130},
				Exposure:            domain.SwellExposure{Primary: "W", Secondary: "S"},
				SafeWaveThresholdFt: 5,
				OptimalTide:         domain.TideAny,
				NearestBuoy:         "51212",
				NearestTideStation:  "1612340",
			},
		},
		Buoys: map[string]catalog.Station{
			"51201": {ID: "51201", Name: "Waimea Bay"},
			"51212": {ID: "51212", Name: "Barbers Point"},
		},
		TideStations: map[string]catalog.Station{
			"1612340": {ID: "1612340", Name: "Honolulu"},
		},
		Streamgages: map[string]catalog.Station{
			"16275000": {ID: "16275000", Name: "Waimea River"},
		},
	}
}

// healthySources returns stubs where every feed answers with fresh,
// benign readings: small long-period surf, light wind, no advisories.
func healthySources(now time.Time) pipeline.Sources {
	nextHigh := &domain.TideEvent{Time: now.Add(3 * time.Hour), Type: domain.TideEventHigh, HeightFt: 1.9}
	nextLow := &domain.TideEvent{Time: now.Add(9 * time.Hour), Type: domain.TideEventLow, HeightFt: 0.3}
	return pipeline.Sources{
		Buoys: &stubBuoys{obs: map[string]domain.BuoyObservation{
			"51201": {StationID: "51201", HeightFt: domain.KnownReading(2.1), PeriodS: domain.KnownReading(12), DirectionDeg: domain.KnownReading(320), ObservedAt: now.Add(-10 * time.Minute)},
			"51212": {StationID: "51212", HeightFt: domain.KnownReading(1.4), PeriodS: domain.KnownReading(14), DirectionDeg: domain.KnownReading(280), ObservedAt: now.Add(-5 * time.Minute)},
		}},
		WaveModel: &stubWaveModel{},
		Wind: &stubWind{winds: map[string]domain.WindForecast{
			"three_tables": {SiteID: "three_tables", SpeedKt: domain.KnownReading(8), DirectionDeg: domain.KnownReading(60), ForecastAt: now},
			"kahe_point":   {SiteID: "kahe_point", SpeedKt: domain.KnownReading(6), DirectionDeg: domain.KnownReading(70), ForecastAt: now},
		}},
		Tides: &stubTides{obs: map[string]domain.TideObservation{
			"1612340": {StationID: "1612340", State: domain.TideStateRising, NextHigh: nextHigh, NextLow: nextLow, PredictedAt: now},
		}},
		Streamflow: &stubStreamflow{
			discharges: map[string]domain.DischargeReading{"16275000": {StationID: "16275000", CFS: domain.KnownReading(4.2), ObservedAt: now}},
			rainfall:   map[string]domain.RainfallReading{"16275000": {StationID: "16275000", TotalIn: domain.KnownReading(0.1), WindowHours: 48, ObservedAt: now}},
		},
		Hazards:    &stubHazards{},
		Advisories: &stubAdvisories{},
	}
}

func newTestRanker(t *testing.T, src pipeline.Sources, pub pipeline.ReportPublisher) *pipeline.Ranker {
	t.Helper()
	metrics := newTestMetrics()
	cfg := &config.Config{
		Weights:         domain.DefaultScoringConfig(),
		Timezone:        time.UTC,
		RefreshInterval: time.Hour,
	}
	f := pipeline.NewFetcher(src, discardLogger(), metrics)
	return pipeline.New(f, testCatalog(), pub, cfg, discardLogger(), metrics)
}
