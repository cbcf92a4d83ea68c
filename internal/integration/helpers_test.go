//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/dive-conditions/internal/catalog"
	"github.com/couchcryptid/dive-conditions/internal/domain"
	"github.com/couchcryptid/dive-conditions/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

// startKafka runs a single-broker Kafka container and returns its bootstrap
// address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve bootstrap address")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve controller")

	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}), "create topic %s", topic)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// loadFixtureCatalog loads the six-site roster shared with the recorded
// conditions fixtures.
func loadFixtureCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load(filepath.Join("..", "..", "data", "mock", "sites_fixture.yaml"))
	require.NoError(t, err, "load fixture catalog")
	return cat
}

// Function adapters for the single-method source interfaces.

type buoyFunc func(context.Context, string) (domain.BuoyObservation, error)

func (f buoyFunc) Latest(ctx context.Context, stationID string) (domain.BuoyObservation, error) {
	return f(ctx, stationID)
}

type waveModelFunc func(context.Context, string, float64, float64, time.Time) (domain.ModelWave, error)

func (f waveModelFunc) Current(ctx context.Context, siteID string, lat, lon float64, at time.Time) (domain.ModelWave, error) {
	return f(ctx, siteID, lat, lon, at)
}

type windFunc func(context.Context, string, float64, float64) (domain.WindForecast, error)

func (f windFunc) Wind(ctx context.Context, siteID string, lat, lon float64) (domain.WindForecast, error) {
	return f(ctx, siteID, lat, lon)
}

type tideFunc func(context.Context, string, time.Time) (domain.TideObservation, error)

func (f tideFunc) Current(ctx context.Context, stationID string, at time.Time) (domain.TideObservation, error) {
	return f(ctx, stationID, at)
}

type hazardFunc func(context.Context) (map[domain.Coast]bool, []domain.MarineAlert, error)

func (f hazardFunc) HighSurf(ctx context.Context) (map[domain.Coast]bool, []domain.MarineAlert, error) {
	return f(ctx)
}

type advisoryFunc func(context.Context, []domain.Site) (map[string]bool, error)

func (f advisoryFunc) BrownWater(ctx context.Context, sites []domain.Site) (map[string]bool, error) {
	return f(ctx, sites)
}

type streamflowStub struct {
	discharges map[string]domain.DischargeReading
	rainfall   map[string]domain.RainfallReading
}

func (s *streamflowStub) Discharge(_ context.Context, gageID string) (domain.DischargeReading, error) {
	d, ok := s.discharges[gageID]
	if !ok {
		return domain.DischargeReading{}, fmt.Errorf("no gage %s", gageID)
	}
	return d, nil
}

func (s *streamflowStub) Rainfall48h(_ context.Context, gageID string) (domain.RainfallReading, error) {
	r, ok := s.rainfall[gageID]
	if !ok {
		return domain.RainfallReading{}, fmt.Errorf("no rain series for gage %s", gageID)
	}
	return r, nil
}

// calmSources returns stub feeds with fresh, benign readings for every
// station in the fixture roster: small long-period surf, light trades, no
// advisories.
func calmSources(now time.Time) pipeline.Sources {
	buoys := map[string]domain.BuoyObservation{
		"51201": {StationID: "51201", HeightFt: domain.KnownReading(2.1), PeriodS: domain.KnownReading(12), DirectionDeg: domain.KnownReading(320), ObservedAt: now},
		"51212": {StationID: "51212", HeightFt: domain.KnownReading(1.4), PeriodS: domain.KnownReading(14), DirectionDeg: domain.KnownReading(200), ObservedAt: now},
		"51202": {StationID: "51202", HeightFt: domain.KnownReading(1.8), PeriodS: domain.KnownReading(9), DirectionDeg: domain.KnownReading(70), ObservedAt: now},
	}
	nextHigh := &domain.TideEvent{Time: now.Add(3 * time.Hour), Type: domain.TideEventHigh, HeightFt: 1.9}
	nextLow := &domain.TideEvent{Time: now.Add(9 * time.Hour), Type: domain.TideEventLow, HeightFt: 0.3}

	return pipeline.Sources{
		Buoys: buoyFunc(func(_ context.Context, stationID string) (domain.BuoyObservation, error) {
			obs, ok := buoys[stationID]
			if !ok {
				return domain.BuoyObservation{}, fmt.Errorf("unknown station %s", stationID)
			}
			return obs, nil
		}),
		WaveModel: waveModelFunc(func(_ context.Context, siteID string, _, _ float64, _ time.Time) (domain.ModelWave, error) {
			return domain.ModelWave{}, fmt.Errorf("unexpected model sample for %s", siteID)
		}),
		Wind: windFunc(func(_ context.Context, siteID string, _, _ float64) (domain.WindForecast, error) {
			return domain.WindForecast{SiteID: siteID, SpeedKt: domain.KnownReading(8), DirectionDeg: domain.KnownReading(60), ForecastAt: now}, nil
		}),
		Tides: tideFunc(func(_ context.Context, stationID string, _ time.Time) (domain.TideObservation, error) {
			return domain.TideObservation{StationID: stationID, State: domain.TideStateRising, NextHigh: nextHigh, NextLow: nextLow, PredictedAt: now}, nil
		}),
		Streamflow: &streamflowStub{
			discharges: map[string]domain.DischargeReading{"16275000": {StationID: "16275000", CFS: domain.KnownReading(4.2), ObservedAt: now}},
			rainfall:   map[string]domain.RainfallReading{"16275000": {StationID: "16275000", TotalIn: domain.KnownReading(0.1), WindowHours: 48, ObservedAt: now}},
		},
		Hazards: hazardFunc(func(_ context.Context) (map[domain.Coast]bool, []domain.MarineAlert, error) {
			return nil, nil, nil
		}),
		Advisories: advisoryFunc(func(_ context.Context, _ []domain.Site) (map[string]bool, error) {
			return nil, nil
		}),
	}
}
