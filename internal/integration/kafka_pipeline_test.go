//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/couchcryptid/dive-conditions/internal/adapter/kafka"
	"github.com/couchcryptid/dive-conditions/internal/config"
	"github.com/couchcryptid/dive-conditions/internal/domain"
	"github.com/couchcryptid/dive-conditions/internal/observability"
	"github.com/couchcryptid/dive-conditions/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testReportTopic = "test-dive-reports"

var hawaii = time.FixedZone("HST", -10*60*60)

// publishedReport holds a deserialized message read from the report topic.
type publishedReport struct {
	Report  domain.DailyReport
	Key     string
	Headers map[string]string
}

// readReport reads a single message from the consumer and deserializes it.
func readReport(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedReport {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from report topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var report domain.DailyReport
	require.NoError(t, json.Unmarshal(msg.Value, &report), "unmarshal report message")

	return publishedReport{
		Report:  report,
		Key:     string(msg.Key),
		Headers: headers,
	}
}

func newReportConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testReportTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// TestKafkaPublisher verifies the adapter layer: kafka.Publisher serializes a
// report, keys it by local calendar date, and stamps the report headers.
func TestKafkaPublisher(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testReportTopic)

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaReportTopic: testReportTopic,
		Timezone:         hawaii,
	}

	pub := kafka.NewPublisher(cfg, discardLogger())
	t.Cleanup(func() { _ = pub.Close() })

	generatedAt := time.Date(2026, time.August, 15, 8, 0, 0, 0, hawaii)
	report := domain.DailyReport{
		ID:          "adapter-round-trip",
		GeneratedAt: generatedAt,
		Scores: []domain.SiteScore{
			{
				Site: domain.Site{
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
				Composite: 92.5,
				Grade:     domain.GradeA,
				Status:    domain.StatusOK,
				Diveable:  true,
				Conditions: domain.SiteConditions{
					SiteID:       "kahe_point",
					WaveHeightFt: domain.KnownReading(1.6),
					WavePeriodS:  domain.KnownReading(13),
					WaveSource:   domain.WaveSourceBuoy,
					TideState:    domain.TideStateRising,
					FetchedAt:    generatedAt,
				},
			},
		},
		DiveableCount: 1,
		TotalCount:    1,
	}

	require.NoError(t, pub.PublishReport(ctx, report))

	pr := readReport(ctx, t, newReportConsumer(t, broker))

	assert.Equal(t, "2026-08-15", pr.Key, "messages are keyed by local date")
	assert.Equal(t, "adapter-round-trip", pr.Headers["report_id"])
	headerTime, err := time.Parse(time.RFC3339, pr.Headers["generated_at"])
	require.NoError(t, err, "generated_at header should be valid RFC3339")
	assert.True(t, headerTime.Equal(generatedAt))

	assert.Equal(t, report.ID, pr.Report.ID)
	assert.True(t, pr.Report.GeneratedAt.Equal(generatedAt))
	require.Len(t, pr.Report.Scores, 1)
	got := pr.Report.Scores[0]
	assert.Equal(t, "kahe_point", got.Site.ID)
	assert.Equal(t, domain.GradeA, got.Grade)
	assert.Equal(t, 92.5, got.Composite)
	assert.Equal(t, domain.WaveSourceBuoy, got.Conditions.WaveSource)
	assert.True(t, got.Conditions.WaveHeightFt.Known)
	assert.Equal(t, 1.6, got.Conditions.WaveHeightFt.Value)
}

// TestRankerPublishesToKafka wires the full refresh loop (fetch, assemble,
// rank, publish) against real Kafka and verifies the report that lands on
// the topic.
func TestRankerPublishesToKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testReportTopic)

	cat := loadFixtureCatalog(t)

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaReportTopic: testReportTopic,
		Timezone:         hawaii,
		RefreshInterval:  time.Hour,
		Weights:          domain.DefaultScoringConfig(),
	}

	pub := kafka.NewPublisher(cfg, discardLogger())
	t.Cleanup(func() { _ = pub.Close() })

	metrics := observability.NewMetricsForTesting()
	fetcher := pipeline.NewFetcher(calmSources(time.Now()), discardLogger(), metrics)
	r := pipeline.New(fetcher, cat, pub, cfg, discardLogger(), metrics)
	// The roster spans seasonal windows, so keep the run date-independent.
	r.ScoreAllSeasons()

	rankerCtx, rankerCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(rankerCtx) }()

	pr := readReport(ctx, t, newReportConsumer(t, broker))

	rankerCancel()
	require.NoError(t, <-errCh)

	assert.NotEmpty(t, pr.Report.ID)
	assert.Equal(t, pr.Report.ID, pr.Headers["report_id"])
	assert.Equal(t, pr.Report.GeneratedAt.In(hawaii).Format("2006-01-02"), pr.Key)

	// Every catalog site is scored, and the calm stub feeds leave them all
	// diveable.
	require.Len(t, pr.Report.Scores, len(cat.Sites))
	assert.Equal(t, len(cat.Sites), pr.Report.TotalCount)
	assert.Equal(t, len(cat.Sites), pr.Report.DiveableCount)

	scored := make([]string, 0, len(pr.Report.Scores))
	for _, s := range pr.Report.Scores {
		scored = append(scored, s.Site.ID)
		assert.Equal(t, domain.StatusOK, s.Status, "site %s", s.Site.ID)
		assert.True(t, s.Diveable, "site %s", s.Site.ID)
		assert.Equal(t, domain.WaveSourceBuoy, s.Conditions.WaveSource, "site %s", s.Site.ID)
	}
	catalogIDs := make([]string, 0, len(cat.Sites))
	for _, site := range cat.Sites {
		catalogIDs = append(catalogIDs, site.ID)
	}
	assert.ElementsMatch(t, catalogIDs, scored)

	require.Len(t, pr.Report.Coasts, 5)
	for _, c := range pr.Report.Coasts {
		assert.True(t, c.AnyDiveable, "coast %s", c.Coast)
		assert.NotEmpty(t, c.BestSite, "coast %s", c.Coast)
	}

	require.Len(t, pr.Report.Sources, 6)
	for _, st := range pr.Report.Sources {
		assert.True(t, st.OK, "source %s degraded: %s", st.Source, st.Detail)
	}

	latest, ok := r.LatestReport()
	require.True(t, ok)
	assert.Equal(t, pr.Report.ID, latest.ID)
}

// TestPublisherKeysByLocalDate verifies the compaction contract: two runs on
// the same Hawaii calendar day share a message key, even when the later run
// lands past midnight UTC.
func TestPublisherKeysByLocalDate(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testReportTopic)

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaReportTopic: testReportTopic,
		Timezone:         hawaii,
	}

	pub := kafka.NewPublisher(cfg, discardLogger())
	t.Cleanup(func() { _ = pub.Close() })

	morning := domain.DailyReport{
		ID:          "morning-run",
		GeneratedAt: time.Date(2026, time.August, 15, 8, 0, 0, 0, hawaii),
	}
	// 23:30 HST is 09:30 UTC the next day; the key must stay on the 15th.
	lateNight := domain.DailyReport{
		ID:          "late-night-run",
		GeneratedAt: time.Date(2026, time.August, 15, 23, 30, 0, 0, hawaii),
	}

	require.NoError(t, pub.PublishReport(ctx, morning))
	require.NoError(t, pub.PublishReport(ctx, lateNight))

	consumer := newReportConsumer(t, broker)
	first := readReport(ctx, t, consumer)
	second := readReport(ctx, t, consumer)

	assert.Equal(t, "2026-08-15", first.Key)
	assert.Equal(t, "2026-08-15", second.Key)
	assert.Equal(t, "morning-run", first.Headers["report_id"])
	assert.Equal(t, "late-night-run", second.Headers["report_id"])
}
