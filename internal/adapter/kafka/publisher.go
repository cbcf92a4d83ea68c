package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/dive-conditions/internal/config"
	"github.com/couchcryptid/dive-conditions/internal/domain"
)

// Publisher produces daily report messages to a Kafka topic.
// It implements pipeline.ReportPublisher.
type Publisher struct {
	writer *kafkago.Writer
	loc    *time.Location
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured report topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaReportTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, loc: cfg.Timezone, logger: logger}
}

// PublishReport serializes and publishes one daily report. Messages are
// keyed by the report's local calendar date, so a compacted topic retains
// the last run of each day.
func (p *Publisher) PublishReport(ctx context.Context, report domain.DailyReport) error {
	msg, err := serializeReport(report, p.loc)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeReport marshals a DailyReport into a Kafka message.
func serializeReport(report domain.DailyReport, loc *time.Location) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize daily report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(report.GeneratedAt.In(loc).Format("2006-01-02")),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "report_id", Value: []byte(report.ID)},
			{Key: "generated_at", Value: []byte(report.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
