// Package pipeline orchestrates the periodic fetch-assemble-score-publish
// cycle and holds the latest report for the HTTP layer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/dive-conditions/internal/catalog"
	"github.com/couchcryptid/dive-conditions/internal/config"
	"github.com/couchcryptid/dive-conditions/internal/domain"
	"github.com/couchcryptid/dive-conditions/internal/observability"
)

// ReportPublisher writes a finished daily report to the report topic.
type ReportPublisher interface {
	PublishReport(ctx context.Context, report domain.DailyReport) error
}

// Ranker runs the refresh loop: gather sources, assemble per-site
// conditions, score and rank, then publish. The most recent report stays
// available for the HTTP layer between refreshes.
type Ranker struct {
	fetcher    *Fetcher
	catalog    *catalog.Catalog
	publisher  ReportPublisher
	scoring    domain.ScoringConfig
	fresh      domain.Freshness
	loc        *time.Location
	interval   time.Duration
	allSeasons bool
	logger     *slog.Logger
	metrics    *observability.Metrics

	ready     atomic.Bool
	mu        sync.RWMutex
	latest    domain.DailyReport
	hasReport bool
}

// New creates a Ranker. Pass a nil publisher to keep reports local only.
func New(fetcher *Fetcher, cat *catalog.Catalog, publisher ReportPublisher, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Ranker {
	return &Ranker{
		fetcher:   fetcher,
		catalog:   cat,
		publisher: publisher,
		scoring:   cfg.Weights,
		fresh:     domain.DefaultFreshness(),
		loc:       cfg.Timezone,
		interval:  cfg.RefreshInterval,
		logger:    logger,
		metrics:   metrics,
	}
}

// ScoreAllSeasons widens subsequent reports to score every catalog site
// regardless of its seasonal window. One-shot commands set this before
// generating.
func (r *Ranker) ScoreAllSeasons() {
	r.allSeasons = true
}

// CheckReadiness returns nil once the loop has produced at least one
// report, or an error describing why the service is not yet ready.
func (r *Ranker) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("no report generated yet")
	}
	return nil
}

// LatestReport returns the most recent report, if any run has completed.
func (r *Ranker) LatestReport() (domain.DailyReport, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest, r.hasReport
}

// Run executes the refresh loop until the context is cancelled.
func (r *Ranker) Run(ctx context.Context) error {
	r.logger.Info("ranker started", "interval", r.interval, "sites", len(r.catalog.Sites))
	r.metrics.RankerRunning.Set(1)
	defer r.metrics.RankerRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	// Keeps retry storms short while avoiding tight loops during outages.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("ranker stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if err := r.refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.logger.Error("refresh failed", "error", err)
			r.metrics.RefreshFailures.Inc()
			if !sleepWithContext(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff, maxBackoff)
			continue
		}

		backoff = 200 * time.Millisecond
		if !sleepWithContext(ctx, r.interval) {
			return nil
		}
	}
}

// refresh runs one complete cycle and publishes the result.
func (r *Ranker) refresh(ctx context.Context) error {
	start := time.Now()

	report, err := r.GenerateReport(ctx)
	if err != nil {
		return err
	}

	if r.publisher != nil {
		if err := r.publisher.PublishReport(ctx, report); err != nil {
			return fmt.Errorf("publish report %s: %w", report.ID, err)
		}
		r.metrics.ReportsPublished.Inc()
	}

	r.metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	return nil
}

// GenerateReport runs one fetch-assemble-score cycle and stores the result
// as the latest report. One-shot commands call this directly; the loop
// calls it every interval.
func (r *Ranker) GenerateReport(ctx context.Context) (domain.DailyReport, error) {
	at := time.Now().In(r.loc)

	src, statuses := r.fetcher.FetchAll(ctx, r.catalog, at)
	if ctx.Err() != nil {
		return domain.DailyReport{}, ctx.Err()
	}

	conditions := make(map[string]domain.SiteConditions, len(r.catalog.Sites))
	for _, site := range r.catalog.Sites {
		conditions[site.ID] = domain.Assemble(site, src, r.fresh)
	}

	opts := domain.RankOptions{GeneratedAt: at, IncludeOutOfSeason: r.allSeasons}
	report := domain.Rank(r.catalog.Sites, conditions, opts, r.scoring)
	report.ID = uuid.New().String()
	report.Alerts = src.Advisories.Marine
	report.Sources = statuses

	r.recordReportMetrics(report)
	r.setLatest(report)
	r.ready.Store(true)

	r.logger.Info("report generated",
		"report_id", report.ID,
		"sites", report.TotalCount,
		"diveable", report.DiveableCount,
	)
	return report, nil
}

func (r *Ranker) setLatest(report domain.DailyReport) {
	r.mu.Lock()
	r.latest = report
	r.hasReport = true
	r.mu.Unlock()
}

func (r *Ranker) recordReportMetrics(report domain.DailyReport) {
	r.metrics.ReportsGenerated.Inc()
	r.metrics.SitesScored.Observe(float64(report.TotalCount))
	r.metrics.DiveableSites.Set(float64(report.DiveableCount))

	for _, s := range report.Scores {
		r.metrics.SiteGrades.WithLabelValues(string(s.Grade)).Inc()
		r.metrics.SiteStatuses.WithLabelValues(string(s.Status)).Inc()
		if s.UnsafeReason != "" {
			r.metrics.GatedSites.WithLabelValues(string(s.UnsafeReason)).Inc()
		}
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
