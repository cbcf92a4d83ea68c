package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the ranking service.
type Metrics struct {
	ReportsGenerated prometheus.Counter
	ReportsPublished prometheus.Counter
	RefreshFailures  prometheus.Counter
	RankerRunning    prometheus.Gauge

	// Per-refresh report shape.
	RefreshDuration prometheus.Histogram
	SitesScored     prometheus.Histogram
	DiveableSites   prometheus.Gauge

	// Scoring outcome metrics.
	SiteGrades   *prometheus.CounterVec // labels: grade={A,B,C,D,F}
	GatedSites   *prometheus.CounterVec // labels: reason={high_surf_warning,brown_water_advisory,wave_exceedance}
	SiteStatuses *prometheus.CounterVec // labels: status={ok,gated,insufficient_data}

	// Fetch layer metrics.
	FetchFailures *prometheus.CounterVec   // labels: source={ndbc,pacioos,nws,coops,usgs,cwb}
	FetchDuration *prometheus.HistogramVec // labels: source
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ReportsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dive_ranker",
			Name:      "reports_generated_total",
			Help:      "Total daily reports produced by the refresh loop.",
		}),
		ReportsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dive_ranker",
			Name:      "reports_published_total",
			Help:      "Total reports written to the report topic.",
		}),
		RefreshFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dive_ranker",
			Name:      "refresh_failures_total",
			Help:      "Total refresh cycles that produced no report.",
		}),
		RankerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dive_ranker",
			Name:      "running",
			Help:      "1 when the refresh loop is active, 0 when shut down.",
		}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dive_ranker",
			Name:      "refresh_duration_seconds",
			Help:      "Duration of a complete fetch-score-rank-publish cycle.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		SitesScored: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dive_ranker",
			Name:      "sites_scored",
			Help:      "Number of sites included per report.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 48, 60},
		}),
		DiveableSites: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dive_ranker",
			Name:      "diveable_sites",
			Help:      "Diveable site count in the latest report.",
		}),
		SiteGrades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dive_ranker",
			Name:      "site_grades_total",
			Help:      "Letter grades assigned, by grade.",
		}, []string{"grade"}),
		GatedSites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dive_ranker",
			Name:      "gated_sites_total",
			Help:      "Sites marked not diveable, by safety gate.",
		}, []string{"reason"}),
		SiteStatuses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dive_ranker",
			Name:      "site_statuses_total",
			Help:      "Scored sites by report status.",
		}, []string{"status"}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dive_ranker",
			Name:      "fetch_failures_total",
			Help:      "Upstream fetch failures by source.",
		}, []string{"source"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dive_ranker",
			Name:      "fetch_duration_seconds",
			Help:      "Upstream fetch duration by source.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"source"}),
	}

	prometheus.MustRegister(
		m.ReportsGenerated,
		m.ReportsPublished,
		m.RefreshFailures,
		m.RankerRunning,
		m.RefreshDuration,
		m.SitesScored,
		m.DiveableSites,
		m.SiteGrades,
		m.GatedSites,
		m.SiteStatuses,
		m.FetchFailures,
		m.FetchDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ReportsGenerated: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "dive_ranker", Name: "reports_generated_total"}),
		ReportsPublished: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "dive_ranker", Name: "reports_published_total"}),
		RefreshFailures:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "dive_ranker", Name: "refresh_failures_total"}),
		RankerRunning:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "dive_ranker", Name: "running"}),
		RefreshDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "dive_ranker", Name: "refresh_duration_seconds"}),
		SitesScored:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "dive_ranker", Name: "sites_scored"}),
		DiveableSites:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "dive_ranker", Name: "diveable_sites"}),
		SiteGrades:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "dive_ranker", Name: "site_grades_total"}, []string{"grade"}),
		GatedSites:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "dive_ranker", Name: "gated_sites_total"}, []string{"reason"}),
		SiteStatuses:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "dive_ranker", Name: "site_statuses_total"}, []string{"status"}),
		FetchFailures:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "dive_ranker", Name: "fetch_failures_total"}, []string{"source"}),
		FetchDuration:    prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "dive_ranker", Name: "fetch_duration_seconds"}, []string{"source"}),
	}
}
