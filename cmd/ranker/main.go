package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/dive-conditions/internal/adapter/coops"
	"github.com/couchcryptid/dive-conditions/internal/adapter/cwb"
	"github.com/couchcryptid/dive-conditions/internal/adapter/fetchcache"
	httpadapter "github.com/couchcryptid/dive-conditions/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/dive-conditions/internal/adapter/kafka"
	"github.com/couchcryptid/dive-conditions/internal/adapter/ndbc"
	"github.com/couchcryptid/dive-conditions/internal/adapter/nws"
	"github.com/couchcryptid/dive-conditions/internal/adapter/pacioos"
	"github.com/couchcryptid/dive-conditions/internal/adapter/usgs"
	"github.com/couchcryptid/dive-conditions/internal/catalog"
	"github.com/couchcryptid/dive-conditions/internal/config"
	"github.com/couchcryptid/dive-conditions/internal/observability"
	"github.com/couchcryptid/dive-conditions/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	cat, err := catalog.Load(cfg.SitesPath)
	if err != nil {
		logger.Error("failed to load site catalog", "error", err, "path", cfg.SitesPath)
		os.Exit(1)
	}
	logger.Info("site catalog loaded", "sites", len(cat.Sites), "path", cfg.SitesPath)

	cache, err := fetchcache.Open(cfg.CachePath)
	if err != nil {
		// The cache only smooths over upstream flakiness; run without it.
		logger.Warn("fetch cache unavailable", "error", err, "path", cfg.CachePath)
	}

	nwsClient := nws.NewClient(cfg.HTTPTimeout, cache, logger)
	src := pipeline.Sources{
		Buoys:      ndbc.NewClient(cfg.HTTPTimeout, cache, logger),
		WaveModel:  pacioos.NewClient(cfg.HTTPTimeout, cache, logger),
		Wind:       nwsClient,
		Tides:      coops.NewClient(cfg.HTTPTimeout, cfg.Timezone, cache, logger),
		Streamflow: usgs.NewClient(cfg.HTTPTimeout, cache, logger),
		Hazards:    nwsClient,
		Advisories: cwb.NewClient(cfg.HTTPTimeout, cache, logger),
	}

	// Publisher is feature-flagged via KAFKA_ENABLED; without it reports
	// stay local to the HTTP API.
	var publisher pipeline.ReportPublisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg, logger)
		publisher = kafkaPublisher
		logger.Info("kafka publishing enabled", "topic", cfg.KafkaReportTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	fetcher := pipeline.NewFetcher(src, logger, metrics)
	ranker := pipeline.New(fetcher, cat, publisher, cfg, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, ranker, ranker, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start refresh loop.
	go func() {
		if err := ranker.Run(ctx); err != nil {
			logger.Error("refresh loop error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}
	if cache != nil {
		if err := cache.Close(); err != nil {
			logger.Error("fetch cache close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
