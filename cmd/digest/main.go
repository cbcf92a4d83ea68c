// Command digest runs one fetch-score-rank cycle and renders the daily
// digest, printing it or delivering it to the configured SMS and email
// recipients. It shares the ranker service's sources and scoring, so a
// cron invocation and the long-running service always agree.
//
// Usage:
//
//	go run ./cmd/digest -format text
//	go run ./cmd/digest -format html -output digest.html
//	go run ./cmd/digest -send -dry-run
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/dive-conditions/internal/adapter/coops"
	"github.com/couchcryptid/dive-conditions/internal/adapter/cwb"
	"github.com/couchcryptid/dive-conditions/internal/adapter/fetchcache"
	"github.com/couchcryptid/dive-conditions/internal/adapter/ndbc"
	"github.com/couchcryptid/dive-conditions/internal/adapter/nws"
	"github.com/couchcryptid/dive-conditions/internal/adapter/pacioos"
	"github.com/couchcryptid/dive-conditions/internal/adapter/sendgrid"
	"github.com/couchcryptid/dive-conditions/internal/adapter/twilio"
	"github.com/couchcryptid/dive-conditions/internal/adapter/usgs"
	"github.com/couchcryptid/dive-conditions/internal/catalog"
	"github.com/couchcryptid/dive-conditions/internal/config"
	"github.com/couchcryptid/dive-conditions/internal/digest"
	"github.com/couchcryptid/dive-conditions/internal/observability"
	"github.com/couchcryptid/dive-conditions/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	format := flag.String("format", "text", "output format: text, sms, or html")
	output := flag.String("output", "", "write the rendered digest to this file instead of stdout")
	send := flag.Bool("send", false, "deliver the digest to configured recipients")
	smsOnly := flag.Bool("sms", false, "with -send, deliver by SMS only")
	emailOnly := flag.Bool("email", false, "with -send, deliver by email only")
	allSites := flag.Bool("all-sites", false, "score sites outside their seasonal window too")
	dryRun := flag.Bool("dry-run", false, "with -send, log recipients without sending anything")
	flag.Parse()

	switch *format {
	case "text", "sms", "html":
	default:
		return fmt.Errorf("unknown format %q: want text, sms, or html", *format)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	cat, err := catalog.Load(cfg.SitesPath)
	if err != nil {
		return fmt.Errorf("loading site catalog: %w", err)
	}

	cache, err := fetchcache.Open(cfg.CachePath)
	if err != nil {
		logger.Warn("fetch cache unavailable", "error", err, "path", cfg.CachePath)
	}
	if cache != nil {
		defer cache.Close() //nolint:errcheck // one-shot process
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

	fetcher := pipeline.NewFetcher(src, logger, metrics)
	ranker := pipeline.New(fetcher, cat, nil, cfg, logger, metrics)
	if *allSites {
		ranker.ScoreAllSeasons()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	report, err := ranker.GenerateReport(ctx)
	if err != nil {
		return fmt.Errorf("generating report: %w", err)
	}

	d := digest.Build(report, cfg.Timezone)

	if *send {
		if err := deliver(cfg, logger, d, *smsOnly, *emailOnly, *dryRun); err != nil {
			return err
		}
		if *output == "" {
			return nil
		}
	}

	body, err := render(d, *format)
	if err != nil {
		return err
	}
	return emit(body, *output)
}

func render(d digest.Digest, format string) (string, error) {
	switch format {
	case "sms":
		return digest.FormatSMS(d, true), nil
	case "html":
		return digest.FormatHTML(d)
	default:
		return digest.FormatText(d), nil
	}
}

func emit(body, path string) error {
	if path == "" {
		fmt.Print(body)
		if len(body) > 0 && body[len(body)-1] != '\n' {
			fmt.Println()
		}
		return nil
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return fmt.Errorf("writing digest to %s: %w", path, err)
	}
	return nil
}

// deliver fans the digest out to the configured channels. A channel with
// missing settings is skipped with a warning; a delivery failure counts
// against the exit status but never blocks the other channel.
func deliver(cfg *config.Config, logger *slog.Logger, d digest.Digest, smsOnly, emailOnly, dryRun bool) error {
	wantSMS := !emailOnly || smsOnly
	wantEmail := !smsOnly || emailOnly
	var attempted, failed int

	if wantSMS {
		switch {
		case !cfg.TwilioConfigured():
			logger.Warn("sms delivery skipped: twilio not configured")
		case len(cfg.SMSRecipients) == 0:
			logger.Warn("sms delivery skipped: no recipients")
		case dryRun:
			logger.Info("dry run: would send sms", "recipients", len(cfg.SMSRecipients))
		default:
			text := digest.FormatSMS(d, false)
			for _, res := range twilio.NewSender(cfg, logger).SendDigest(cfg.SMSRecipients, text) {
				attempted++
				if res.Err != nil {
					failed++
					logger.Error("sms delivery failed", "to", res.To, "error", res.Err)
				}
			}
		}
	}

	if wantEmail {
		switch {
		case !cfg.SendGridConfigured():
			logger.Warn("email delivery skipped: sendgrid not configured")
		case len(cfg.EmailRecipients) == 0:
			logger.Warn("email delivery skipped: no recipients")
		case dryRun:
			logger.Info("dry run: would send email", "recipients", len(cfg.EmailRecipients))
		default:
			htmlBody, err := digest.FormatHTML(d)
			if err != nil {
				return err
			}
			subject := "Oahu Dive Conditions - " + d.GeneratedAt.Format("Mon, Jan 2")
			textBody := digest.FormatText(d)
			for _, res := range sendgrid.NewSender(cfg, logger).SendDigest(cfg.EmailRecipients, subject, textBody, htmlBody) {
				attempted++
				if res.Err != nil {
					failed++
					logger.Error("email delivery failed", "to", res.To, "error", res.Err)
				}
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d deliveries failed", failed, attempted)
	}
	logger.Info("digest delivery complete", "sent", attempted-failed, "dry_run", dryRun)
	return nil
}
