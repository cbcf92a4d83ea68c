package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	// Embedded tz database so TIMEZONE resolves in minimal containers.
	_ "time/tzdata"

	"github.com/couchcryptid/dive-conditions/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	SitesPath       string
	RefreshInterval time.Duration
	HTTPTimeout     time.Duration
	CachePath       string
	Timezone        *time.Location

	KafkaBrokers     []string
	KafkaReportTopic string
	KafkaEnabled     bool

	Weights domain.ScoringConfig

	// Delivery settings, used by the digest command. All optional; a
	// channel with incomplete settings is skipped, not an error.
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioFromNumber  string
	SMSRecipients     []string
	SendGridAPIKey    string
	SendGridFromEmail string
	EmailRecipients   []string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parsePositiveDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	refreshInterval, err := parsePositiveDuration("REFRESH_INTERVAL", "1h")
	if err != nil {
		return nil, err
	}
	httpTimeout, err := parsePositiveDuration("HTTP_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}

	tzName := envOrDefault("TIMEZONE", "Pacific/Honolulu")
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tzName, err)
	}

	weights, err := parseWeights()
	if err != nil {
		return nil, err
	}

	kafkaEnabled, err := parseBool("KAFKA_ENABLED", true)
	if err != nil {
		return nil, err
	}

	// Empty CACHE_PATH disables the fetch cache, so absent and empty differ.
	cachePath := "dive-fetch-cache.db"
	if v, ok := os.LookupEnv("CACHE_PATH"); ok {
		cachePath = v
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		SitesPath:       envOrDefault("SITES_PATH", "config/sites.yaml"),
		RefreshInterval: refreshInterval,
		HTTPTimeout:     httpTimeout,
		CachePath:       cachePath,
		Timezone:        tz,

		KafkaBrokers:     parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaReportTopic: envOrDefault("KAFKA_REPORT_TOPIC", "dive-condition-reports"),
		KafkaEnabled:     kafkaEnabled,

		Weights: weights,

		TwilioAccountSID:  os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:   os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber:  os.Getenv("TWILIO_FROM_NUMBER"),
		SMSRecipients:     parseList(os.Getenv("SMS_RECIPIENTS")),
		SendGridAPIKey:    os.Getenv("SENDGRID_API_KEY"),
		SendGridFromEmail: os.Getenv("SENDGRID_FROM_EMAIL"),
		EmailRecipients:   parseList(os.Getenv("EMAIL_RECIPIENTS")),
	}

	if cfg.SitesPath == "" {
		return nil, errors.New("SITES_PATH is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if cfg.KafkaEnabled && cfg.KafkaReportTopic == "" {
		return nil, errors.New("KAFKA_REPORT_TOPIC is required when KAFKA_ENABLED is true")
	}

	return cfg, nil
}

// TwilioConfigured reports whether all three Twilio settings are present.
func (c *Config) TwilioConfigured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFromNumber != ""
}

// SendGridConfigured reports whether both SendGrid settings are present.
func (c *Config) SendGridConfigured() bool {
	return c.SendGridAPIKey != "" && c.SendGridFromEmail != ""
}

// parseWeights reads the five scoring weight overrides and validates them
// as a set. Weight inconsistency is fatal here, before any scoring runs.
func parseWeights() (domain.ScoringConfig, error) {
	defaults := domain.DefaultScoringConfig()

	wave, err := parseFloat("WEIGHT_WAVE", defaults.WaveWeight)
	if err != nil {
		return domain.ScoringConfig{}, err
	}
	wind, err := parseFloat("WEIGHT_WIND", defaults.WindWeight)
	if err != nil {
		return domain.ScoringConfig{}, err
	}
	visibility, err := parseFloat("WEIGHT_VISIBILITY", defaults.VisibilityWeight)
	if err != nil {
		return domain.ScoringConfig{}, err
	}
	tide, err := parseFloat("WEIGHT_TIDE", defaults.TideWeight)
	if err != nil {
		return domain.ScoringConfig{}, err
	}
	timeOfDay, err := parseFloat("WEIGHT_TIME", defaults.TimeWeight)
	if err != nil {
		return domain.ScoringConfig{}, err
	}

	cfg := domain.ScoringConfig{
		WaveWeight:       wave,
		WindWeight:       wind,
		VisibilityWeight: visibility,
		TideWeight:       tide,
		TimeWeight:       timeOfDay,
	}
	if err := cfg.Validate(); err != nil {
		return domain.ScoringConfig{}, fmt.Errorf("scoring weights: %w", err)
	}
	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(s string) []string {
	return parseList(s)
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

func parseBool(key string, fallback bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}
