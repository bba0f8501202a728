package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Dataset source: exactly one of DataURL / DataFile is set.
	DataURL      string
	DataFile     string
	FetchTimeout time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Pipeline policy selection.
	HistogramBins   int
	FitStrategy     string        // "joint" or "independent"
	AnalogPolicy    string        // "tolerance" or "nearest"
	RefreshInterval time.Duration // 0 disables periodic reload

	// Forecast event publishing (disabled unless brokers are set).
	KafkaBrokers   []string
	KafkaTopic     string
	PublishEnabled bool
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	refreshInterval, err := parseRefreshInterval()
	if err != nil {
		return nil, err
	}

	bins, err := parseHistogramBins()
	if err != nil {
		return nil, err
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	publishEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		publishEnabled = v == "true"
	}

	cfg := &Config{
		DataURL:         os.Getenv("DATA_URL"),
		DataFile:        os.Getenv("DATA_FILE"),
		FetchTimeout:    fetchTimeout,
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		HistogramBins:   bins,
		FitStrategy:     envOrDefault("FIT_STRATEGY", "joint"),
		AnalogPolicy:    envOrDefault("ANALOG_POLICY", "tolerance"),
		RefreshInterval: refreshInterval,
		KafkaBrokers:    brokers,
		KafkaTopic:      envOrDefault("KAFKA_TOPIC", "forecast-events"),
		PublishEnabled:  publishEnabled,
	}

	if cfg.DataURL == "" && cfg.DataFile == "" {
		return nil, errors.New("one of DATA_URL or DATA_FILE is required")
	}
	if cfg.DataURL != "" && cfg.DataFile != "" {
		return nil, errors.New("DATA_URL and DATA_FILE are mutually exclusive")
	}
	if cfg.FitStrategy != "joint" && cfg.FitStrategy != "independent" {
		return nil, fmt.Errorf("invalid FIT_STRATEGY %q: want joint or independent", cfg.FitStrategy)
	}
	if cfg.AnalogPolicy != "tolerance" && cfg.AnalogPolicy != "nearest" {
		return nil, fmt.Errorf("invalid ANALOG_POLICY %q: want tolerance or nearest", cfg.AnalogPolicy)
	}
	if cfg.PublishEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

// parseRefreshInterval allows 0 (load once, the default) or any positive
// duration for periodic reload of the source file.
func parseRefreshInterval() (time.Duration, error) {
	s := os.Getenv("REFRESH_INTERVAL")
	if s == "" || s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, errors.New("invalid REFRESH_INTERVAL")
	}
	return d, nil
}

func parseHistogramBins() (int, error) {
	s := os.Getenv("HISTOGRAM_BINS")
	if s == "" {
		return 15, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid HISTOGRAM_BINS")
	}
	return n, nil
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
