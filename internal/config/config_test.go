package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDataFile = "/data/water_years.csv"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATA_FILE", testDataFile)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, testDataFile, cfg.DataFile)
	assert.Empty(t, cfg.DataURL)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 15, cfg.HistogramBins)
	assert.Equal(t, "joint", cfg.FitStrategy)
	assert.Equal(t, "tolerance", cfg.AnalogPolicy)
	assert.Equal(t, time.Duration(0), cfg.RefreshInterval)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "forecast-events", cfg.KafkaTopic)
	assert.False(t, cfg.PublishEnabled)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("DATA_URL", "https://example.org/basin/water_years.csv")
	t.Setenv("FETCH_TIMEOUT", "30s")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("HISTOGRAM_BINS", "20")
	t.Setenv("FIT_STRATEGY", "independent")
	t.Setenv("ANALOG_POLICY", "nearest")
	t.Setenv("REFRESH_INTERVAL", "24h")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "basin-forecasts")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://example.org/basin/water_years.csv", cfg.DataURL)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 20, cfg.HistogramBins)
	assert.Equal(t, "independent", cfg.FitStrategy)
	assert.Equal(t, "nearest", cfg.AnalogPolicy)
	assert.Equal(t, 24*time.Hour, cfg.RefreshInterval)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "basin-forecasts", cfg.KafkaTopic)
	assert.True(t, cfg.PublishEnabled)
}

func TestLoad_MissingSource(t *testing.T) {
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATA_URL or DATA_FILE")
}

func TestLoad_AmbiguousSource(t *testing.T) {
	t.Setenv("DATA_URL", "https://example.org/water_years.csv")
	t.Setenv("DATA_FILE", testDataFile)
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

func TestLoad_InvalidFetchTimeout(t *testing.T) {
	t.Setenv("DATA_FILE", testDataFile)
	t.Setenv("FETCH_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FETCH_TIMEOUT")
}

func TestLoad_InvalidFitStrategy(t *testing.T) {
	t.Setenv("DATA_FILE", testDataFile)
	t.Setenv("FIT_STRATEGY", "bayesian")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FIT_STRATEGY")
}

func TestLoad_InvalidAnalogPolicy(t *testing.T) {
	t.Setenv("DATA_FILE", testDataFile)
	t.Setenv("ANALOG_POLICY", "cosine")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANALOG_POLICY")
}

func TestLoad_InvalidHistogramBins(t *testing.T) {
	t.Setenv("DATA_FILE", testDataFile)
	t.Setenv("HISTOGRAM_BINS", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HISTOGRAM_BINS")
}

func TestLoad_InvalidRefreshInterval(t *testing.T) {
	t.Setenv("DATA_FILE", testDataFile)
	t.Setenv("REFRESH_INTERVAL", "soon")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REFRESH_INTERVAL")
}

func TestLoad_PublishEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("DATA_FILE", testDataFile)
	t.Setenv("KAFKA_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_BrokersImplyEnabled(t *testing.T) {
	t.Setenv("DATA_FILE", testDataFile)
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.PublishEnabled)
}

func TestLoad_PublishExplicitlyDisabled(t *testing.T) {
	t.Setenv("DATA_FILE", testDataFile)
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	t.Setenv("KAFKA_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.PublishEnabled)
}
