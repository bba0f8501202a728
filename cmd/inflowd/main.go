// Command inflowd serves the basin-inflow explorer API: it loads the
// water-year dataset, fits the sensitivity model, and answers forecast
// queries over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/basinview/inflow-explorer/internal/adapter/fetch"
	kafkaadapter "github.com/basinview/inflow-explorer/internal/adapter/kafka"
	"github.com/basinview/inflow-explorer/internal/adapter/web"
	"github.com/basinview/inflow-explorer/internal/config"
	"github.com/basinview/inflow-explorer/internal/domain"
	"github.com/basinview/inflow-explorer/internal/observability"
	"github.com/basinview/inflow-explorer/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	var source pipeline.Source
	if cfg.DataURL != "" {
		source = fetch.NewHTTPSource(cfg.DataURL, cfg.FetchTimeout, logger)
		logger.Info("using http dataset source", "url", cfg.DataURL)
	} else {
		source = fetch.NewFileSource(cfg.DataFile)
		logger.Info("using file dataset source", "path", cfg.DataFile)
	}

	fit, ok := domain.StrategyByName(cfg.FitStrategy)
	if !ok {
		logger.Error("unknown fit strategy", "strategy", cfg.FitStrategy)
		os.Exit(1)
	}
	analogs, ok := domain.PolicyByName(cfg.AnalogPolicy)
	if !ok {
		logger.Error("unknown analog policy", "policy", cfg.AnalogPolicy)
		os.Exit(1)
	}

	// Forecast-event publishing (feature-flagged via KAFKA_BROKERS / KAFKA_ENABLED).
	var publisher pipeline.Publisher
	var kafkaPublisher *kafkaadapter.Publisher
	if cfg.PublishEnabled {
		kafkaPublisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		publisher = kafkaPublisher
		metrics.PublisherEnabled.Set(1)
		logger.Info("forecast event publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("forecast event publishing disabled")
	}

	loader := pipeline.New(source, fit, analogs, publisher, logger, metrics,
		cfg.HistogramBins, cfg.RefreshInterval)

	srv := web.NewServer(cfg.HTTPAddr, loader, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start dataset pipeline.
	go func() {
		if err := loader.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
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

	logger.Info("shutdown complete")
}
