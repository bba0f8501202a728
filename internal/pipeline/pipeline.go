package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/basinview/inflow-explorer/internal/domain"
	"github.com/basinview/inflow-explorer/internal/observability"
)

// ErrNotReady is returned by Forecast before the first successful load.
var ErrNotReady = errors.New("dataset not loaded yet")

// Source fetches the raw dataset payload.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Publisher emits a forecast-computed event to an external sink.
// Publishing is best-effort; failures never reach the forecast caller.
type Publisher interface {
	Publish(ctx context.Context, input domain.ForecastInput, result domain.ForecastResult) error
}

// Snapshot is one immutable load result: the normalized dataset, the fitted
// model, and the pre-built slider-background histograms keyed by variable.
type Snapshot struct {
	Dataset    *domain.Dataset
	Model      domain.RegressionModel
	Histograms map[string]domain.Histogram
}

// Histogram map keys.
const (
	HistSWE                = "swe_pct"
	HistFallSoilMoisture   = "fall_soil_moisture_pct"
	HistSpringPrecip       = "spring_precip_pct"
	HistSeasonalStreamflow = "seasonal_streamflow_pct"
)

// Loader orchestrates fetch → parse → normalize → fit and owns the current
// snapshot. Forecasts are pure reads of the snapshot, so no locking is
// needed beyond the atomic pointer swap on reload.
type Loader struct {
	source    Source
	fit       domain.FitStrategy
	analogs   domain.AnalogPolicy
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics

	binCount        int
	refreshInterval time.Duration

	snapshot atomic.Pointer[Snapshot]
	ready    atomic.Bool
}

// New creates a Loader. Pass a nil publisher to disable event publishing,
// and a zero refreshInterval to load exactly once.
func New(source Source, fit domain.FitStrategy, analogs domain.AnalogPolicy, publisher Publisher,
	logger *slog.Logger, metrics *observability.Metrics, binCount int, refreshInterval time.Duration) *Loader {
	return &Loader{
		source:          source,
		fit:             fit,
		analogs:         analogs,
		publisher:       publisher,
		logger:          logger,
		metrics:         metrics,
		binCount:        binCount,
		refreshInterval: refreshInterval,
	}
}

// CheckReadiness returns nil once a dataset snapshot is available, or an
// error describing why the service is not yet ready.
func (l *Loader) CheckReadiness(_ context.Context) error {
	if !l.ready.Load() {
		return errors.New("dataset has not been loaded yet")
	}
	return nil
}

// Run loads the dataset, retrying with exponential backoff until the first
// success, then either returns (no refresh configured) or keeps reloading
// on the refresh interval until the context is cancelled.
func (l *Loader) Run(ctx context.Context) error {
	l.logger.Info("pipeline started",
		"fit_strategy", l.fit.Name(),
		"analog_policy", l.analogs.Name(),
		"refresh_interval", l.refreshInterval,
	)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		if err := l.LoadOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			l.logger.Error("dataset load failed", "error", err)
			l.metrics.DatasetLoadFailures.Inc()
			if !sleepWithContext(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff, maxBackoff)
			continue
		}
		backoff = 200 * time.Millisecond

		if l.refreshInterval <= 0 {
			return nil
		}
		if !sleepWithContext(ctx, l.refreshInterval) {
			l.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// LoadOnce runs one fetch-parse-normalize-fit cycle and swaps in the new
// snapshot on success. A degenerate fit is recovered by retaining the
// previous snapshot's coefficients; every other failure leaves the current
// snapshot (if any) untouched.
func (l *Loader) LoadOnce(ctx context.Context) error {
	start := time.Now()

	raw, err := l.source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch dataset: %w", err)
	}

	records, dropped, err := domain.ParseRecords(raw)
	if err != nil {
		return fmt.Errorf("parse dataset: %w", err)
	}
	if dropped > 0 {
		l.metrics.RowsDropped.Add(float64(dropped))
	}

	ds, err := domain.NewDataset(records)
	if err != nil {
		return fmt.Errorf("normalize dataset: %w", err)
	}

	model, err := l.fit.Fit(ds)
	if err != nil {
		if !errors.Is(err, domain.ErrDegenerateFit) {
			return fmt.Errorf("fit sensitivity model: %w", err)
		}
		l.logger.Warn("degenerate fit, retaining previous coefficients", "error", err)
		l.metrics.DegenerateFits.Inc()
		model = l.previousModel()
	}

	l.snapshot.Store(&Snapshot{
		Dataset:    ds,
		Model:      model,
		Histograms: buildHistograms(ds, l.binCount),
	})
	l.ready.Store(true)

	l.metrics.DatasetLoads.Inc()
	l.metrics.DatasetReady.Set(1)
	l.metrics.DatasetRecords.Set(float64(len(ds.Records)))
	l.metrics.LoadDuration.Observe(time.Since(start).Seconds())

	l.logger.Info("dataset loaded",
		"records", len(ds.Records),
		"rows_dropped", dropped,
		"baseline_years", ds.Baseline.Years,
		"strategy", model.Strategy,
	)
	return nil
}

// Snapshot returns the current load result, or false before the first
// successful load.
func (l *Loader) Snapshot() (*Snapshot, bool) {
	snap := l.snapshot.Load()
	return snap, snap != nil
}

// Forecast computes a forecast from the current snapshot. It holds no state
// across calls: every invocation recomputes from the full input tuple, so
// rapid superseding calls (slider drags) are safe to discard.
func (l *Loader) Forecast(ctx context.Context, input domain.ForecastInput) (domain.ForecastResult, error) {
	snap := l.snapshot.Load()
	if snap == nil {
		return domain.ForecastResult{}, ErrNotReady
	}

	start := time.Now()
	result := domain.ComputeForecast(snap.Dataset, snap.Model, l.analogs, input)

	l.metrics.ForecastsComputed.Inc()
	l.metrics.ForecastDuration.Observe(time.Since(start).Seconds())
	l.metrics.AnalogYears.Observe(float64(len(result.AnalogYears)))

	if l.publisher != nil {
		if err := l.publisher.Publish(ctx, input, result); err != nil {
			l.logger.Warn("publish forecast event failed", "error", err)
			l.metrics.PublishErrors.Inc()
		} else {
			l.metrics.EventsPublished.Inc()
		}
	}
	return result, nil
}

// previousModel returns the last snapshot's coefficients, or a zero model
// tagged with the strategy name on the very first load.
func (l *Loader) previousModel() domain.RegressionModel {
	if prev := l.snapshot.Load(); prev != nil {
		return prev.Model
	}
	return domain.RegressionModel{Strategy: l.fit.Name()}
}

func buildHistograms(ds *domain.Dataset, binCount int) map[string]domain.Histogram {
	swe := make([]float64, len(ds.Records))
	fallSM := make([]float64, len(ds.Records))
	spring := make([]float64, len(ds.Records))
	seasonal := make([]float64, len(ds.Records))
	for i, r := range ds.Records {
		swe[i] = r.SWEPct
		fallSM[i] = r.FallSoilMoisturePct
		spring[i] = r.SpringPrecipPct
		seasonal[i] = r.SeasonalStreamflowPct
	}
	return map[string]domain.Histogram{
		HistSWE:                domain.ComputeHistogram(swe, binCount),
		HistFallSoilMoisture:   domain.ComputeHistogram(fallSM, binCount),
		HistSpringPrecip:       domain.ComputeHistogram(spring, binCount),
		HistSeasonalStreamflow: domain.ComputeHistogram(seasonal, binCount),
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
