package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basinview/inflow-explorer/internal/domain"
	"github.com/basinview/inflow-explorer/internal/pipeline"
)

// stubPipeline serves a fixed snapshot, or nothing when not ready.
type stubPipeline struct {
	snap     *pipeline.Snapshot
	forecast domain.ForecastResult
	inputs   []domain.ForecastInput
}

func (s *stubPipeline) CheckReadiness(_ context.Context) error {
	if s.snap == nil {
		return errors.New("dataset has not been loaded yet")
	}
	return nil
}

func (s *stubPipeline) Snapshot() (*pipeline.Snapshot, bool) {
	return s.snap, s.snap != nil
}

func (s *stubPipeline) Forecast(_ context.Context, input domain.ForecastInput) (domain.ForecastResult, error) {
	if s.snap == nil {
		return domain.ForecastResult{}, pipeline.ErrNotReady
	}
	s.inputs = append(s.inputs, input)
	return s.forecast, nil
}

func loadedPipeline() *stubPipeline {
	return &stubPipeline{
		snap: &pipeline.Snapshot{
			Dataset: &domain.Dataset{
				Records:  []domain.YearRecord{{Year: 1993, SWEPct: 100}},
				Baseline: domain.BaselineStats{SWEMeanMm: 200, Years: 1},
			},
			Model: domain.RegressionModel{SWE: 0.8, Strategy: "joint"},
			Histograms: map[string]domain.Histogram{
				pipeline.HistSWE: {{Start: 90, End: 110, Count: 1, Value: 100}},
			},
		},
		forecast: domain.ForecastResult{PercentOfBaseline: 84, RawPercent: 84, AbsoluteMm: 336},
	}
}

func doRequest(s *Server, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestServer_Health(t *testing.T) {
	s := NewServer(":0", &stubPipeline{}, slog.Default())

	rec := doRequest(s, http.MethodGet, "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestServer_Ready(t *testing.T) {
	t.Run("not ready before load", func(t *testing.T) {
		s := NewServer(":0", &stubPipeline{}, slog.Default())

		rec := doRequest(s, http.MethodGet, "/readyz")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "not ready")
	})

	t.Run("ready after load", func(t *testing.T) {
		s := NewServer(":0", loadedPipeline(), slog.Default())

		rec := doRequest(s, http.MethodGet, "/readyz")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
	})
}

func TestServer_Metrics(t *testing.T) {
	s := NewServer(":0", &stubPipeline{}, slog.Default())

	rec := doRequest(s, http.MethodGet, "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_Dataset(t *testing.T) {
	t.Run("503 before load", func(t *testing.T) {
		s := NewServer(":0", &stubPipeline{}, slog.Default())

		rec := doRequest(s, http.MethodGet, "/api/dataset")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("serves records and baseline", func(t *testing.T) {
		s := NewServer(":0", loadedPipeline(), slog.Default())

		rec := doRequest(s, http.MethodGet, "/api/dataset")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var ds domain.Dataset
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ds))
		require.Len(t, ds.Records, 1)
		assert.Equal(t, 1993, ds.Records[0].Year)
		assert.Equal(t, 200.0, ds.Baseline.SWEMeanMm)
	})
}

func TestServer_Histograms(t *testing.T) {
	s := NewServer(":0", loadedPipeline(), slog.Default())

	rec := doRequest(s, http.MethodGet, "/api/histograms")

	require.Equal(t, http.StatusOK, rec.Code)

	var hists map[string]domain.Histogram
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hists))
	require.Contains(t, hists, pipeline.HistSWE)
	assert.Equal(t, 1, hists[pipeline.HistSWE][0].Count)
}

func TestServer_Model(t *testing.T) {
	s := NewServer(":0", loadedPipeline(), slog.Default())

	rec := doRequest(s, http.MethodGet, "/api/model")

	require.Equal(t, http.StatusOK, rec.Code)

	var model domain.RegressionModel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &model))
	assert.Equal(t, 0.8, model.SWE)
	assert.Equal(t, "joint", model.Strategy)
}

func TestServer_Forecast(t *testing.T) {
	t.Run("computes from query parameters", func(t *testing.T) {
		p := loadedPipeline()
		s := NewServer(":0", p, slog.Default())

		rec := doRequest(s, http.MethodGet, "/api/forecast?swe_pct=80&fall_sm_pct=100&spring_precip_pct=110")

		require.Equal(t, http.StatusOK, rec.Code)

		var result domain.ForecastResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, 84.0, result.PercentOfBaseline)

		require.Len(t, p.inputs, 1)
		assert.Equal(t, domain.ForecastInput{SWEPct: 80, FallSoilMoisturePct: 100, SpringPrecipPct: 110}, p.inputs[0])
	})

	t.Run("missing parameter", func(t *testing.T) {
		s := NewServer(":0", loadedPipeline(), slog.Default())

		rec := doRequest(s, http.MethodGet, "/api/forecast?swe_pct=80&fall_sm_pct=100")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "spring_precip_pct")
	})

	t.Run("non-numeric parameter", func(t *testing.T) {
		s := NewServer(":0", loadedPipeline(), slog.Default())

		rec := doRequest(s, http.MethodGet, "/api/forecast?swe_pct=wet&fall_sm_pct=100&spring_precip_pct=100")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "swe_pct")
	})

	t.Run("non-finite parameter", func(t *testing.T) {
		s := NewServer(":0", loadedPipeline(), slog.Default())

		rec := doRequest(s, http.MethodGet, "/api/forecast?swe_pct=NaN&fall_sm_pct=100&spring_precip_pct=100")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("503 before load", func(t *testing.T) {
		s := NewServer(":0", &stubPipeline{}, slog.Default())

		rec := doRequest(s, http.MethodGet, "/api/forecast?swe_pct=100&fall_sm_pct=100&spring_precip_pct=100")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
