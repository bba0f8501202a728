package domain

import (
	"math"
	"sort"
	"time"
)

// MaxAnalogYears caps the analog-year list length.
const MaxAnalogYears = 5

// AnalogTolerancePct is the per-predictor window, in percentage points,
// used by the tolerance policy.
const AnalogTolerancePct = 15.0

// ForecastInput is the current user scenario: one percent-of-baseline value
// per predictor. The engine accepts any finite values; the presentation
// layer is expected to bound sliders to each variable's historical range.
type ForecastInput struct {
	SWEPct              float64 `json:"swe_pct"`
	FallSoilMoisturePct float64 `json:"fall_sm_pct"`
	SpringPrecipPct     float64 `json:"spring_precip_pct"`
}

// AnalogYear is a historical year whose predictors resemble the input
// scenario. Distance is populated only by the nearest-neighbor policy.
type AnalogYear struct {
	Year                  int     `json:"year"`
	SWEPct                float64 `json:"swe_pct"`
	FallSoilMoisturePct   float64 `json:"fall_soil_moisture_pct"`
	SpringPrecipPct       float64 `json:"spring_precip_pct"`
	SeasonalStreamflowMm  float64 `json:"seasonal_streamflow_mm"`
	SeasonalStreamflowPct float64 `json:"seasonal_streamflow_pct"`
	Distance              float64 `json:"distance,omitempty"`
}

// ForecastResult is the output of one forecast computation. It is a fresh
// value on every call; nothing is cached or mutated in place.
type ForecastResult struct {
	// PercentOfBaseline is the raw percent clamped into the historically
	// observed seasonal streamflow range. Forecasts never extrapolate
	// beyond observed history.
	PercentOfBaseline float64 `json:"percent_of_baseline"`
	// RawPercent is the unclamped linear-model output, kept for display.
	RawPercent float64 `json:"raw_percent"`
	// AbsoluteMm is PercentOfBaseline applied to the baseline seasonal
	// streamflow mean.
	AbsoluteMm  float64      `json:"absolute_mm"`
	AnalogYears []AnalogYear `json:"analog_years"`
	ComputedAt  time.Time    `json:"computed_at"`
}

// AnalogPolicy selects and orders analog years for an input scenario.
// Implementations must be deterministic with a total order.
type AnalogPolicy interface {
	Name() string
	Select(ds *Dataset, input ForecastInput) []AnalogYear
}

// PolicyByName maps a config value to its analog policy.
func PolicyByName(name string) (AnalogPolicy, bool) {
	switch name {
	case "tolerance":
		return ToleranceAnalogs{}, true
	case "nearest":
		return NearestAnalogs{}, true
	default:
		return nil, false
	}
}

// ComputeForecast applies the input percentages through the fitted
// coefficients:
//
//	raw = 100 + Σ (inputᵢ − 100) · coefficientᵢ
//
// then clamps into the observed seasonal streamflow range, converts the
// clamped percent to millimeters via the baseline mean, and attaches the
// policy's analog years. Pure: identical arguments always produce identical
// results (ComputedAt aside), and it must be re-run in full on every input
// change.
func ComputeForecast(ds *Dataset, model RegressionModel, policy AnalogPolicy, input ForecastInput) ForecastResult {
	raw := 100 +
		(input.SWEPct-100)*model.SWE +
		(input.FallSoilMoisturePct-100)*model.FallSoilMoisture +
		(input.SpringPrecipPct-100)*model.SpringPrecip

	clamped := ds.Ranges.SeasonalStreamflowPct.Clamp(raw)

	return ForecastResult{
		PercentOfBaseline: clamped,
		RawPercent:        raw,
		AbsoluteMm:        clamped / 100 * ds.Baseline.SeasonalStreamflowMeanMm,
		AnalogYears:       policy.Select(ds, input),
		ComputedAt:        clock.Now(),
	}
}

// ToleranceAnalogs keeps years whose three predictors all sit within
// AnalogTolerancePct points of the input, ordered by seasonal streamflow
// (mm) descending, year ascending on ties, truncated to MaxAnalogYears.
// An empty result means no historical year resembles the scenario.
type ToleranceAnalogs struct{}

func (ToleranceAnalogs) Name() string { return "tolerance" }

func (ToleranceAnalogs) Select(ds *Dataset, input ForecastInput) []AnalogYear {
	var analogs []AnalogYear
	for _, r := range ds.Records {
		if math.Abs(r.SWEPct-input.SWEPct) > AnalogTolerancePct ||
			math.Abs(r.FallSoilMoisturePct-input.FallSoilMoisturePct) > AnalogTolerancePct ||
			math.Abs(r.SpringPrecipPct-input.SpringPrecipPct) > AnalogTolerancePct {
			continue
		}
		analogs = append(analogs, analogFromRecord(r))
	}

	sort.Slice(analogs, func(i, j int) bool {
		if analogs[i].SeasonalStreamflowMm != analogs[j].SeasonalStreamflowMm {
			return analogs[i].SeasonalStreamflowMm > analogs[j].SeasonalStreamflowMm
		}
		return analogs[i].Year < analogs[j].Year
	})
	return truncateAnalogs(analogs)
}

// NearestAnalogs ranks every year by Euclidean distance over the SWE and
// spring-precipitation percent axes (the two spring-season drivers), with
// no tolerance gate, distance ascending, year ascending on ties, truncated
// to MaxAnalogYears.
type NearestAnalogs struct{}

func (NearestAnalogs) Name() string { return "nearest" }

func (NearestAnalogs) Select(ds *Dataset, input ForecastInput) []AnalogYear {
	analogs := make([]AnalogYear, 0, len(ds.Records))
	for _, r := range ds.Records {
		a := analogFromRecord(r)
		a.Distance = math.Hypot(r.SWEPct-input.SWEPct, r.SpringPrecipPct-input.SpringPrecipPct)
		analogs = append(analogs, a)
	}

	sort.Slice(analogs, func(i, j int) bool {
		if analogs[i].Distance != analogs[j].Distance {
			return analogs[i].Distance < analogs[j].Distance
		}
		return analogs[i].Year < analogs[j].Year
	})
	return truncateAnalogs(analogs)
}

func analogFromRecord(r YearRecord) AnalogYear {
	return AnalogYear{
		Year:                  r.Year,
		SWEPct:                r.SWEPct,
		FallSoilMoisturePct:   r.FallSoilMoisturePct,
		SpringPrecipPct:       r.SpringPrecipPct,
		SeasonalStreamflowMm:  r.SeasonalStreamflowMm,
		SeasonalStreamflowPct: r.SeasonalStreamflowPct,
	}
}

func truncateAnalogs(analogs []AnalogYear) []AnalogYear {
	if len(analogs) > MaxAnalogYears {
		return analogs[:MaxAnalogYears]
	}
	return analogs
}
