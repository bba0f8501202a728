package domain

import (
	"errors"
	"time"
)

// Canonical column names in the source file. Header matching is exact and
// case-sensitive.
const (
	ColWaterYear          = "water_year"
	ColSWE                = "apr1_swe_mm"
	ColFallSoilMoisture   = "fall_sm_oct_nov_avg_mm"
	ColSpringPrecip       = "spring_precip_apr_jul_mm"
	ColSeasonalStreamflow = "key_streamflow_apr_jul_mm"
	ColTotalStreamflow    = "total_streamflow_mm"
)

// Baseline window bounds, inclusive. 1991-2020 is the current WMO
// climate-normal period.
const (
	BaselineStartYear = 1991
	BaselineEndYear   = 2020
)

// ErrDataFormat reports an input that cannot produce a usable dataset:
// an empty or headerless payload, or a baseline window with no records.
// It is always wrapped with context at the failure site.
var ErrDataFormat = errors.New("data format error")

// ErrDegenerateFit reports a near-singular joint least-squares solve.
// Non-fatal: the caller retains its previous coefficients.
var ErrDegenerateFit = errors.New("degenerate fit")

// YearRecord is one water-year observation. Raw fields are millimeters as
// parsed from the source; the *Pct fields are percent of the 1991-2020
// baseline mean, populated once by NewDataset and immutable afterwards.
type YearRecord struct {
	Year int `json:"year"`

	SWEMm                float64 `json:"swe_mm"`
	FallSoilMoistureMm   float64 `json:"fall_soil_moisture_mm"`
	SpringPrecipMm       float64 `json:"spring_precip_mm"`
	SeasonalStreamflowMm float64 `json:"seasonal_streamflow_mm"`
	TotalStreamflowMm    float64 `json:"total_streamflow_mm"`

	SWEPct                float64 `json:"swe_pct"`
	FallSoilMoisturePct   float64 `json:"fall_soil_moisture_pct"`
	SpringPrecipPct       float64 `json:"spring_precip_pct"`
	SeasonalStreamflowPct float64 `json:"seasonal_streamflow_pct"`
	TotalStreamflowPct    float64 `json:"total_streamflow_pct"`
}

// BaselineStats holds the per-variable arithmetic means over the
// 1991-2020 subset. Zero means are replaced by a tiny epsilon so the
// percent-of-baseline division downstream never divides by zero.
type BaselineStats struct {
	SWEMeanMm                float64 `json:"swe_mean_mm"`
	FallSoilMoistureMeanMm   float64 `json:"fall_soil_moisture_mean_mm"`
	SpringPrecipMeanMm       float64 `json:"spring_precip_mean_mm"`
	SeasonalStreamflowMeanMm float64 `json:"seasonal_streamflow_mean_mm"`
	TotalStreamflowMeanMm    float64 `json:"total_streamflow_mean_mm"`

	// Years is the number of records that fell inside the baseline window.
	Years int `json:"years"`
}

// VariableRange is the observed [min, max] of one percent series across the
// whole dataset, not just baseline years. Ranges bound forecasts, slider
// travel, and histogram axes.
type VariableRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Clamp forces v into the range.
func (r VariableRange) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// Ranges collects the VariableRange of every derived percent series.
type Ranges struct {
	SWEPct                VariableRange `json:"swe_pct"`
	FallSoilMoisturePct   VariableRange `json:"fall_soil_moisture_pct"`
	SpringPrecipPct       VariableRange `json:"spring_precip_pct"`
	SeasonalStreamflowPct VariableRange `json:"seasonal_streamflow_pct"`
	TotalStreamflowPct    VariableRange `json:"total_streamflow_pct"`
}

// Dataset is the immutable result of one load: parsed records with derived
// percent fields, baseline statistics, and global percent ranges. Nothing in
// a Dataset is mutated after NewDataset returns; a reload builds a fresh one.
type Dataset struct {
	Records  []YearRecord  `json:"records"`
	Baseline BaselineStats `json:"baseline"`
	Ranges   Ranges        `json:"ranges"`
	LoadedAt time.Time     `json:"loaded_at"`
}

// Record returns the first record for the given year. Duplicate years are
// permitted in the source data and shadow each other: the earliest row wins,
// matching quick-select behavior in the presentation layer.
func (d *Dataset) Record(year int) (YearRecord, bool) {
	for _, r := range d.Records {
		if r.Year == year {
			return r, true
		}
	}
	return YearRecord{}, false
}
