// Package domain models basin water-year data and the inflow sensitivity
// pipeline: parsing, baseline normalization, histogram binning, coefficient
// fitting, and forecasting.
//
// # Data Source
//
// Observations arrive as a delimited text file with one row per water year.
// The header row names the columns exactly (case-sensitive):
//
//	water_year, apr1_swe_mm, fall_sm_oct_nov_avg_mm,
//	spring_precip_apr_jul_mm, key_streamflow_apr_jul_mm, total_streamflow_mm
//
// All measurement columns are millimeters. Blank or non-numeric measurement
// cells are read as 0 (unmeasured). A row without a parseable water_year is
// dropped entirely; sparse or malformed trailing rows are expected in the
// source files and are not an error. Duplicate water_year values are legal
// and pass through unchanged; lookups by year return the first match.
//
// # Baseline Normalization
//
// Every measurement is re-expressed as percent of its 1991-2020 mean
// (the WMO climate-normal window), so 100 always means "long-run average".
// The baseline mean is computed only from records inside the window, but the
// derived percent fields are populated for every record. A baseline mean of
// exactly zero is replaced by a tiny epsilon so the division stays finite.
//
// Seasonal streamflow (key_streamflow_apr_jul_mm, the April-July runoff
// the sliders explain) and total streamflow (total_streamflow_mm, the full
// water year) are normalized against their own baselines and are never
// interchangeable.
//
// # Sensitivity Fitting
//
// Coefficients relate deviation-coded predictors (percent minus 100) to the
// seasonal streamflow deviation. Two strategies exist and a process uses
// exactly one:
//
//	independent: per-predictor slope Σ(x·y)/Σ(x²), cross-correlation ignored
//	joint:       3x3 normal-equations least squares over all three predictors
//
// A near-singular joint solve reports [ErrDegenerateFit]; the caller keeps
// its previous coefficients rather than crashing the forecast path.
//
// # Forecasting
//
// A forecast applies the current input percentages through the coefficients,
// clamps the result into the historically observed seasonal streamflow range,
// and ranks up to five analog years whose predictors resemble the input.
// Analog selection is a policy value ([ToleranceAnalogs] or [NearestAnalogs]);
// both orderings are deterministic, with year ascending breaking ties.
package domain
