package domain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// epsilonMean stands in for a baseline mean of exactly zero so the
// percent-of-baseline division never produces Inf. A zero mean is a
// degenerate input, not a meaningful climate signal.
const epsilonMean = 1e-9

// NewDataset normalizes parsed records into an immutable Dataset: it
// computes the 1991-2020 baseline means, derives every record's percent
// fields against them, and records the global min/max of each percent
// series. Wraps [ErrDataFormat] when no record falls inside the baseline
// window.
func NewDataset(records []YearRecord) (*Dataset, error) {
	baseline, err := computeBaseline(records)
	if err != nil {
		return nil, err
	}

	normalized := make([]YearRecord, len(records))
	for i, r := range records {
		r.SWEPct = pctOfBaseline(r.SWEMm, baseline.SWEMeanMm)
		r.FallSoilMoisturePct = pctOfBaseline(r.FallSoilMoistureMm, baseline.FallSoilMoistureMeanMm)
		r.SpringPrecipPct = pctOfBaseline(r.SpringPrecipMm, baseline.SpringPrecipMeanMm)
		r.SeasonalStreamflowPct = pctOfBaseline(r.SeasonalStreamflowMm, baseline.SeasonalStreamflowMeanMm)
		r.TotalStreamflowPct = pctOfBaseline(r.TotalStreamflowMm, baseline.TotalStreamflowMeanMm)
		normalized[i] = r
	}

	return &Dataset{
		Records:  normalized,
		Baseline: baseline,
		Ranges:   computeRanges(normalized),
		LoadedAt: clock.Now(),
	}, nil
}

func pctOfBaseline(v, mean float64) float64 {
	return v / mean * 100
}

func computeBaseline(records []YearRecord) (BaselineStats, error) {
	var swe, fallSM, spring, seasonal, total []float64
	for _, r := range records {
		if r.Year < BaselineStartYear || r.Year > BaselineEndYear {
			continue
		}
		swe = append(swe, r.SWEMm)
		fallSM = append(fallSM, r.FallSoilMoistureMm)
		spring = append(spring, r.SpringPrecipMm)
		seasonal = append(seasonal, r.SeasonalStreamflowMm)
		total = append(total, r.TotalStreamflowMm)
	}
	if len(swe) == 0 {
		return BaselineStats{}, fmt.Errorf("%w: no records in %d-%d baseline window",
			ErrDataFormat, BaselineStartYear, BaselineEndYear)
	}

	return BaselineStats{
		SWEMeanMm:                safeMean(swe),
		FallSoilMoistureMeanMm:   safeMean(fallSM),
		SpringPrecipMeanMm:       safeMean(spring),
		SeasonalStreamflowMeanMm: safeMean(seasonal),
		TotalStreamflowMeanMm:    safeMean(total),
		Years:                    len(swe),
	}, nil
}

// safeMean averages the finite values of a series. Non-finite values are
// skipped rather than NaN-propagated; an all-skipped or exactly-zero mean
// degrades to epsilonMean.
func safeMean(values []float64) float64 {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		finite = append(finite, v)
	}
	if len(finite) == 0 {
		return epsilonMean
	}
	if m := stat.Mean(finite, nil); m != 0 {
		return m
	}
	return epsilonMean
}

func computeRanges(records []YearRecord) Ranges {
	return Ranges{
		SWEPct:                seriesRange(records, func(r YearRecord) float64 { return r.SWEPct }),
		FallSoilMoisturePct:   seriesRange(records, func(r YearRecord) float64 { return r.FallSoilMoisturePct }),
		SpringPrecipPct:       seriesRange(records, func(r YearRecord) float64 { return r.SpringPrecipPct }),
		SeasonalStreamflowPct: seriesRange(records, func(r YearRecord) float64 { return r.SeasonalStreamflowPct }),
		TotalStreamflowPct:    seriesRange(records, func(r YearRecord) float64 { return r.TotalStreamflowPct }),
	}
}

func seriesRange(records []YearRecord, value func(YearRecord) float64) VariableRange {
	if len(records) == 0 {
		return VariableRange{}
	}
	r := VariableRange{Min: value(records[0]), Max: value(records[0])}
	for _, rec := range records[1:] {
		v := value(rec)
		if v < r.Min {
			r.Min = v
		}
		if v > r.Max {
			r.Max = v
		}
	}
	return r
}
