// Command validate runs data integrity checks against a water-year CSV:
// parseability, baseline normalization round-trips, histogram conservation,
// fit determinism, and the identity-forecast property. Intended for vetting
// a new source file before pointing the service at it.
//
// Usage:
//
//	go run ./cmd/validate -csv data/mock/water_years.csv
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/basinview/inflow-explorer/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	csvPath := flag.String("csv", "", "path to water-year CSV")
	strategy := flag.String("strategy", "joint", "fit strategy: joint or independent")
	policy := flag.String("policy", "tolerance", "analog policy: tolerance or nearest")
	bins := flag.Int("bins", domain.DefaultBinCount, "histogram bin count")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*csvPath, *strategy, *policy, *bins); code != 0 {
		os.Exit(code)
	}
}

func run(csvPath, strategyName, policyName string, bins int) int {
	fmt.Println("=== Water-Year Data Validation ===")
	fmt.Println()

	raw, err := os.ReadFile(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read csv: %v\n", err)
		return 1
	}

	fit, ok := domain.StrategyByName(strategyName)
	if !ok {
		fmt.Fprintf(os.Stderr, "FATAL: unknown strategy %q\n", strategyName)
		return 1
	}
	analogs, ok := domain.PolicyByName(policyName)
	if !ok {
		fmt.Fprintf(os.Stderr, "FATAL: unknown policy %q\n", policyName)
		return 1
	}

	parsePhase := &phase{name: "parse"}
	records, dropped, err := domain.ParseRecords(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse csv: %v\n", err)
		return 1
	}
	fmt.Printf("parsed %d records (%d rows dropped)\n", len(records), dropped)
	if len(records) == 0 {
		parsePhase.errorf("no usable records")
	}

	ds, err := domain.NewDataset(records)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: normalize dataset: %v\n", err)
		return 1
	}
	fmt.Printf("baseline window %d-%d: %d years\n", domain.BaselineStartYear, domain.BaselineEndYear, ds.Baseline.Years)
	fmt.Println()

	phases := []*phase{
		parsePhase,
		validateBaseline(ds),
		validateHistograms(ds, bins),
		validateFit(ds, fit),
		validateForecast(ds, fit, analogs),
	}

	allPassed := true
	for _, p := range phases {
		if p.passed() {
			fmt.Printf("PASS %s\n", p.name)
			continue
		}
		allPassed = false
		fmt.Printf("FAIL %s\n", p.name)
		for _, e := range p.errors {
			fmt.Printf("  - %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	fmt.Println()
	fmt.Println("all checks passed")
	return 0
}

// validateBaseline checks that each percent series averages 100 over the
// baseline window, which is what dividing by the window mean guarantees.
func validateBaseline(ds *domain.Dataset) *phase {
	p := &phase{name: "baseline normalization"}

	series := map[string]func(domain.YearRecord) float64{
		"swe":                 func(r domain.YearRecord) float64 { return r.SWEPct },
		"fall_soil_moisture":  func(r domain.YearRecord) float64 { return r.FallSoilMoisturePct },
		"spring_precip":       func(r domain.YearRecord) float64 { return r.SpringPrecipPct },
		"seasonal_streamflow": func(r domain.YearRecord) float64 { return r.SeasonalStreamflowPct },
		"total_streamflow":    func(r domain.YearRecord) float64 { return r.TotalStreamflowPct },
	}

	for name, pct := range series {
		sum, n := 0.0, 0
		for _, r := range ds.Records {
			if r.Year < domain.BaselineStartYear || r.Year > domain.BaselineEndYear {
				continue
			}
			sum += pct(r)
			n++
		}
		if n == 0 {
			p.errorf("%s: no baseline years", name)
			continue
		}
		if mean := sum / float64(n); math.Abs(mean-100) > 0.01 {
			p.errorf("%s: baseline percent mean %.4f, want 100", name, mean)
		}
	}
	return p
}

// validateHistograms checks that binning conserves the record count for
// every percent series the service exposes.
func validateHistograms(ds *domain.Dataset, bins int) *phase {
	p := &phase{name: "histogram conservation"}

	series := map[string]func(domain.YearRecord) float64{
		"swe_pct":                 func(r domain.YearRecord) float64 { return r.SWEPct },
		"fall_soil_moisture_pct":  func(r domain.YearRecord) float64 { return r.FallSoilMoisturePct },
		"spring_precip_pct":       func(r domain.YearRecord) float64 { return r.SpringPrecipPct },
		"seasonal_streamflow_pct": func(r domain.YearRecord) float64 { return r.SeasonalStreamflowPct },
	}

	for name, pct := range series {
		values := make([]float64, len(ds.Records))
		for i, r := range ds.Records {
			values[i] = pct(r)
		}
		total := 0
		for _, b := range domain.ComputeHistogram(values, bins) {
			total += b.Count
		}
		if total != len(ds.Records) {
			p.errorf("%s: %d values binned to %d counts", name, len(ds.Records), total)
		}
	}
	return p
}

// validateFit checks that fitting is deterministic and produces finite
// coefficients.
func validateFit(ds *domain.Dataset, fit domain.FitStrategy) *phase {
	p := &phase{name: "fit " + fit.Name()}

	m1, err := fit.Fit(ds)
	if err != nil {
		p.errorf("fit failed: %v", err)
		return p
	}
	m2, err := fit.Fit(ds)
	if err != nil {
		p.errorf("refit failed: %v", err)
		return p
	}
	if m1 != m2 {
		p.errorf("fit is not deterministic: %+v vs %+v", m1, m2)
	}
	for name, c := range map[string]float64{
		"swe": m1.SWE, "fall_soil_moisture": m1.FallSoilMoisture, "spring_precip": m1.SpringPrecip,
	} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			p.errorf("%s coefficient is not finite: %v", name, c)
		}
	}
	fmt.Printf("coefficients: swe=%.4f fall_sm=%.4f spring_precip=%.4f\n",
		m1.SWE, m1.FallSoilMoisture, m1.SpringPrecip)
	return p
}

// validateForecast checks the identity property: an all-100 input forecasts
// 100 percent of baseline, modulo range clamping.
func validateForecast(ds *domain.Dataset, fit domain.FitStrategy, analogs domain.AnalogPolicy) *phase {
	p := &phase{name: "identity forecast"}

	model, err := fit.Fit(ds)
	if err != nil {
		p.errorf("fit failed: %v", err)
		return p
	}

	input := domain.ForecastInput{SWEPct: 100, FallSoilMoisturePct: 100, SpringPrecipPct: 100}
	result := domain.ComputeForecast(ds, model, analogs, input)

	if math.Abs(result.RawPercent-100) > 1e-9 {
		p.errorf("identity input gave raw percent %.6f, want 100", result.RawPercent)
	}
	want := ds.Ranges.SeasonalStreamflowPct.Clamp(100)
	if math.Abs(result.PercentOfBaseline-want) > 1e-9 {
		p.errorf("identity input gave %.6f percent of baseline, want %.6f", result.PercentOfBaseline, want)
	}
	if len(result.AnalogYears) > domain.MaxAnalogYears {
		p.errorf("analog list length %d exceeds %d", len(result.AnalogYears), domain.MaxAnalogYears)
	}
	return p
}
