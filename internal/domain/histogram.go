package domain

import "math"

// DefaultBinCount is the bin count used for slider background histograms.
const DefaultBinCount = 15

// minBinSpan is the series width below which all values are treated as
// identical and the histogram collapses to a single synthetic bin.
const minBinSpan = 1e-9

// Bin is one fixed-width bucket of a Histogram. Value is the bin midpoint,
// the representative x position for rendering.
type Bin struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

// Histogram is an ordered sequence of equal-width bins over one series.
type Histogram []Bin

// ComputeHistogram partitions a series into binCount equal-width bins
// spanning [min, max]. Bins are conceptually half-open; the series maximum
// is absorbed into the last bin by clamping the floor-division index. An
// empty series (or non-positive binCount) yields nil, and a series of
// identical values yields one unit-width bin centered on that value.
// Order-independent and pure.
func ComputeHistogram(series []float64, binCount int) Histogram {
	if len(series) == 0 || binCount <= 0 {
		return nil
	}

	low, high := series[0], series[0]
	for _, v := range series[1:] {
		if v < low {
			low = v
		}
		if v > high {
			high = v
		}
	}

	if high-low < minBinSpan {
		return Histogram{{Start: low - 0.5, End: low + 0.5, Count: len(series), Value: low}}
	}

	width := (high - low) / float64(binCount)
	bins := make(Histogram, binCount)
	for i := range bins {
		start := low + float64(i)*width
		bins[i] = Bin{Start: start, End: start + width, Value: start + width/2}
	}

	for _, v := range series {
		i := int(math.Floor((v - low) / width))
		if i >= binCount {
			i = binCount - 1 // top edge inclusive
		}
		if i < 0 {
			i = 0
		}
		bins[i].Count++
	}
	return bins
}
