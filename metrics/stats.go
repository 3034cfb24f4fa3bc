package metrics

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean, 0 for no values.
func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// StdDev returns the population standard deviation, 0 for no values.
func StdDev(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	mean := Mean(vals)
	var ss float64
	for _, v := range vals {
		ss += (v - mean) * (v - mean)
	}
	return math.Sqrt(ss / float64(len(vals)))
}

// Median is Percentile(vals, 50).
func Median(vals []float64) float64 { return Percentile(vals, 50) }

// Percentile returns the p-th percentile using linear interpolation between
// the order statistics at rank p/100*(n-1). It returns 0 for no values.
func Percentile(vals []float64, p float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	p = math.Min(math.Max(p, 0), 100)
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(rank-float64(lo))
}

// Summary groups the descriptive statistics reported for a series.
type Summary struct {
	Mean   float64 `json:"mean" yaml:"mean"`
	Median float64 `json:"median" yaml:"median"`
	P95    float64 `json:"p95" yaml:"p95"`
}

// Summarize computes mean, median and p95.
func Summarize(vals []float64) Summary {
	return Summary{Mean: Mean(vals), Median: Median(vals), P95: Percentile(vals, 95)}
}

// GapSummary is Summary plus the count of negative gaps.
type GapSummary struct {
	Summary  `yaml:",inline"`
	Negative int `json:"negative_count" yaml:"negative_count"`
}

// SummarizeGaps computes the gap statistics. Negative gaps indicate
// overlapping rather than sequential speech.
func SummarizeGaps(gaps []float64) GapSummary {
	s := GapSummary{Summary: Summarize(gaps)}
	for _, g := range gaps {
		if g < 0 {
			s.Negative++
		}
	}
	return s
}
