// Package stats aggregates per-item sizes and similarity scores across a
// batch and summarises them once the batch drains.
package stats

import (
	"math"
	"slices"
)

// Distribution summarises a sample. When Available is false the sample was
// empty and every other field is zero.
type Distribution struct {
	Available bool
	Count     int
	Max       float64
	Min       float64
	Mean      float64
	Median    float64
	StdDev    float64
}

// Describe computes max, min, mean, median and population standard
// deviation of values. values is not modified. Sums run over a sorted
// copy, so the result depends only on the multiset of values and not on
// the order they were recorded in.
func Describe(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}

	s := slices.Clone(values)
	slices.Sort(s)

	d := Distribution{
		Available: true,
		Count:     len(s),
		Min:       s[0],
		Max:       s[len(s)-1],
		Median:    medianSorted(s),
	}
	d.Mean = sum(s) / float64(len(s))
	d.StdDev = stdDevAround(s, d.Mean)
	return d
}

// Median sorts a copy of values; an even-length sample averages the two
// central elements. It returns NaN for an empty sample.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	s := slices.Clone(values)
	slices.Sort(s)
	return medianSorted(s)
}

func medianSorted(s []float64) float64 {
	mid := len(s) / 2
	if len(s)%2 == 0 {
		return (s[mid-1] + s[mid]) / 2
	}
	return s[mid]
}

// StdDev is the population standard deviation. It returns NaN for an
// empty sample.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return Describe(values).StdDev
}

func sum(sorted []float64) float64 {
	total := 0.0
	for _, v := range sorted {
		total += v
	}
	return total
}

func stdDevAround(sorted []float64, mean float64) float64 {
	variance := 0.0
	for _, v := range sorted {
		d := v - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(sorted)))
}

// DeltaPercent is the relative change from original to transformed in
// percent; negative values are savings. ok is false when original is 0.
func DeltaPercent(original, transformed uint64) (delta float64, ok bool) {
	if original == 0 {
		return 0, false
	}
	return (float64(transformed) - float64(original)) / float64(original) * 100, true
}
