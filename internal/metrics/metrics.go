// Package metrics provides the small numeric helpers shared by every scorer:
// safe percentages, rounding, clamping and weighted averages.
package metrics

import (
	"math"

	"github.com/rotisserie/eris"
)

// Percent returns part/whole as a percentage, or 0 when whole <= 0.
func Percent(part, whole int) float64 {
	return PercentOr(part, whole, 0)
}

// PercentOr returns part/whole as a percentage, or fallback when whole <= 0.
func PercentOr(part, whole int, fallback float64) float64 {
	if whole <= 0 {
		return fallback
	}
	return float64(part) / float64(whole) * 100
}

// Round rounds v half away from zero to the given number of decimal places.
func Round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}

// Clamp bounds v to [lo, hi]. NaN clamps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// WeightedAverage returns Σ(v·w)/Σw. It returns 0 when the weights sum to
// zero or less.
func WeightedAverage(values, weights []float64) (float64, error) {
	if len(values) != len(weights) {
		return 0, eris.Errorf("metrics: %d values but %d weights", len(values), len(weights))
	}
	var num, den float64
	for i, v := range values {
		num += v * weights[i]
		den += weights[i]
	}
	if den <= 0 {
		return 0, nil
	}
	return num / den, nil
}
