package service

import (
	"math"
	"sort"
)

// Mean returns the arithmetic mean of values; 0 for an empty slice.
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

// Percentile returns the q-th percentile (0..100) of sorted values using
// linear interpolation between closest ranks.
func Percentile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	rank := q / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Median returns the median of values. Infinities participate by ordering,
// so a series that mostly never breaks even yields +Inf.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// BuildIRRHistogram bins values into bins buckets laid out the way the
// exporter reconstructs them: width (p95-p5)/bins, starting one width below
// p5. Out-of-range values clamp to the edge bins so every value is counted.
func BuildIRRHistogram(values []float64, p5, p95 float64, bins int) []int {
	hist := make([]int, bins)
	if len(values) == 0 {
		return hist
	}
	width := (p95 - p5) / float64(bins)
	if width <= 0 {
		// Degenerate distribution: everything lands in the first bin.
		hist[0] = len(values)
		return hist
	}
	start := p5 - width
	for _, v := range values {
		idx := int(math.Floor((v - start) / width))
		if idx < 0 {
			idx = 0
		}
		if idx >= bins {
			idx = bins - 1
		}
		hist[idx]++
	}
	return hist
}
