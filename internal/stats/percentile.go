package stats

import (
	"math"
	"sort"
)

// rankEpsilon absorbs float error in n*q so that e.g. 10*0.9 lands on rank 9
const rankEpsilon = 1e-9

// NormalizeQuantile accepts either a quantile (0-1] or a percentile (1-100]
// and returns the quantile. Non-positive and out-of-range inputs return false.
func NormalizeQuantile(p float64) (float64, bool) {
	if math.IsNaN(p) || p <= 0 || p > 100 {
		return 0, false
	}
	if p > 1 {
		return p / 100.0, true
	}
	return p, true
}

// nearestRankSorted returns the q-th quantile (0 < q <= 1) of values sorted ascending
// using the nearest-rank method: index = ceil(n*q) - 1
func nearestRankSorted(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q > 1 {
		q = 1
	}

	index := int(math.Ceil(float64(n)*q-rankEpsilon)) - 1
	if index < 0 {
		index = 0
	}
	if index > n-1 {
		index = n - 1
	}
	return sorted[index]
}

// NearestRanks calculates multiple quantiles with a single sort, leaving values untouched
func NearestRanks(values []float64, qs []float64) []float64 {
	results := make([]float64, len(qs))
	if len(values) == 0 {
		return results
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	for i, q := range qs {
		results[i] = nearestRankSorted(sorted, q)
	}
	return results
}
