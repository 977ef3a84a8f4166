package stats

import "math"

// Mean calculates the arithmetic mean of a slice of float64 values
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

// FilterMin returns the values greater than or equal to floor
func FilterMin(values []float64, floor float64) []float64 {
	filtered := make([]float64, 0, len(values))
	for _, v := range values {
		if v >= floor {
			filtered = append(filtered, v)
		}
	}
	return filtered
}

// Round rounds half away from zero to the given number of decimals
func Round(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}
