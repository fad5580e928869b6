package ranking

import "math"

// geoMean returns the compounded average of (1 + r) values minus 1.
func geoMean(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	prod := 1.0
	for _, r := range returns {
		prod *= 1 + r
	}
	return math.Pow(prod, 1/float64(len(returns))) - 1
}

// arithMean returns the simple average.
func arithMean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stdDev returns the standard deviation. With sample set the variance is
// divided by n-1, otherwise by n.
func stdDev(xs []float64, sample bool) float64 {
	n := len(xs)
	if n == 0 || (sample && n < 2) {
		return 0
	}

	mean := arithMean(xs)
	ss := 0.0
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}

	div := float64(n)
	if sample {
		div = float64(n - 1)
	}
	return math.Sqrt(ss / div)
}

// cumulative returns the compounded total return of the sequence.
func cumulative(returns []float64) float64 {
	prod := 1.0
	for _, r := range returns {
		prod *= 1 + r
	}
	return prod - 1
}
