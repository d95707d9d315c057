package indicators

import "math"

// Indicators are pure functions over price series. Every function returns a
// slice aligned index-by-index with its input, with NaN marking positions
// where not enough history exists yet. Callers must check Valid before use.

// Valid reports whether an indicator value is defined.
func Valid(v float64) bool {
	return !math.IsNaN(v)
}

// nans returns a slice of n undefined values.
func nans(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// SMA returns the arithmetic mean over the trailing p values.
// Undefined for indices < p-1.
func SMA(x []float64, p int) []float64 {
	if p <= 0 {
		return nans(len(x))
	}
	out := make([]float64, len(x))
	var sum float64
	for i := range x {
		sum += x[i]
		if i < p-1 {
			out[i] = math.NaN()
			continue
		}
		if i >= p {
			sum -= x[i-p]
		}
		out[i] = sum / float64(p)
	}
	return out
}

// EMA seeds with SMA(p) at index p-1, then applies the standard
// recurrence with smoothing k = 2/(p+1).
func EMA(x []float64, p int) []float64 {
	if p <= 0 || len(x) < p {
		return nans(len(x))
	}
	out := make([]float64, len(x))
	k := 2.0 / float64(p+1)

	var seed float64
	for i := 0; i < p; i++ {
		seed += x[i]
		out[i] = math.NaN()
	}
	out[p-1] = seed / float64(p)
	for i := p; i < len(x); i++ {
		out[i] = x[i]*k + out[i-1]*(1-k)
	}
	return out
}

// MeanStd returns the rolling mean and population standard deviation over
// window p. Both undefined for indices < p-1.
func MeanStd(x []float64, p int) (mean, std []float64) {
	n := len(x)
	if p <= 0 {
		return nans(n), nans(n)
	}
	mean = make([]float64, n)
	std = make([]float64, n)

	var sum, sum2 float64
	for i := 0; i < n; i++ {
		sum += x[i]
		sum2 += x[i] * x[i]
		if i < p-1 {
			mean[i] = math.NaN()
			std[i] = math.NaN()
			continue
		}
		if i >= p {
			sum -= x[i-p]
			sum2 -= x[i-p] * x[i-p]
		}
		m := sum / float64(p)
		v := sum2/float64(p) - m*m
		if v < 0 {
			v = 0 // float cancellation
		}
		mean[i] = m
		std[i] = math.Sqrt(v)
	}
	return mean, std
}
