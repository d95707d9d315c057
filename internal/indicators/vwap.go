package indicators

import "math"

// VWAP returns the rolling volume-weighted average price over window p,
// using typical price (H+L+C)/3. Undefined during warm-up and wherever the
// window volume sums to zero.
func VWAP(highs, lows, closes, volumes []float64, p int) []float64 {
	n := len(closes)
	if p <= 0 || n == 0 || len(highs) != n || len(lows) != n || len(volumes) != n {
		return nans(n)
	}
	out := make([]float64, n)
	var sumPV, sumV float64
	for i := 0; i < n; i++ {
		tp := (highs[i] + lows[i] + closes[i]) / 3.0
		sumPV += tp * volumes[i]
		sumV += volumes[i]

		if i < p-1 {
			out[i] = math.NaN()
			continue
		}
		if i >= p {
			tpOld := (highs[i-p] + lows[i-p] + closes[i-p]) / 3.0
			sumPV -= tpOld * volumes[i-p]
			sumV -= volumes[i-p]
		}
		if sumV <= 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sumPV / sumV
	}
	return out
}
