package indicators

import "math"

// BollingerResult holds the three band series, aligned with the input.
type BollingerResult struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// Bollinger returns SMA(p) as the middle band and ±mult population standard
// deviations as upper/lower. Undefined for indices < p-1.
func Bollinger(x []float64, p int, mult float64) BollingerResult {
	mean, std := MeanStd(x, p)
	n := len(x)
	upper := nans(n)
	lower := nans(n)
	for i := 0; i < n; i++ {
		if Valid(mean[i]) {
			upper[i] = mean[i] + mult*std[i]
			lower[i] = mean[i] - mult*std[i]
		}
	}
	return BollingerResult{Upper: upper, Middle: mean, Lower: lower}
}

// ATR computes the average true range with Wilder smoothing over highs, lows
// and closes of equal length. Undefined for indices < p-1.
func ATR(highs, lows, closes []float64, p int) []float64 {
	n := len(closes)
	if p <= 0 || n == 0 || len(highs) != n || len(lows) != n || n < p {
		return nans(n)
	}
	tr := make([]float64, n)
	tr[0] = highs[0] - lows[0]
	for i := 1; i < n; i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	out := nans(n)
	var seed float64
	for i := 0; i < p; i++ {
		seed += tr[i]
	}
	out[p-1] = seed / float64(p)
	for i := p; i < n; i++ {
		out[i] = (out[i-1]*float64(p-1) + tr[i]) / float64(p)
	}
	return out
}
