package indicators

import "math"

// RSI computes the relative strength index with Wilder smoothing.
// The first p values are undefined. Defined as 100 when the average loss
// is zero (strictly rising series), avoiding the divide-by-zero.
func RSI(x []float64, p int) []float64 {
	n := len(x)
	if p <= 0 || n <= p {
		return nans(n)
	}
	out := nans(n)

	var avgGain, avgLoss float64
	for i := 1; i <= p; i++ {
		d := x[i] - x[i-1]
		if d > 0 {
			avgGain += d
		} else {
			avgLoss += -d
		}
	}
	avgGain /= float64(p)
	avgLoss /= float64(p)
	out[p] = rsiValue(avgGain, avgLoss)

	for i := p + 1; i < n; i++ {
		d := x[i] - x[i-1]
		gain, loss := 0.0, 0.0
		if d > 0 {
			gain = d
		} else {
			loss = -d
		}
		avgGain = (avgGain*float64(p-1) + gain) / float64(p)
		avgLoss = (avgLoss*float64(p-1) + loss) / float64(p)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	return 100 - 100/(1+avgGain/avgLoss)
}

// StochRSI rescales RSI to 0–100 within its trailing p-window range.
// Defined once a full window of valid RSI values exists; 50 when the
// window range collapses to zero.
func StochRSI(x []float64, p int) []float64 {
	n := len(x)
	rsi := RSI(x, p)
	out := nans(n)
	for i := range rsi {
		if i < p-1 || !Valid(rsi[i]) || !Valid(rsi[i-p+1]) {
			continue
		}
		lo, hi := rsi[i], rsi[i]
		for j := i - p + 1; j <= i; j++ {
			lo = math.Min(lo, rsi[j])
			hi = math.Max(hi, rsi[j])
		}
		if hi == lo {
			out[i] = 50
			continue
		}
		out[i] = 100 * (rsi[i] - lo) / (hi - lo)
	}
	return out
}

// MACDResult bundles the three MACD series, all aligned with the input.
type MACDResult struct {
	Line      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes fast EMA minus slow EMA as the line, an EMA of the valid
// line values as the signal, and line minus signal as the histogram.
// The signal warm-up stacks on top of the slow-EMA warm-up.
func MACD(x []float64, fast, slow, signal int) MACDResult {
	n := len(x)
	emaFast := EMA(x, fast)
	emaSlow := EMA(x, slow)

	line := nans(n)
	valid := make([]float64, 0, n)
	validIdx := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if Valid(emaFast[i]) && Valid(emaSlow[i]) {
			line[i] = emaFast[i] - emaSlow[i]
			valid = append(valid, line[i])
			validIdx = append(validIdx, i)
		}
	}

	sig := nans(n)
	for j, v := range EMA(valid, signal) {
		if Valid(v) {
			sig[validIdx[j]] = v
		}
	}

	hist := nans(n)
	for i := 0; i < n; i++ {
		if Valid(line[i]) && Valid(sig[i]) {
			hist[i] = line[i] - sig[i]
		}
	}
	return MACDResult{Line: line, Signal: sig, Histogram: hist}
}
