package engine

import (
	"math"
	"math/rand"

	"github.com/alejandrodnm/simtrader/internal/domain"
)

const (
	lookaheadWindow    = 20   // recent closes used to estimate mean/vol
	lookaheadThreshold = 0.02 // path label cutoff
)

// lookahead simulates independent multi-step price projections from the
// historical mean return and volatility of the recent closes. Each path
// compounds mean return plus a volatility-scaled symmetric shock per step.
func lookahead(rng *rand.Rand, closes []float64, paths, steps int) []domain.LookaheadSample {
	mean, vol := estimateReturns(closes)

	out := make([]domain.LookaheadSample, 0, paths)
	for p := 0; p < paths; p++ {
		growth := 1.0
		for s := 0; s < steps; s++ {
			shock := (rng.Float64()*2 - 1) * vol
			growth *= 1 + mean + shock
		}
		ret := growth - 1
		out = append(out, domain.LookaheadSample{Return: ret, Label: labelPath(ret)})
	}
	return out
}

func labelPath(ret float64) domain.PathLabel {
	switch {
	case ret > lookaheadThreshold:
		return domain.PathBullish
	case ret < -lookaheadThreshold:
		return domain.PathBearish
	default:
		return domain.PathNeutral
	}
}

// estimateReturns derives the per-bar mean return and population volatility
// from the trailing lookahead window. Too little history degrades to a
// flat, mildly noisy projection instead of failing.
func estimateReturns(closes []float64) (mean, vol float64) {
	if len(closes) > lookaheadWindow+1 {
		closes = closes[len(closes)-lookaheadWindow-1:]
	}
	if len(closes) < 3 {
		return 0, 0.01
	}

	rets := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] > 0 {
			rets = append(rets, (closes[i]-closes[i-1])/closes[i-1])
		}
	}
	if len(rets) < 2 {
		return 0, 0.01
	}

	for _, r := range rets {
		mean += r
	}
	mean /= float64(len(rets))

	for _, r := range rets {
		d := r - mean
		vol += d * d
	}
	vol = math.Sqrt(vol / float64(len(rets)))
	if vol == 0 {
		vol = 0.001
	}
	return mean, vol
}
