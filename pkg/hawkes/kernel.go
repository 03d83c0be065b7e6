package hawkes

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// PowerLaw evaluates the excitation kernel
//
//	kappa * m^beta * (tau + c)^-(1+theta)
//
// for each (lag, mark) pair and stores it in dst, which is allocated when nil.
// Pairs with a non-positive base evaluate to NaN.
func PowerLaw(dst, lags, marks []float64, beta, c, kappa, theta float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(lags))
	}

	lagDecay(dst, lags, c, theta)
	floats.Mul(dst, markWeights(make([]float64, len(marks)), marks, beta))
	floats.Scale(kappa, dst)
	return dst
}

// lagDecay writes the time part of the kernel, (tau + c)^-(1+theta), into
// dst. It returns false when a base is not positive; those entries are NaN.
func lagDecay(dst, lags []float64, c, theta float64) bool {
	ok := true
	exponent := -(1 + theta)
	for i, tau := range lags {
		base := tau + c
		if base <= 0 {
			dst[i] = math.NaN()
			ok = false
			continue
		}

		dst[i] = math.Pow(base, exponent)
	}

	return ok
}

// markWeights computes m^beta once per parameter vector; the weights are
// reused by every step of the likelihood loop.
func markWeights(dst, marks []float64, beta float64) []float64 {
	for i, m := range marks {
		if m <= 0 {
			dst[i] = math.NaN()
			continue
		}
		dst[i] = math.Pow(m, beta)
	}
	return dst
}
