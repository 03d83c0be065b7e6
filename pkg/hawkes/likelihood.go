package hawkes

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Likelihood evaluates the negative log-likelihood of a marked Hawkes process
// with a power-law kernel on a fixed event window.
//
// A Likelihood keeps scratch buffers and must not be shared between
// goroutines; build one per window fit.
type Likelihood struct {
	Times []float64
	Marks []float64

	// Horizon is the end T of the observation window [0, T]
	Horizon float64

	// C is the kernel offset
	C float64

	// Mu is the baseline intensity
	Mu float64

	weights []float64
	decay   []float64
	lags    []float64
}

func NewLikelihood(times, marks []float64, horizon, c, mu float64) *Likelihood {
	return &Likelihood{
		Times:   times,
		Marks:   marks,
		Horizon: horizon,
		C:       c,
		Mu:      mu,
		weights: make([]float64, len(times)),
		decay:   make([]float64, len(times)),
		lags:    make([]float64, len(times)),
	}
}

func (l *Likelihood) domainError(p Params) bool {
	return !(l.C > 0) || !(p.Theta > 0) || l.Mu < 0 || math.IsNaN(p.Beta) || math.IsNaN(p.Kappa) || l.Horizon < 0
}

// NegLogLikelihood returns -(sum_i log(lambda_i) - mu*T - compensator). The
// result is NaN when the parameters are outside the model domain or an
// intensity is not positive.
func (l *Likelihood) NegLogLikelihood(p Params) float64 {
	if l.domainError(p) {
		return math.NaN()
	}

	markWeights(l.weights, l.Marks, p.Beta)

	logSum := l.logSum(p)
	if math.IsNaN(logSum) {
		return math.NaN()
	}

	return -(logSum - l.Mu*l.Horizon - l.compensator(p))
}

// LogIntensitySum returns sum_i log(lambda_i).
func (l *Likelihood) LogIntensitySum(p Params) float64 {
	if l.domainError(p) {
		return math.NaN()
	}

	markWeights(l.weights, l.Marks, p.Beta)
	return l.logSum(p)
}

// Compensator returns the closed-form integral of the excitation part of the
// intensity over [0, T].
func (l *Likelihood) Compensator(p Params) float64 {
	if l.domainError(p) {
		return math.NaN()
	}

	markWeights(l.weights, l.Marks, p.Beta)
	return l.compensator(p)
}

// logSum expects l.weights to hold m^beta. The sum over the history of each
// event is O(i), which makes the loop O(n^2); a power-law kernel has no
// recursive form.
func (l *Likelihood) logSum(p Params) float64 {
	sum := 0.0
	for i, ti := range l.Times {
		excitation := 0.0
		if i > 0 {
			lags := l.lags[:i]
			for j, tj := range l.Times[:i] {
				lags[j] = ti - tj
			}

			history := l.decay[:i]
			if !lagDecay(history, lags, l.C, p.Theta) {
				return math.NaN()
			}
			excitation = p.Kappa * floats.Dot(l.weights[:i], history)
		}

		lambda := l.Mu + excitation
		if !(lambda > 0) {
			return math.NaN()
		}

		sum += math.Log(lambda)
	}

	return sum
}

// compensator expects l.weights to hold m^beta.
func (l *Likelihood) compensator(p Params) float64 {
	head := math.Pow(l.C, -p.Theta) / p.Theta
	for j, tj := range l.Times {
		base := l.Horizon + l.C - tj
		if base <= 0 {
			return math.NaN()
		}
		l.decay[j] = head - math.Pow(base, -p.Theta)/p.Theta
	}

	return p.Kappa * floats.Dot(l.weights, l.decay)
}
