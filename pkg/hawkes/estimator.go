package hawkes

import (
	"math"

	"github.com/pkg/errors"

	"github.com/c9s/hawkes/pkg/solver"
)

var ErrDegenerateWindow = errors.New("window has zero duration")

// Window is one rebased slice of the series handed to an Estimator.
type Window struct {
	// Index counts rolling-window iterations, including skipped ones
	Index int

	// Start is the offset of the first event in the full series
	Start int

	Times []float64
	Marks []float64
	Posts []bool

	// Duration is the last rebased timestamp, used as the horizon T
	Duration float64

	// Mu is the baseline rate: post count / duration
	Mu float64
}

//go:generate mockgen -destination=mocks/mock_estimator.go -package=mocks . Estimator

// Estimator fits the kernel parameters of a single window. A returned error
// is a recoverable failure of that window only.
type Estimator interface {
	Estimate(w Window, guess Params) (Params, float64, error)
}

// MLE maximizes the window likelihood with a solver backend.
type MLE struct {
	Strategy solver.Strategy
	Bounds   Bounds
	C        float64
}

func NewMLE(method solver.Method, settings solver.Settings, bounds Bounds, c float64) (*MLE, error) {
	strategy, err := solver.New(method, settings)
	if err != nil {
		return nil, err
	}

	return &MLE{
		Strategy: strategy,
		Bounds:   bounds,
		C:        c,
	}, nil
}

// Estimate returns the fitted parameters and the log-likelihood at the optimum.
func (e *MLE) Estimate(w Window, guess Params) (Params, float64, error) {
	if !IsMonotonic(w.Times) {
		return NaNParams(), math.NaN(), ErrNonMonotonic
	}

	if !(w.Duration > 0) {
		return NaNParams(), math.NaN(), errors.Wrapf(ErrDegenerateWindow, "window #%d", w.Index)
	}

	likelihood := NewLikelihood(w.Times, w.Marks, w.Duration, e.C, w.Mu)
	objective := func(x []float64) float64 {
		return likelihood.NegLogLikelihood(ParamsFromSlice(x))
	}

	res, err := e.Strategy.Minimize(objective, guess.Slice(), e.Bounds.Slice())
	if err != nil {
		return NaNParams(), math.NaN(), err
	}

	return ParamsFromSlice(res.X), -res.F, nil
}
