package solver

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/optimize"
)

const (
	initialBarrierWeight = 0.1
	barrierShrink        = 10.0
)

// barrierStrategy is an interior-point scheme: the bound constraints are
// folded into the objective as a logarithmic barrier whose weight shrinks
// geometrically until it drops below the tolerance. Each inner problem is
// solved with Nelder-Mead, which never needs to evaluate outside the
// interior once it starts there.
type barrierStrategy struct {
	settings Settings
}

func (s *barrierStrategy) Method() Method {
	return InteriorPoint
}

func (s *barrierStrategy) Minimize(f Objective, x0 []float64, bounds []Bound) (*Result, error) {
	if err := checkBounds(x0, bounds); err != nil {
		return nil, err
	}

	obj := finite(f)
	x := clampInside(x0, bounds)
	iterations := 0
	status := ""

	for weight := initialBarrierWeight; ; weight /= barrierShrink {
		w := weight
		barrier := func(x []float64) float64 {
			penalty := 0.0
			for i, b := range bounds {
				lo, hi := x[i]-b.Min, b.Max-x[i]
				if lo <= 0 || hi <= 0 {
					return math.Inf(1)
				}
				penalty -= math.Log(lo) + math.Log(hi)
			}
			return obj(x) + w*penalty
		}

		remaining := s.settings.MaxIterations - iterations
		if remaining <= 0 {
			break
		}

		settings := gonumSettings(s.settings)
		settings.MajorIterations = remaining

		res, err := minimize(optimize.Problem{Func: barrier}, x, settings, &optimize.NelderMead{})
		if err != nil {
			return nil, errors.Wrapf(err, "%s failed at barrier weight %g", InteriorPoint, w)
		}

		x = res.X
		iterations += res.Stats.MajorIterations
		status = res.Status.String()

		if weight < s.settings.Tolerance {
			break
		}
	}

	fx := f(x)
	if math.IsNaN(fx) || math.IsInf(fx, 0) {
		return nil, errors.Wrapf(ErrNonFinite, "%s stopped with status %s", InteriorPoint, status)
	}

	log.Debugf("%s finished: status=%s iterations=%d f=%v", InteriorPoint, status, iterations, fx)

	return &Result{
		X:          x,
		F:          fx,
		Iterations: iterations,
		Status:     status,
	}, nil
}
