package solver

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

var log = logrus.WithField("component", "solver")

const (
	DefaultTolerance     = 1e-6
	DefaultMaxIterations = 1000

	// number of major iterations without an improvement larger than the
	// tolerance before a run is considered converged
	stallIterations = 20

	// caps function evaluations, line searches on infeasible regions would
	// otherwise never count against the major iteration limit
	evaluationsPerIteration = 100
)

var (
	ErrNonFinite     = errors.New("solver: objective is not finite at the optimum")
	ErrInvalidBounds = errors.New("solver: invalid bounds")
	ErrDimension     = errors.New("solver: dimension mismatch")
)

// Objective is minimized by a Strategy. It may return NaN or ±Inf for
// infeasible points.
type Objective func(x []float64) float64

type Bound struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

func (b Bound) Valid() bool {
	return !math.IsNaN(b.Min) && !math.IsNaN(b.Max) && !math.IsInf(b.Min, 0) && !math.IsInf(b.Max, 0) && b.Min < b.Max
}

func (b Bound) Contains(x float64) bool {
	return x >= b.Min && x <= b.Max
}

// Settings are shared by every backend so that fits produced by different
// methods stay comparable.
type Settings struct {
	Tolerance     float64 `json:"tolerance" yaml:"tolerance"`
	MaxIterations int     `json:"maxIterations" yaml:"maxIterations"`
}

var DefaultSettings = Settings{
	Tolerance:     DefaultTolerance,
	MaxIterations: DefaultMaxIterations,
}

type Result struct {
	X          []float64
	F          float64
	Iterations int
	Status     string
}

// Strategy is a single local-search backend.
type Strategy interface {
	Method() Method
	Minimize(f Objective, x0 []float64, bounds []Bound) (*Result, error)
}

// New returns the strategy implementing the given method.
func New(method Method, settings Settings) (Strategy, error) {
	if settings.Tolerance <= 0 {
		settings.Tolerance = DefaultTolerance
	}

	if settings.MaxIterations <= 0 {
		settings.MaxIterations = DefaultMaxIterations
	}

	switch method {
	case TrustRegion:
		return &transformedStrategy{
			method:   method,
			settings: settings,
			hessian:  true,
			newMethod: func() optimize.Method {
				return &optimize.Newton{}
			},
		}, nil

	case SequentialQuadratic:
		return &transformedStrategy{
			method:   method,
			settings: settings,
			newMethod: func() optimize.Method {
				return &optimize.BFGS{Linesearcher: &optimize.MoreThuente{}}
			},
		}, nil

	case BoundedQuasiNewton:
		return &transformedStrategy{
			method:   method,
			settings: settings,
			newMethod: func() optimize.Method {
				return &optimize.LBFGS{Linesearcher: &optimize.MoreThuente{}}
			},
		}, nil

	case InteriorPoint:
		return &barrierStrategy{settings: settings}, nil
	}

	return nil, fmt.Errorf("unsupported solver method %s", method)
}

func checkBounds(x0 []float64, bounds []Bound) error {
	if len(x0) != len(bounds) {
		return errors.Wrapf(ErrDimension, "got %d initial values and %d bounds", len(x0), len(bounds))
	}

	for i, b := range bounds {
		if !b.Valid() {
			return errors.Wrapf(ErrInvalidBounds, "bound #%d: [%v, %v]", i, b.Min, b.Max)
		}
	}

	return nil
}

// finite replaces NaN and -Inf values with +Inf so that line searches treat
// them as infeasible steps.
func finite(f Objective) func(x []float64) float64 {
	return func(x []float64) float64 {
		v := f(x)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return math.Inf(1)
		}
		return v
	}
}

func minimize(problem optimize.Problem, x0 []float64, settings *optimize.Settings, method optimize.Method) (res *optimize.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("solver panic: %v", r)
		}
	}()

	return optimize.Minimize(problem, x0, settings, method)
}

// stalled reports a run that ended because the line search could not make
// progress. The best point found so far is still a valid local result.
func stalled(res *optimize.Result, err error) bool {
	if res == nil || len(res.X) == 0 {
		return false
	}

	return errors.Is(err, optimize.ErrLinesearcherFailure) || errors.Is(err, optimize.ErrNoProgress)
}

func gonumSettings(s Settings) *optimize.Settings {
	return &optimize.Settings{
		GradientThreshold: s.Tolerance,
		MajorIterations:   s.MaxIterations,
		FuncEvaluations:   s.MaxIterations * evaluationsPerIteration,
		Converger: &optimize.FunctionConverge{
			Absolute:   s.Tolerance,
			Iterations: stallIterations,
		},
	}
}

var centralDifference = &fd.Settings{Formula: fd.Central}

// transformedStrategy runs an unconstrained gonum method on a sine
// reparameterization of the box so that every evaluated point is feasible.
type transformedStrategy struct {
	method    Method
	settings  Settings
	hessian   bool
	newMethod func() optimize.Method
}

func (s *transformedStrategy) Method() Method {
	return s.method
}

func (s *transformedStrategy) Minimize(f Objective, x0 []float64, bounds []Bound) (*Result, error) {
	if err := checkBounds(x0, bounds); err != nil {
		return nil, err
	}

	box := newBoxTransform(bounds)
	obj := finite(f)
	x := make([]float64, len(x0))
	g := func(y []float64) float64 {
		return obj(box.toBox(x, y))
	}

	problem := optimize.Problem{
		Func: g,
		Grad: func(grad, y []float64) {
			fd.Gradient(grad, g, y, centralDifference)
		},
	}

	if s.hessian {
		problem.Hess = func(hess *mat.SymDense, y []float64) {
			fd.Hessian(hess, g, y, centralDifference)
		}
	}

	res, err := minimize(problem, box.fromBox(x0), gonumSettings(s.settings), s.newMethod())
	if err != nil {
		if !stalled(res, err) {
			return nil, errors.Wrapf(err, "%s failed", s.method)
		}
		log.Debugf("%s stalled, keeping the best point: %v", s.method, err)
	}

	xs := box.toBox(make([]float64, len(x0)), res.X)
	fx := f(xs)
	if math.IsNaN(fx) || math.IsInf(fx, 0) {
		return nil, errors.Wrapf(ErrNonFinite, "%s stopped with status %s", s.method, res.Status)
	}

	log.Debugf("%s finished: status=%s iterations=%d f=%v", s.method, res.Status, res.Stats.MajorIterations, fx)

	return &Result{
		X:          xs,
		F:          fx,
		Iterations: res.Stats.MajorIterations,
		Status:     res.Status.String(),
	}, nil
}
