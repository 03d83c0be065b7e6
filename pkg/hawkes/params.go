package hawkes

import (
	"fmt"
	"math"

	"github.com/c9s/hawkes/pkg/solver"
)

const (
	// DefaultAlpha is the tail exponent of the power-law mark distribution
	DefaultAlpha = 2.016

	// DefaultC is the kernel offset in seconds used by the production runs
	DefaultC = 30.0

	DefaultWindowSize = 5000
	DefaultRuns       = 50
	DefaultSeed       = 11111

	// lower bound of every fitted parameter
	parameterFloor = 1e-6

	// upper bound of kappa and theta
	parameterCeiling = 2.5
)

// Params is the fitted (beta, kappa, theta) triple of the power-law kernel.
type Params struct {
	Beta  float64 `json:"beta" yaml:"beta"`
	Kappa float64 `json:"kappa" yaml:"kappa"`
	Theta float64 `json:"theta" yaml:"theta"`
}

func ParamsFromSlice(x []float64) Params {
	return Params{Beta: x[0], Kappa: x[1], Theta: x[2]}
}

// NaNParams marks a window whose fit failed.
func NaNParams() Params {
	return Params{Beta: math.NaN(), Kappa: math.NaN(), Theta: math.NaN()}
}

func (p Params) Slice() []float64 {
	return []float64{p.Beta, p.Kappa, p.Theta}
}

// IsNaN reports whether any component is NaN.
func (p Params) IsNaN() bool {
	return math.IsNaN(p.Beta) || math.IsNaN(p.Kappa) || math.IsNaN(p.Theta)
}

// Equal compares two triples, NaN triples are equal to each other.
func (p Params) Equal(o Params) bool {
	eq := func(a, b float64) bool {
		return a == b || (math.IsNaN(a) && math.IsNaN(b))
	}
	return eq(p.Beta, o.Beta) && eq(p.Kappa, o.Kappa) && eq(p.Theta, o.Theta)
}

func (p Params) String() string {
	return fmt.Sprintf("(beta=%g, kappa=%g, theta=%g)", p.Beta, p.Kappa, p.Theta)
}

// Bounds holds the box constraint of each parameter.
type Bounds struct {
	Beta  solver.Bound `json:"beta" yaml:"beta"`
	Kappa solver.Bound `json:"kappa" yaml:"kappa"`
	Theta solver.Bound `json:"theta" yaml:"theta"`
}

// DefaultBounds keeps beta below alpha-1, where the mean of m^beta diverges.
func DefaultBounds(alpha float64) Bounds {
	return Bounds{
		Beta:  solver.Bound{Min: parameterFloor, Max: alpha - 1},
		Kappa: solver.Bound{Min: parameterFloor, Max: parameterCeiling},
		Theta: solver.Bound{Min: parameterFloor, Max: parameterCeiling},
	}
}

func (b Bounds) Slice() []solver.Bound {
	return []solver.Bound{b.Beta, b.Kappa, b.Theta}
}

func (b Bounds) Valid() bool {
	return b.Beta.Valid() && b.Kappa.Valid() && b.Theta.Valid()
}
