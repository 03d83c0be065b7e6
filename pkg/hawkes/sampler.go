package hawkes

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// components at or below this value count as degenerate
	degenerateComponent = 1e-3

	DefaultMaxRedraws = 1000000
)

var ErrSamplerExhausted = errors.New("no acceptable initial guess found")

// Sampler draws the initial guesses of the multi-start fit from [0,1)^3.
//
// A draw is redrawn only when its branching ratio exceeds one AND one of its
// components is degenerate. This mirrors the production screening rule as
// it was run, even though rejecting on either condition looks like the
// intent.
//
// A Sampler is not safe for concurrent use; all guesses of a run are drawn
// before any task is dispatched.
type Sampler struct {
	C     float64
	Alpha float64

	// MaxRedraws bounds the rejection loop per guess, zero means unbounded
	MaxRedraws int

	uniform distuv.Uniform
}

func NewSampler(seed uint64, c, alpha float64) *Sampler {
	return &Sampler{
		C:          c,
		Alpha:      alpha,
		MaxRedraws: DefaultMaxRedraws,
		uniform: distuv.Uniform{
			Min: 0,
			Max: 1,
			Src: rand.NewSource(seed),
		},
	}
}

func (s *Sampler) draw() Params {
	return Params{
		Beta:  s.uniform.Rand(),
		Kappa: s.uniform.Rand(),
		Theta: s.uniform.Rand(),
	}
}

// Rejected reports whether the screening rule redraws the guess.
func (s *Sampler) Rejected(p Params) bool {
	degenerate := p.Beta <= degenerateComponent || p.Kappa <= degenerateComponent || p.Theta <= degenerateComponent
	return BranchingRatio(p, s.C, s.Alpha) > 1 && degenerate
}

// Next returns the next accepted guess.
func (s *Sampler) Next() (Params, error) {
	guess := s.draw()
	for redraws := 0; s.Rejected(guess); redraws++ {
		if s.MaxRedraws > 0 && redraws >= s.MaxRedraws {
			return Params{}, errors.Wrapf(ErrSamplerExhausted, "after %d redraws", redraws)
		}

		guess = s.draw()
	}

	return guess, nil
}

// Sample returns n accepted guesses in draw order.
func (s *Sampler) Sample(n int) ([]Params, error) {
	guesses := make([]Params, 0, n)
	for i := 0; i < n; i++ {
		guess, err := s.Next()
		if err != nil {
			return nil, errors.Wrapf(err, "guess #%d", i)
		}

		guesses = append(guesses, guess)
	}

	return guesses, nil
}
