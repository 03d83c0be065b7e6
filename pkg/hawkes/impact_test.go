package hawkes

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBranchingFactor_MatchesBranchingRatio(t *testing.T) {
	for _, alpha := range []float64{1.5, DefaultAlpha, 3} {
		for _, beta := range []float64{0, 0.2, 0.5, 0.9} {
			for _, c := range []float64{0.5, 1, 30, 3600} {
				for _, kappa := range []float64{0.01, 0.3, 2.5} {
					for _, theta := range []float64{0.05, 0.5, 1, 2.5} {
						p := Params{Beta: beta, Kappa: kappa, Theta: theta}
						n := BranchingFactor(alpha, beta, c, kappa, theta)
						ratio := BranchingRatio(p, c, alpha)
						assert.InDelta(t, n, ratio, 1e-12*math.Max(1, math.Abs(n)), "p=%s c=%v alpha=%v", p, c, alpha)
					}
				}
			}
		}
	}
}

func TestBranchingFactor(t *testing.T) {
	n := BranchingFactor(DefaultAlpha, 0.1, 30, 0.5, 0.3)
	assert.InDelta(t, 0.6663625899279617, n, 1e-12)
}

func TestBranchingFactor_Undefined(t *testing.T) {
	assert.True(t, IsUndefined(BranchingFactor(2, 1, 30, 0.5, 0.3)))
	assert.True(t, IsUndefined(BranchingFactor(DefaultAlpha, 0.1, 0, 0.5, 0.3)))
	assert.True(t, IsUndefined(BranchingFactor(DefaultAlpha, 0.1, 30, 0.5, 0)))
	assert.True(t, IsUndefined(BranchingFactor(DefaultAlpha, 0.1, -1, 0.5, 0.3)))
	assert.True(t, IsUndefined(BranchingRatio(Params{Beta: 1, Kappa: 0.5, Theta: 0.3}, 30, 2)))
}

func TestHarm_AbsoluteIdentity(t *testing.T) {
	for _, n := range []float64{0.01, 0.2, 0.5, 0.9, 0.999} {
		for _, frac := range []float64{0.01, 0.3, 0.7, 0.99} {
			nDelta := n * frac
			harm := Harm(n, nDelta)
			harmAbs := HarmAbs(n, nDelta)
			assert.InDelta(t, harm/(1-n), harmAbs, 1e-9*math.Max(1, math.Abs(harmAbs)), "n=%v nDelta=%v", n, nDelta)
		}
	}
}

func TestHarmAfterDelay(t *testing.T) {
	n, theta, c := 0.6, 0.5, 30.0

	// no delay removes all exposure
	assert.InDelta(t, 0.0, DelayedBranchingFactor(n, theta, 0, c), 1e-12)
	assert.InDelta(t, n, HarmAfterDelay(theta, n, 0, c), 1e-12)

	// longer delays leave more of the cascade untouched
	prev := math.Inf(1)
	for _, delay := range []float64{10, 60, 600, 3600, 86400} {
		chi := HarmAfterDelay(theta, n, delay, c)
		assert.Less(t, chi, prev)
		assert.Greater(t, chi, 0.0)
		prev = chi
	}

	assert.InDelta(t, HarmAfterDelay(theta, n, 600, c)/(1-n), HarmAbsAfterDelay(theta, n, 600, c), 1e-12)
}

func TestHarm_Undefined(t *testing.T) {
	assert.True(t, IsUndefined(Harm(0.5, 1)))
	assert.True(t, IsUndefined(HarmAbs(1, 0.5)))
	assert.True(t, IsUndefined(HarmAfterDelay(0, 0.5, 60, 30)))
	assert.True(t, IsUndefined(HarmAfterDelay(0.5, math.NaN(), 60, 30)))
	assert.True(t, IsUndefined(DelayedBranchingFactor(0.5, 0.5, -40, 30)))
}

func TestHalfLife(t *testing.T) {
	assert.InDelta(t, 30.0, HalfLife(30, 1), 1e-12)
	assert.InDelta(t, 90.0, HalfLife(30, 0.5), 1e-12)

	for _, theta := range []float64{0.1, 0.5, 1, 2} {
		prev := 0.0
		for _, c := range []float64{0.1, 1, 10, 30, 600} {
			tau := HalfLife(c, theta)
			assert.Greater(t, tau, prev, "theta=%v c=%v", theta, c)
			prev = tau
		}
	}

	prev := math.Inf(1)
	for _, theta := range []float64{1, 10, 100, 1e4, 1e8} {
		tau := HalfLife(30, theta)
		assert.Less(t, tau, prev)
		prev = tau
	}
	assert.Less(t, HalfLife(30, 1e8), 1e-6)

	assert.True(t, IsUndefined(HalfLife(30, 0)))
	assert.True(t, IsUndefined(HalfLife(0, 1)))
}

func TestReactionDelay_InvertsHarm(t *testing.T) {
	c := 30.0
	for _, theta := range []float64{0.2, 0.5, 1.5} {
		for _, n := range []float64{0.1, 0.5, 0.9} {
			for _, delay := range []float64{1, 60, 600, 3600} {
				chi := HarmAfterDelay(theta, n, delay, c)
				assert.InDelta(t, delay, ReactionDelay(theta, n, chi, c), 1e-6*delay, "theta=%v n=%v", theta, n)
			}
		}
	}
}

func TestReactionDelay_Clamp(t *testing.T) {
	// a target above the harm of an immediate reaction is unreachable
	assert.Equal(t, 0.0, ReactionDelay(0.5, 0.3, 0.9, 30))

	// a tiny target is reached only after more than a week
	assert.Equal(t, MaxReactionDelay, ReactionDelay(0.5, 0.9, 1e-9, 30))

	// 0^(-1/theta) is +Inf: a zero target is never reached
	assert.Equal(t, MaxReactionDelay, ReactionDelay(0.5, 0.9, 0, 30))
	assert.Equal(t, MaxReactionDelay, ReactionDelay(0.5, 1, 0.5, 30))
}

func TestReactionDelay_Undefined(t *testing.T) {
	assert.True(t, IsUndefined(ReactionDelay(0.5, 0.5, 1, 30)))
	assert.True(t, IsUndefined(ReactionDelay(0.5, 0.5, 1.5, 30)))
	assert.True(t, IsUndefined(ReactionDelay(0.5, 0, 0.5, 30)))
	assert.True(t, IsUndefined(ReactionDelay(0.5, -0.2, 0.5, 30)))
	assert.True(t, IsUndefined(ReactionDelay(0.5, 1.2, 0.5, 30)))
	assert.True(t, IsUndefined(ReactionDelay(0.5, math.NaN(), 0.5, 30)))
}

func TestComputeImpact(t *testing.T) {
	opts := ImpactOptions{Alpha: DefaultAlpha, C: 30, Delay: 600, TargetHarm: 0.5}
	impact := ComputeImpact(Params{Beta: 0.1, Kappa: 0.5, Theta: 0.3}, opts)
	assert.True(t, impact.Defined())
	assert.True(t, impact.Stationary())
	assert.InDelta(t, 0.6663625899279617, impact.BranchingFactor, 1e-12)
	assert.InDelta(t, HalfLife(30, 0.3), impact.HalfLife, 1e-12)
	assert.InDelta(t, impact.Harm/(1-impact.BranchingFactor), impact.HarmAbs, 1e-9)

	impact = ComputeImpact(Params{Beta: 0.1, Kappa: 0.5, Theta: 0}, opts)
	assert.False(t, impact.Defined())
}
