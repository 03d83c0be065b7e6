package hawkes

import "math"

// MaxReactionDelay caps the reaction delay at one week, in seconds.
const MaxReactionDelay = 7 * 24 * 60 * 60.0

// The functions below are applied row by row over batches of fits, so they
// never fail: a domain violation yields NaN, see IsUndefined.

// IsUndefined reports whether a derived metric fell outside its domain.
func IsUndefined(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

func definedOrNaN(v float64) float64 {
	if IsUndefined(v) {
		return math.NaN()
	}
	return v
}

// BranchingFactor is the expected number of direct offspring of one event:
//
//	n* = kappa * (alpha-1)/(alpha-beta-1) * 1/(theta * c^theta)
func BranchingFactor(alpha, beta, c, kappa, theta float64) float64 {
	if alpha-beta-1 == 0 || !(theta > 0) || !(c > 0) {
		return math.NaN()
	}

	influence := (alpha - 1) / (alpha - beta - 1)
	kernel := 1 / (theta * math.Pow(c, theta))
	return definedOrNaN(kappa * influence * kernel)
}

// BranchingRatio is BranchingFactor written over a (beta, kappa, theta)
// vector; it is the form used to screen multi-start guesses.
func BranchingRatio(p Params, c, alpha float64) float64 {
	x := p.Slice()
	if alpha-x[0]-1 == 0 || !(x[2] > 0) || !(c > 0) {
		return math.NaN()
	}

	return definedOrNaN(x[1] * ((alpha - 1) / (alpha - x[0] - 1)) * (1 / (x[2] * math.Pow(c, x[2]))))
}

// HalfLife is the time after which half of an event's total influence has
// been spent: c * (2^(1/theta) - 1).
func HalfLife(c, theta float64) float64 {
	if !(theta > 0) || !(c > 0) {
		return math.NaN()
	}

	return definedOrNaN(c * (math.Pow(2, 1/theta) - 1))
}

// DelayedBranchingFactor is the branching factor left after removing the
// exposure of the first delay seconds of every event:
//
//	n_delta = n* (1 - c^theta (c+delay)^-theta)
func DelayedBranchingFactor(n, theta, delay, c float64) float64 {
	if !(c > 0) || c+delay <= 0 || !(theta > 0) {
		return math.NaN()
	}

	return definedOrNaN(n * (1 - math.Pow(c, theta)*math.Pow(c+delay, -theta)))
}

// Harm is the relative reduction of the cascade size, (n* - n_delta)/(1 - n_delta).
func Harm(n, nDelta float64) float64 {
	if nDelta == 1 {
		return math.NaN()
	}

	return definedOrNaN((n - nDelta) / (1 - nDelta))
}

// HarmAbs is the absolute reduction of the expected cascade size,
// 1/(1-n*) - 1/(1-n_delta). It always equals Harm(n, nDelta)/(1-n).
func HarmAbs(n, nDelta float64) float64 {
	if n == 1 || nDelta == 1 {
		return math.NaN()
	}

	return definedOrNaN(1/(1-n) - 1/(1-nDelta))
}

// HarmAfterDelay combines DelayedBranchingFactor and Harm.
func HarmAfterDelay(theta, n, delay, c float64) float64 {
	return Harm(n, DelayedBranchingFactor(n, theta, delay, c))
}

// HarmAbsAfterDelay combines DelayedBranchingFactor and HarmAbs.
func HarmAbsAfterDelay(theta, n, delay, c float64) float64 {
	return HarmAbs(n, DelayedBranchingFactor(n, theta, delay, c))
}

// ReactionDelay inverts HarmAfterDelay: the delay after which an intervention
// still reaches the target harm chi. The result is clamped to
// [0, MaxReactionDelay]; a zero target, or a critical n* of 1, is never
// reached and gives MaxReactionDelay.
func ReactionDelay(theta, n, chi, c float64) float64 {
	if !(n > 0) || !(chi >= 0) || !(chi < 1) || !(theta > 0) || !(c > 0) {
		return math.NaN()
	}

	term1 := 1 / (n * math.Pow(c, theta))
	term2 := (chi * (1 - n)) / (1 - chi)
	if !(term2 >= 0) {
		return math.NaN()
	}

	delay := math.Pow(term1*term2, -1/theta) - c
	if math.IsNaN(delay) {
		return math.NaN()
	}

	return math.Min(math.Max(0, delay), MaxReactionDelay)
}

// Impact bundles the derived metrics of one fitted parameter vector.
type Impact struct {
	BranchingFactor float64 `json:"branchingFactor"`
	HalfLife        float64 `json:"halfLife"`
	Harm            float64 `json:"harm"`
	HarmAbs         float64 `json:"harmAbs"`
	ReactionDelay   float64 `json:"reactionDelay"`
}

// ImpactOptions fixes the exogenous constants of the derived metrics.
type ImpactOptions struct {
	Alpha float64 `json:"alpha" yaml:"alpha"`
	C     float64 `json:"c" yaml:"c"`

	// Delay is the exposure increment used for the harm metrics, in seconds
	Delay float64 `json:"delay" yaml:"delay"`

	// TargetHarm is the harm the reaction delay is solved for
	TargetHarm float64 `json:"targetHarm" yaml:"targetHarm"`
}

func ComputeImpact(p Params, opts ImpactOptions) Impact {
	n := BranchingFactor(opts.Alpha, p.Beta, opts.C, p.Kappa, p.Theta)
	return Impact{
		BranchingFactor: n,
		HalfLife:        HalfLife(opts.C, p.Theta),
		Harm:            HarmAfterDelay(p.Theta, n, opts.Delay, opts.C),
		HarmAbs:         HarmAbsAfterDelay(p.Theta, n, opts.Delay, opts.C),
		ReactionDelay:   ReactionDelay(p.Theta, n, opts.TargetHarm, opts.C),
	}
}

// Defined reports whether every metric is inside its domain.
func (i Impact) Defined() bool {
	return !IsUndefined(i.BranchingFactor) && !IsUndefined(i.HalfLife) && !IsUndefined(i.Harm) &&
		!IsUndefined(i.HarmAbs) && !IsUndefined(i.ReactionDelay)
}

// Stationary reports whether the fitted process is subcritical.
func (i Impact) Stationary() bool {
	return i.BranchingFactor <= 1
}
