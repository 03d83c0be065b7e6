package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c9s/hawkes/pkg/hawkes"
)

var testOptions = Options{
	ImpactOptions: hawkes.ImpactOptions{
		Alpha:      hawkes.DefaultAlpha,
		C:          30,
		Delay:      600,
		TargetHarm: 0.5,
	},
}

var (
	guess      = hawkes.Params{Beta: 0.4, Kappa: 0.4, Theta: 0.4}
	stationary = hawkes.Params{Beta: 0.1, Kappa: 0.5, Theta: 0.3}
	explosive  = hawkes.Params{Beta: 0.9, Kappa: 2.5, Theta: 0.05}
)

func fit(window int, params hawkes.Params, loglike float64) hawkes.FitResult {
	return hawkes.FitResult{Guess: guess, Params: params, LogLikelihood: loglike, Window: window}
}

func TestAnalyze(t *testing.T) {
	results := []hawkes.FitResult{
		fit(0, stationary, -10),
		fit(0, guess, -5),
		fit(1, explosive, -3),
		fit(1, hawkes.NaNParams(), math.NaN()),
		fit(2, hawkes.Params{Beta: 0.2, Kappa: 0.3, Theta: 0.5}, -8),
	}

	rows := Analyze(results, testOptions)
	require.Len(t, rows, 2)
	assert.Equal(t, 0, rows[0].Window)
	assert.InDelta(t, 0.6663625899279617, rows[0].BranchingFactor, 1e-12)
	assert.Equal(t, 2, rows[1].Window)

	for _, r := range rows {
		assert.True(t, r.Impact.Defined())
		assert.LessOrEqual(t, r.BranchingFactor, 1.0)
	}
}

func TestAnalyze_OnlyBest(t *testing.T) {
	better := hawkes.Params{Beta: 0.2, Kappa: 0.3, Theta: 0.5}
	results := []hawkes.FitResult{
		fit(0, stationary, -10),
		fit(0, better, -4),
		fit(1, stationary, -2),
		fit(1, hawkes.NaNParams(), math.NaN()),
	}

	opts := testOptions
	opts.OnlyBest = true
	rows := Analyze(results, opts)
	require.Len(t, rows, 2)
	assert.Equal(t, better, rows[0].Params)
	assert.Equal(t, stationary, rows[1].Params)
}

func TestBest(t *testing.T) {
	results := []hawkes.FitResult{
		fit(3, stationary, -1),
		fit(1, stationary, -7),
		fit(1, explosive, -7),
		fit(1, guess, -9),
		fit(2, hawkes.NaNParams(), math.NaN()),
	}

	best := Best(results)
	require.Len(t, best, 3)
	assert.Equal(t, 1, best[0].Window)
	assert.Equal(t, 1, best[1].Window)
	assert.Equal(t, 3, best[2].Window)
}

func TestSummarize(t *testing.T) {
	rows := []Row{
		{Impact: hawkes.Impact{HalfLife: 60, BranchingFactor: 0.2, Harm: 0.1, ReactionDelay: 10}},
		{Impact: hawkes.Impact{HalfLife: 180, BranchingFactor: 0.4, Harm: 0.3, ReactionDelay: 30}},
		{Impact: hawkes.Impact{HalfLife: 600, BranchingFactor: 0.9, Harm: 0.2, ReactionDelay: 20}},
		{Impact: hawkes.Impact{HalfLife: 120, BranchingFactor: 0.5, Harm: 0.4, ReactionDelay: 40}},
	}

	s := Summarize(rows)
	assert.Equal(t, 4, s.Count)
	assert.InDelta(t, 4.0, s.HalfLifeMinutes.Mean, 1e-12)
	assert.InDelta(t, 2.5, s.HalfLifeMinutes.Median, 1e-12)
	assert.InDelta(t, 0.5, s.BranchingFactor.Mean, 1e-12)
	assert.InDelta(t, 0.45, s.BranchingFactor.Median, 1e-12)
	assert.InDelta(t, 25.0, s.HarmPercent.Mean, 1e-9)
	assert.InDelta(t, 25.0, s.HarmPercent.Median, 1e-9)
	assert.InDelta(t, 25.0, s.ReactionDelay.Median, 1e-12)

	assert.Equal(t, Summary{}, Summarize(nil))
}
