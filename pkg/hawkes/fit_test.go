package hawkes_test

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/c9s/hawkes/pkg/hawkes"
	"github.com/c9s/hawkes/pkg/hawkes/mocks"
	"github.com/c9s/hawkes/pkg/solver"
)

func testOptions() hawkes.Options {
	opts := hawkes.DefaultOptions()
	opts.WindowSize = 3
	opts.Runs = 4
	opts.MaxWorkers = 3
	return opts
}

func TestFitter_RejectsNonMonotonicSeries(t *testing.T) {
	ctrl := gomock.NewController(t)
	estimator := mocks.NewMockEstimator(ctrl)

	fitter := &hawkes.Fitter{
		Options:   testOptions(),
		Estimator: estimator,
		Executor:  hawkes.NewLocalExecutor(2),
	}

	s := series([]float64{0, 1, 3, 2, 4, 5, 6}, []bool{true, true, true, true, true, true, true})
	results, err := fitter.Fit(context.Background(), s)
	assert.ErrorIs(t, err, hawkes.ErrNonMonotonic)
	assert.Nil(t, results)
}

func TestFitter_MultiStart(t *testing.T) {
	ctrl := gomock.NewController(t)
	estimator := mocks.NewMockEstimator(ctrl)

	var mu sync.Mutex
	seen := map[hawkes.Params]int{}
	estimator.EXPECT().Estimate(gomock.Any(), gomock.Any()).DoAndReturn(func(w hawkes.Window, guess hawkes.Params) (hawkes.Params, float64, error) {
		mu.Lock()
		seen[guess]++
		mu.Unlock()
		return guess, float64(-w.Index), nil
	}).Times(4 * 3)

	fitter := &hawkes.Fitter{
		Options:   testOptions(),
		Estimator: estimator,
		Executor:  hawkes.NewLocalExecutor(3),
	}

	guesses, err := fitter.Guesses()
	require.NoError(t, err)
	require.Len(t, guesses, 4)

	// 10 events and windows of 3 give three windows per guess
	s := series([]float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, []bool{true, true, true, true, true, true, true, true, true, true})
	results, err := fitter.Fit(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, results, 12)

	for _, g := range guesses {
		assert.Equal(t, 3, seen[g], "guess %s", g)
	}

	// each task keeps its own window order
	for i := 0; i < len(results); i += 3 {
		guess := results[i].Guess
		for j := 0; j < 3; j++ {
			assert.Equal(t, guess, results[i+j].Guess)
			assert.Equal(t, j, results[i+j].Window)
		}
	}

	again, err := fitter.Guesses()
	require.NoError(t, err)
	assert.Equal(t, guesses, again)
}

func TestFitter_GuessesIndependentOfWorkers(t *testing.T) {
	opts := testOptions()
	a, err := (&hawkes.Fitter{Options: opts}).Guesses()
	require.NoError(t, err)

	opts.MaxWorkers = 1
	b, err := (&hawkes.Fitter{Options: opts}).Guesses()
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := hawkes.NewSampler(opts.Seed, opts.C, opts.Alpha).Sample(opts.Runs)
	require.NoError(t, err)
	assert.Equal(t, a, c)
}

// syntheticSeries is a deterministic bursty sequence: clusters of events
// every 40 seconds, the first event of each cluster is a post.
func syntheticSeries(clusters, size int) hawkes.Series {
	var events []hawkes.Event
	for k := 0; k < clusters; k++ {
		origin := float64(k) * 40
		for i := 0; i < size; i++ {
			events = append(events, hawkes.Event{
				Time: origin + float64(i*i)*0.37 + float64(i)*0.11,
				Mark: float64(1 + (k*7+i*3)%50),
				Post: i == 0,
			})
		}
	}
	return hawkes.NewSeries(events)
}

func TestFit_EndToEnd(t *testing.T) {
	s := syntheticSeries(6, 8)
	require.NoError(t, s.Validate())

	opts := hawkes.DefaultOptions()
	opts.C = 1
	opts.Solver = solver.BoundedQuasiNewton
	opts.WindowSize = 16
	opts.Runs = 2
	opts.MaxWorkers = 2

	results, err := hawkes.Fit(context.Background(), s, opts)
	require.NoError(t, err)

	// 48 events in windows of 16: end takes 16 and 32
	require.Len(t, results, 2*2)

	bounds := opts.Bounds.Slice()
	for _, r := range results {
		assert.Equal(t, solver.BoundedQuasiNewton, r.Solver)
		if r.Failed() {
			assert.NotEmpty(t, r.Err)
			continue
		}

		for i, x := range r.Params.Slice() {
			assert.True(t, bounds[i].Contains(x), "component %d = %v", i, x)
		}

		// the optimizer never ends worse than where it started
		start := s.Times[r.Window*opts.WindowSize]
		var times []float64
		for _, ts := range s.Times[r.Window*opts.WindowSize : (r.Window+1)*opts.WindowSize] {
			times = append(times, ts-start)
		}
		marks := s.Marks[r.Window*opts.WindowSize : (r.Window+1)*opts.WindowSize]
		l := hawkes.NewLikelihood(times, marks, r.Duration, opts.C, r.Mu)
		initial := -l.NegLogLikelihood(r.Guess)
		if !math.IsNaN(initial) {
			assert.GreaterOrEqual(t, r.LogLikelihood, initial-1e-6)
		}
	}
}
