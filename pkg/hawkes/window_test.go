package hawkes_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/c9s/hawkes/pkg/hawkes"
	"github.com/c9s/hawkes/pkg/hawkes/mocks"
	"github.com/c9s/hawkes/pkg/solver"
)

var testGuess = hawkes.Params{Beta: 0.3, Kappa: 0.2, Theta: 0.8}

func fitted(w hawkes.Window) hawkes.Params {
	return hawkes.Params{Beta: 0.1, Kappa: 0.1, Theta: float64(w.Index)}
}

func series(times []float64, posts []bool) hawkes.Series {
	marks := make([]float64, len(times))
	for i := range marks {
		marks[i] = 1
	}
	return hawkes.Series{Times: times, Marks: marks, Posts: posts}
}

func TestRollingWindow_WindowLargerThanSeries(t *testing.T) {
	ctrl := gomock.NewController(t)
	estimator := mocks.NewMockEstimator(ctrl)

	rw := &hawkes.RollingWindow{Estimator: estimator, Solver: solver.TrustRegion, Size: 10}
	results, err := rw.Run(context.Background(), series([]float64{0, 1, 2, 3}, []bool{true, true, true, true}), testGuess)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRollingWindow_Sliding(t *testing.T) {
	ctrl := gomock.NewController(t)
	estimator := mocks.NewMockEstimator(ctrl)

	var windows []hawkes.Window
	estimator.EXPECT().Estimate(gomock.Any(), testGuess).DoAndReturn(func(w hawkes.Window, guess hawkes.Params) (hawkes.Params, float64, error) {
		windows = append(windows, w)
		return fitted(w), -1.5, nil
	}).Times(2)

	s := series([]float64{10, 11, 13, 14, 20}, []bool{true, true, true, true, true})
	rw := &hawkes.RollingWindow{Estimator: estimator, Solver: solver.SequentialQuadratic, Size: 2}
	results, err := rw.Run(context.Background(), s, testGuess)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, []float64{0, 1}, windows[0].Times)
	assert.Equal(t, []float64{0, 1}, windows[1].Times)
	assert.Equal(t, 2, windows[1].Start)

	for i, r := range results {
		assert.Equal(t, i, r.Window)
		assert.Equal(t, testGuess, r.Guess)
		assert.Equal(t, fitted(windows[i]), r.Params)
		assert.Equal(t, -1.5, r.LogLikelihood)
		assert.Equal(t, solver.SequentialQuadratic, r.Solver)
		assert.Equal(t, 1.0, r.Duration)
		assert.Equal(t, 2.0, r.Mu)
		assert.Empty(t, r.Err)
		assert.False(t, r.Failed())
	}
}

// A window without posts is not fitted and the next window keeps its start,
// so the fitted window grows.
func TestRollingWindow_ZeroPostWindowGrows(t *testing.T) {
	ctrl := gomock.NewController(t)
	estimator := mocks.NewMockEstimator(ctrl)

	var windows []hawkes.Window
	estimator.EXPECT().Estimate(gomock.Any(), gomock.Any()).DoAndReturn(func(w hawkes.Window, guess hawkes.Params) (hawkes.Params, float64, error) {
		windows = append(windows, w)
		return fitted(w), -3, nil
	}).Times(2)

	s := series(
		[]float64{0, 1, 2, 3, 4, 5, 6},
		[]bool{false, false, false, true, false, true, false},
	)
	rw := &hawkes.RollingWindow{Estimator: estimator, Solver: solver.TrustRegion, Size: 2}
	results, err := rw.Run(context.Background(), s, testGuess)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// window #0 [0,2) has no post and is skipped
	assert.Equal(t, 1, results[0].Window)
	assert.Equal(t, 0, windows[0].Start)
	assert.Len(t, windows[0].Times, 4)
	assert.Equal(t, 3.0, results[0].Duration)
	assert.InDelta(t, 1.0/3, results[0].Mu, 1e-12)

	// after a fitted window the start slides again
	assert.Equal(t, 2, results[1].Window)
	assert.Equal(t, 2, windows[1].Start)
	assert.Equal(t, []float64{0, 1, 2, 3}, windows[1].Times)
	assert.InDelta(t, 2.0/3, results[1].Mu, 1e-12)
}

func TestRollingWindow_NoPostsAtAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	estimator := mocks.NewMockEstimator(ctrl)

	rw := &hawkes.RollingWindow{Estimator: estimator, Solver: solver.TrustRegion, Size: 2}
	results, err := rw.Run(context.Background(), series([]float64{0, 1, 2, 3, 4}, make([]bool, 5)), testGuess)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRollingWindow_FailingEstimator(t *testing.T) {
	ctrl := gomock.NewController(t)
	estimator := mocks.NewMockEstimator(ctrl)
	estimator.EXPECT().Estimate(gomock.Any(), gomock.Any()).
		Return(hawkes.Params{Beta: 1, Kappa: 1, Theta: 1}, 42.0, errors.New("did not converge")).
		Times(3)

	s := series([]float64{0, 1, 2, 3, 4, 5, 6}, []bool{true, true, true, true, true, true, true})
	rw := &hawkes.RollingWindow{Estimator: estimator, Solver: solver.InteriorPoint, Size: 2}
	results, err := rw.Run(context.Background(), s, testGuess)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, r := range results {
		assert.Equal(t, i, r.Window)
		assert.True(t, r.Params.IsNaN())
		assert.True(t, math.IsNaN(r.Params.Beta) && math.IsNaN(r.Params.Kappa) && math.IsNaN(r.Params.Theta))
		assert.True(t, math.IsNaN(r.LogLikelihood))
		assert.Equal(t, "did not converge", r.Err)
		assert.True(t, r.Failed())
		assert.Equal(t, testGuess, r.Guess)
	}
}

func TestRollingWindow_InvalidSize(t *testing.T) {
	rw := &hawkes.RollingWindow{Size: 0}
	_, err := rw.Run(context.Background(), series([]float64{0, 1}, []bool{true, true}), testGuess)
	assert.ErrorIs(t, err, hawkes.ErrInvalidWindowSize)
}

func TestRollingWindow_Cancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	estimator := mocks.NewMockEstimator(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rw := &hawkes.RollingWindow{Estimator: estimator, Size: 1}
	_, err := rw.Run(ctx, series([]float64{0, 1, 2}, []bool{true, true, true}), testGuess)
	assert.ErrorIs(t, err, context.Canceled)
}
