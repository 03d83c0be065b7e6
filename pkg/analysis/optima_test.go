package analysis

import (
	"math"
	"testing"

	"github.com/muesli/clusters"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c9s/hawkes/pkg/hawkes"
)

func rowsAt(p hawkes.Params, loglike float64, n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{FitResult: hawkes.FitResult{Window: i, Params: p, LogLikelihood: loglike}}
	}
	return rows
}

func TestOptima(t *testing.T) {
	low := hawkes.Params{Beta: 0.2, Kappa: 0.01, Theta: 0.5}
	high := hawkes.Params{Beta: 1.2, Kappa: 5, Theta: 40}

	rows := append(rowsAt(low, -10, 6), rowsAt(high, -20, 4)...)

	optima, err := Optima(rows, 2)
	require.NoError(t, err)
	require.Len(t, optima, 2)

	assert.Equal(t, 6, optima[0].Count)
	assert.InDelta(t, 0.6, optima[0].Share, 1e-9)
	assert.InDelta(t, low.Kappa, optima[0].Center.Kappa, 1e-9)
	assert.InDelta(t, -10, optima[0].MeanLogLikelihood, 1e-9)

	assert.Equal(t, 4, optima[1].Count)
	assert.InDelta(t, high.Theta, optima[1].Center.Theta, 1e-9)
	assert.InDelta(t, -20, optima[1].MeanLogLikelihood, 1e-9)
}

func TestFitObservation(t *testing.T) {
	var o clusters.Observation = newFitObservation(Row{
		FitResult: hawkes.FitResult{Params: hawkes.Params{Beta: 0.5, Kappa: 1, Theta: math.E}, LogLikelihood: -3},
	})

	c := o.Coordinates()
	require.Len(t, c, 3)
	assert.Equal(t, 0.5, c[0])
	assert.InDelta(t, 0, c[1], 1e-12)
	assert.InDelta(t, 1, c[2], 1e-12)
	assert.InDelta(t, 0, o.Distance(clusters.Coordinates{0.5, 0, 1}), 1e-12)
	assert.Greater(t, o.Distance(clusters.Coordinates{0.5, 0, 2}), 0.0)
	assert.Equal(t, -3.0, o.(fitObservation).loglike)
}

func TestOptima_Edges(t *testing.T) {
	optima, err := Optima(nil, 3)
	assert.NoError(t, err)
	assert.Empty(t, optima)

	_, err = Optima(rowsAt(hawkes.Params{Beta: 1, Kappa: 1, Theta: 1}, 0, 2), 0)
	assert.Error(t, err)

	// k is capped by the number of fits
	optima, err = Optima(rowsAt(hawkes.Params{Beta: 1, Kappa: 1, Theta: 1}, 0, 1), 3)
	require.NoError(t, err)
	require.Len(t, optima, 1)
	assert.Equal(t, 1, optima[0].Count)
}

func TestBranchingTrend(t *testing.T) {
	var rows []Row
	for w := 0; w < 5; w++ {
		// two starts per window averaging to 0.5 + 0.1w
		for _, d := range []float64{-0.05, 0.05} {
			rows = append(rows, Row{
				FitResult: hawkes.FitResult{Window: w},
				Impact:    hawkes.Impact{BranchingFactor: 0.5 + 0.1*float64(w) + d},
			})
		}
	}

	trend, err := BranchingTrend(rows)
	require.NoError(t, err)
	assert.Equal(t, 5, trend.Windows)
	assert.InDelta(t, 0.1, trend.Slope, 1e-9)
	assert.InDelta(t, 0.5, trend.Intercept, 1e-9)
	assert.InDelta(t, 1, trend.R2, 1e-9)
	assert.InDelta(t, 5, trend.Critical(), 1e-9)

	_, err = BranchingTrend(rows[:4])
	assert.ErrorIs(t, err, ErrNotEnoughWindows)

	assert.True(t, Trend{Slope: -0.1}.Critical() > 1e300)
}
