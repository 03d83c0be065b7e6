package dataset

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c9s/hawkes/pkg/hawkes"
	"github.com/c9s/hawkes/pkg/solver"
)

type nopCloser struct {
	*bytes.Buffer
}

func (nopCloser) Close() error { return nil }

func TestWriteResults(t *testing.T) {
	results := []hawkes.FitResult{
		{
			Guess:         hawkes.Params{Beta: 0.1, Kappa: 0.2, Theta: 0.3},
			Params:        hawkes.Params{Beta: 0.5, Kappa: 0.25, Theta: 0.75},
			LogLikelihood: -120.5,
			Solver:        solver.BoundedQuasiNewton,
			Window:        3,
			Mu:            0.002,
			Duration:      86400,
			Events:        5000,
		},
		{
			Guess:         hawkes.Params{Beta: 0.1, Kappa: 0.2, Theta: 0.3},
			Params:        hawkes.NaNParams(),
			LogLikelihood: math.NaN(),
			Solver:        solver.BoundedQuasiNewton,
			Window:        4,
			Mu:            0.001,
			Duration:      3600,
			Events:        5000,
			Err:           "objective is not finite",
		},
	}

	buf := nopCloser{Buffer: &bytes.Buffer{}}
	require.NoError(t, WriteResults(buf, results))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(ResultColumns, "\t"), lines[0])
	assert.Equal(t, "3\tbounded-quasi-newton\t0.1\t0.2\t0.3\t0.5\t0.25\t0.75\t-120.5\t0.002\t86400\t5000\t", lines[1])
	assert.Equal(t, "4\tbounded-quasi-newton\t0.1\t0.2\t0.3\tNaN\tNaN\tNaN\tNaN\t0.001\t3600\t5000\tobjective is not finite", lines[2])

	loaded, err := LoadResults(strings.NewReader(buf.String()))
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, results[0], loaded[0])
	assert.True(t, loaded[1].Failed())
	assert.Equal(t, results[1].Err, loaded[1].Err)
	assert.Equal(t, 4, loaded[1].Window)
}

func TestLoadResults_Malformed(t *testing.T) {
	_, err := LoadResults(strings.NewReader("1\ttrust-region\t0.1\n"))
	assert.ErrorIs(t, err, ErrMalformedRow)

	_, err = LoadResults(strings.NewReader("1\tsimplex\t0.1\t0.2\t0.3\t0.5\t0.25\t0.75\t-1\t0.1\t10\t5\t\n"))
	assert.Error(t, err)
}
