package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c9s/hawkes/pkg/dataset"
	"github.com/c9s/hawkes/pkg/report"
	"github.com/c9s/hawkes/pkg/solver"
)

func writeEvents(t *testing.T, dir string) string {
	var sb strings.Builder
	sb.WriteString("time\tmark\tpost\n")
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&sb, "%d\t%d\t%v\n", i*i+i, 1+i%7, i%3 == 0)
	}

	filename := filepath.Join(dir, "events.tsv")
	require.NoError(t, os.WriteFile(filename, []byte(sb.String()), 0644))
	return filename
}

func execute(t *testing.T, args ...string) string {
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&out)
	RootCmd.SetArgs(args)
	require.NoError(t, RootCmd.Execute())
	return out.String()
}

func TestFitAndAnalyze(t *testing.T) {
	dir := t.TempDir()
	eventsFile := writeEvents(t, dir)
	outputDir := filepath.Join(dir, "output")

	out := execute(t, "fit",
		"--events", eventsFile,
		"--output", outputDir,
		"--solver", "l-bfgs-b",
		"--window-size", "10",
		"--runs", "2",
		"--max-workers", "2",
	)
	assert.Contains(t, out, "events")

	f, err := os.Open(filepath.Join(outputDir, "events.fits.tsv"))
	require.NoError(t, err)
	defer f.Close()

	results, err := dataset.LoadResults(f)
	require.NoError(t, err)
	assert.Len(t, results, 6, "3 windows for each of 2 guesses")
	for _, r := range results {
		assert.Equal(t, solver.BoundedQuasiNewton, r.Solver)
		assert.Equal(t, 10, r.Events)
	}

	index, err := report.LoadReportIndex(outputDir)
	require.NoError(t, err)
	require.Len(t, index.Runs, 1)
	assert.Equal(t, eventsFile, index.Runs[0].Events)
	assert.Equal(t, 6, index.Runs[0].Fits)
	assert.Equal(t, 10, index.Runs[0].Options.WindowSize)

	out = execute(t, "analyze", "--results", filepath.Join(outputDir, "events.fits.tsv"), "--only-best")
	assert.Contains(t, out, "half-life")
}

func TestVersion(t *testing.T) {
	out := execute(t, "version", "--solvers")
	assert.Contains(t, out, "v0.1.0-dev")
	assert.Contains(t, out, "bounded-quasi-newton")
}

func TestLoadRunConfig_Overrides(t *testing.T) {
	require.NoError(t, FitCmd.Flags().Set("c", "45"))
	require.NoError(t, FitCmd.Flags().Set("solver", "ipopt"))
	defer func() {
		_ = FitCmd.Flags().Set("c", "0")
		FitCmd.Flags().Lookup("c").Changed = false
		FitCmd.Flags().Lookup("solver").Changed = false
	}()

	cfg, err := loadRunConfig(FitCmd)
	require.NoError(t, err)
	assert.Equal(t, 45.0, cfg.Fit.C)
	assert.Equal(t, 45.0, cfg.Analysis.C)
	assert.Equal(t, solver.InteriorPoint, cfg.Fit.Solver)
}
