package dataset

import (
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/c9s/hawkes/pkg/data/tsv"
	"github.com/c9s/hawkes/pkg/hawkes"
	"github.com/c9s/hawkes/pkg/solver"
)

// ResultColumns is the header of a results file.
var ResultColumns = []string{
	"range", "solver",
	"guess_beta", "guess_kappa", "guess_theta",
	"beta", "kappa", "theta",
	"loglike", "mu", "timeDelta", "events", "error",
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteResults writes fits as TSV. Failed fits keep their NaN values.
func WriteResults(writer io.WriteCloser, results []hawkes.FitResult) error {
	w := tsv.NewWriter(writer)
	if err := w.Write(ResultColumns); err != nil {
		return err
	}

	for _, r := range results {
		row := []string{
			strconv.Itoa(r.Window),
			r.Solver.String(),
			formatFloat(r.Guess.Beta),
			formatFloat(r.Guess.Kappa),
			formatFloat(r.Guess.Theta),
			formatFloat(r.Params.Beta),
			formatFloat(r.Params.Kappa),
			formatFloat(r.Params.Theta),
			formatFloat(r.LogLikelihood),
			formatFloat(r.Mu),
			formatFloat(r.Duration),
			strconv.Itoa(r.Events),
			r.Err,
		}

		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Close()
}

// LoadResults reads a file written by WriteResults.
func LoadResults(r io.Reader) ([]hawkes.FitResult, error) {
	reader := tsv.NewReader(r)

	var results []hawkes.FitResult
	for line := 1; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}

		if line == 1 && len(row) > 0 && row[0] == ResultColumns[0] {
			continue
		}

		if len(row) < len(ResultColumns)-1 {
			return nil, errors.Wrapf(ErrMalformedRow, "line %d: expected %d columns, got %d", line, len(ResultColumns), len(row))
		}

		result, err := parseResult(row)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}

		results = append(results, result)
	}

	return results, nil
}

func parseResult(row []string) (result hawkes.FitResult, err error) {
	if result.Window, err = strconv.Atoi(row[0]); err != nil {
		return result, err
	}

	if result.Solver, err = solver.ParseMethod(row[1]); err != nil {
		return result, err
	}

	floats := []*float64{
		&result.Guess.Beta, &result.Guess.Kappa, &result.Guess.Theta,
		&result.Params.Beta, &result.Params.Kappa, &result.Params.Theta,
		&result.LogLikelihood, &result.Mu, &result.Duration,
	}
	for i, dst := range floats {
		if *dst, err = strconv.ParseFloat(row[i+2], 64); err != nil {
			return result, errors.Wrapf(err, "column %s", ResultColumns[i+2])
		}
	}

	if result.Events, err = strconv.Atoi(row[11]); err != nil {
		return result, err
	}

	if len(row) > 12 {
		result.Err = row[12]
	}

	return result, nil
}
