package hawkes

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/c9s/hawkes/pkg/metrics"
	"github.com/c9s/hawkes/pkg/solver"
)

var log = logrus.WithField("component", "hawkes")

var ErrInvalidWindowSize = errors.New("window size must be positive")

// FitResult is one (guess, window) fit. Failed fits carry NaN parameters and
// log-likelihood and the failure in Err.
type FitResult struct {
	Guess         Params        `json:"guess"`
	Params        Params        `json:"params"`
	LogLikelihood float64       `json:"loglike"`
	Solver        solver.Method `json:"solver"`
	Window        int           `json:"range"`
	Mu            float64       `json:"mu"`
	Duration      float64       `json:"timeDelta"`
	Events        int           `json:"events"`
	Err           string        `json:"error,omitempty"`
}

func (r FitResult) Failed() bool {
	return r.Params.IsNaN() || math.IsNaN(r.LogLikelihood)
}

// RollingWindow re-estimates the kernel on consecutive blocks of Size events.
//
// The end of the window always advances by Size, its start only does so after
// a window that contained at least one post. Windows without posts are not
// fitted, so the next window grows to cover them instead of sliding past.
type RollingWindow struct {
	Estimator Estimator
	Solver    solver.Method
	Size      int
}

// Run fits every window of the series from one initial guess. Estimator
// failures are recorded in the returned results; only a cancelled context
// stops the loop early.
func (r *RollingWindow) Run(ctx context.Context, series Series, guess Params) ([]FitResult, error) {
	if r.Size <= 0 {
		return nil, errors.Wrapf(ErrInvalidWindowSize, "size=%d", r.Size)
	}

	var results []FitResult
	n := series.Len()
	start, end := 0, r.Size
	for counter := 0; end < n; counter++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		w := r.window(series, counter, start, end)
		logger := log.WithFields(logrus.Fields{
			"solver": r.Solver,
			"window": counter,
			"start":  start,
			"end":    end,
		})

		posts := countPosts(w.Posts)
		if posts > 0 {
			logger.Debugf("fitting %d events with %d posts, mu=%v", len(w.Times), posts, w.Mu)
			results = append(results, r.fit(logger, w, guess))
			start += r.Size
		} else {
			logger.Debug("no posts in window, extending")
			metrics.WindowFitsMetrics.WithLabelValues(r.Solver.String(), metrics.OutcomeSkipped).Inc()
		}

		end += r.Size
	}

	return results, nil
}

func (r *RollingWindow) fit(logger *logrus.Entry, w Window, guess Params) FitResult {
	timer := prometheus.NewTimer(metrics.WindowFitDurationMetrics.WithLabelValues(r.Solver.String()))
	params, loglike, err := r.Estimator.Estimate(w, guess)
	elapsed := timer.ObserveDuration()

	result := FitResult{
		Guess:         guess,
		Params:        params,
		LogLikelihood: loglike,
		Solver:        r.Solver,
		Window:        w.Index,
		Mu:            w.Mu,
		Duration:      w.Duration,
		Events:        len(w.Times),
	}

	if err != nil {
		logger.WithError(err).Warnf("window fit failed after %s", elapsed)
		result.Params = NaNParams()
		result.LogLikelihood = math.NaN()
		result.Err = err.Error()
		metrics.WindowFitsMetrics.WithLabelValues(r.Solver.String(), metrics.OutcomeFailure).Inc()
		return result
	}

	logger.Debugf("window fitted in %s: %s loglike=%v", elapsed, params, loglike)
	metrics.WindowFitsMetrics.WithLabelValues(r.Solver.String(), metrics.OutcomeSuccess).Inc()
	return result
}

// window slices [start, end) and rebases its timestamps to the first event.
func (r *RollingWindow) window(series Series, index, start, end int) Window {
	origin := series.Times[start]
	times := make([]float64, end-start)
	for i, t := range series.Times[start:end] {
		times[i] = t - origin
	}

	w := Window{
		Index:    index,
		Start:    start,
		Times:    times,
		Marks:    series.Marks[start:end],
		Posts:    series.Posts[start:end],
		Duration: times[len(times)-1],
	}

	w.Mu = float64(countPosts(w.Posts)) / w.Duration
	return w
}

func countPosts(posts []bool) int {
	count := 0
	for _, p := range posts {
		if p {
			count++
		}
	}
	return count
}
