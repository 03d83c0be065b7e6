package hawkes

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/c9s/hawkes/pkg/metrics"
	"github.com/c9s/hawkes/pkg/solver"
)

// Options configures a multi-start rolling-window fit.
type Options struct {
	Alpha      float64         `json:"alpha" yaml:"alpha"`
	C          float64         `json:"c" yaml:"c"`
	Bounds     Bounds          `json:"bounds" yaml:"bounds"`
	Solver     solver.Method   `json:"solver" yaml:"solver"`
	Settings   solver.Settings `json:"settings" yaml:"settings"`
	WindowSize int             `json:"windowSize" yaml:"windowSize"`
	Runs       int             `json:"runs" yaml:"runs"`
	Seed       uint64          `json:"seed" yaml:"seed"`
	MaxRedraws int             `json:"maxRedraws" yaml:"maxRedraws"`
	MaxWorkers int             `json:"maxWorkers" yaml:"maxWorkers"`
}

func DefaultOptions() Options {
	return Options{
		Alpha:      DefaultAlpha,
		C:          DefaultC,
		Bounds:     DefaultBounds(DefaultAlpha),
		Solver:     solver.TrustRegion,
		Settings:   solver.DefaultSettings,
		WindowSize: DefaultWindowSize,
		Runs:       DefaultRuns,
		Seed:       DefaultSeed,
		MaxRedraws: DefaultMaxRedraws,
	}
}

// Fitter is the fitting entry point: it draws the initial guesses, runs one
// rolling-window task per guess on the executor and flattens the results.
type Fitter struct {
	Options

	Estimator Estimator
	Executor  Executor
}

// NewFitter wires the maximum-likelihood estimator and a local executor.
func NewFitter(opts Options) (*Fitter, error) {
	mle, err := NewMLE(opts.Solver, opts.Settings, opts.Bounds, opts.C)
	if err != nil {
		return nil, err
	}

	return &Fitter{
		Options:   opts,
		Estimator: mle,
		Executor:  NewLocalExecutor(opts.MaxWorkers),
	}, nil
}

// Guesses draws the initial guesses of the run from a generator seeded with
// Seed, so they do not depend on how the tasks are scheduled.
func (f *Fitter) Guesses() ([]Params, error) {
	sampler := NewSampler(f.Seed, f.C, f.Alpha)
	sampler.MaxRedraws = f.MaxRedraws
	return sampler.Sample(f.Runs)
}

// Fit returns the fits of every (guess, window) pair. An invalid series is
// rejected before anything runs. Results keep the window order of each task;
// tasks appear in completion order.
func (f *Fitter) Fit(ctx context.Context, series Series) ([]FitResult, error) {
	results, err := f.fit(ctx, series)
	if err != nil {
		metrics.FitRunsMetrics.WithLabelValues(f.Solver.String(), "error").Inc()
		return nil, err
	}

	metrics.FitRunsMetrics.WithLabelValues(f.Solver.String(), "ok").Inc()
	return results, nil
}

func (f *Fitter) fit(ctx context.Context, series Series) ([]FitResult, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}

	if f.WindowSize <= 0 {
		return nil, errors.Wrapf(ErrInvalidWindowSize, "size=%d", f.WindowSize)
	}

	guesses, err := f.Guesses()
	if err != nil {
		return nil, err
	}

	logger := log.WithFields(logrus.Fields{
		"solver":     f.Solver,
		"windowSize": f.WindowSize,
		"runs":       f.Runs,
		"c":          f.C,
	})
	logger.Infof("fitting %d events with %d initial guesses", series.Len(), len(guesses))

	startTime := time.Now()
	for _, guess := range guesses {
		rw := &RollingWindow{
			Estimator: f.Estimator,
			Solver:    f.Solver,
			Size:      f.WindowSize,
		}

		g := guess
		f.Executor.Submit(ctx, func(ctx context.Context) ([]FitResult, error) {
			return rw.Run(ctx, series, g)
		})
	}

	batches, err := f.Executor.Collect()
	if err != nil {
		return nil, errors.Wrap(err, "fit tasks failed")
	}

	var results []FitResult
	for _, batch := range batches {
		results = append(results, batch...)
	}

	logger.Infof("collected %d window fits in %s", len(results), time.Since(startTime))
	return results, nil
}

// Fit runs a complete multi-start fit with a local executor.
func Fit(ctx context.Context, series Series, opts Options) ([]FitResult, error) {
	fitter, err := NewFitter(opts)
	if err != nil {
		return nil, err
	}

	return fitter.Fit(ctx, series)
}
