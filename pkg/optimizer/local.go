package optimizer

import (
	"context"
	"encoding/json"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/c9s/hawkes/pkg/hawkes"
)

var log = logrus.WithField("component", "optimizer")

// Executor evaluates one trial: configJson is the JSON encoding of a
// hawkes.Options with the trial values patched in.
type Executor interface {
	Execute(ctx context.Context, configJson []byte) (*TrialSummary, error)
}

// TrialSummary is what a trial's fits are scored on.
type TrialSummary struct {
	Options hawkes.Options `json:"options"`

	Fits    int `json:"fits"`
	Failed  int `json:"failed"`
	Windows int `json:"windows"`

	// FitScore is the mean over windows of the best log-likelihood per event
	FitScore float64 `json:"fitScore"`

	// SuccessRate is the fraction of fits that converged to finite values
	SuccessRate float64 `json:"successRate"`
}

// LocalFitExecutor runs the trials in process against one event series.
type LocalFitExecutor struct {
	Series hawkes.Series

	// MaxWorkers overrides the fit parallelism of the trial options when set
	MaxWorkers int
}

func (e *LocalFitExecutor) Execute(ctx context.Context, configJson []byte) (*TrialSummary, error) {
	var opts hawkes.Options
	if err := json.Unmarshal(configJson, &opts); err != nil {
		return nil, err
	}

	if e.MaxWorkers > 0 {
		opts.MaxWorkers = e.MaxWorkers
	}

	log.WithFields(logrus.Fields{
		"c":          opts.C,
		"solver":     opts.Solver,
		"windowSize": opts.WindowSize,
		"runs":       opts.Runs,
	}).Info("evaluating trial")

	results, err := hawkes.Fit(ctx, e.Series, opts)
	if err != nil {
		return nil, err
	}

	summary := Summarize(results)
	summary.Options = opts
	return summary, nil
}

// Summarize scores a batch of fits.
func Summarize(results []hawkes.FitResult) *TrialSummary {
	summary := &TrialSummary{Fits: len(results)}

	best := map[int]float64{}
	for _, r := range results {
		if r.Failed() || r.Events == 0 {
			summary.Failed++
			continue
		}

		perEvent := r.LogLikelihood / float64(r.Events)
		if v, ok := best[r.Window]; !ok || perEvent > v {
			best[r.Window] = perEvent
		}
	}

	summary.Windows = len(best)
	if summary.Fits > 0 {
		summary.SuccessRate = float64(summary.Fits-summary.Failed) / float64(summary.Fits)
	}

	if len(best) == 0 {
		summary.FitScore = math.Inf(-1)
		return summary
	}

	var total float64
	for _, v := range best {
		total += v
	}
	summary.FitScore = total / float64(len(best))
	return summary
}
