package analysis

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/c9s/hawkes/pkg/hawkes"
)

var log = logrus.WithField("component", "analysis")

type Options struct {
	hawkes.ImpactOptions `yaml:",inline"`

	// OnlyBest keeps, per window, the start with the highest log-likelihood
	OnlyBest bool `json:"onlyBest" yaml:"onlyBest"`
}

// Row is a fit that survived filtering, with its derived metrics.
type Row struct {
	hawkes.FitResult
	hawkes.Impact
}

// Analyze derives the impact metrics of a batch of fits. Fits that never left
// their initial guess are dropped, as are explosive fits (n* > 1) and rows
// with any undefined metric.
func Analyze(results []hawkes.FitResult, opts Options) []Row {
	moved := make([]hawkes.FitResult, 0, len(results))
	for _, r := range results {
		if r.Guess.Equal(r.Params) {
			continue
		}
		moved = append(moved, r)
	}
	log.Infof("%d of %d fits moved away from their guess", len(moved), len(results))

	if opts.OnlyBest {
		moved = Best(moved)
		log.Infof("%d fits after keeping the best start per window", len(moved))
	}

	rows := make([]Row, 0, len(moved))
	for _, r := range moved {
		impact := hawkes.ComputeImpact(r.Params, opts.ImpactOptions)
		if !impact.Stationary() || !impact.Defined() {
			continue
		}

		rows = append(rows, Row{FitResult: r, Impact: impact})
	}

	log.Infof("%d stationary fits with defined metrics", len(rows))
	return rows
}

// Best keeps, for every window index, the fits with the maximum
// log-likelihood. Ties are all kept; windows whose fits all failed are dropped.
func Best(results []hawkes.FitResult) []hawkes.FitResult {
	best := map[int]float64{}
	for _, r := range results {
		if math.IsNaN(r.LogLikelihood) {
			continue
		}

		if v, ok := best[r.Window]; !ok || r.LogLikelihood > v {
			best[r.Window] = r.LogLikelihood
		}
	}

	var out []hawkes.FitResult
	for _, r := range results {
		if v, ok := best[r.Window]; ok && r.LogLikelihood == v {
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Window < out[j].Window
	})
	return out
}

// Statistic is the mean and median of one metric over the analyzed rows.
type Statistic struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

type Summary struct {
	Count int `json:"count"`

	// HalfLifeMinutes is the content half-life in minutes
	HalfLifeMinutes Statistic `json:"halfLifeMinutes"`
	BranchingFactor Statistic `json:"branchingFactor"`

	// HarmPercent is the relative harm in percent
	HarmPercent   Statistic `json:"harmPercent"`
	ReactionDelay Statistic `json:"reactionDelay"`
}

func Summarize(rows []Row) Summary {
	summary := Summary{Count: len(rows)}
	if len(rows) == 0 {
		return summary
	}

	column := func(scale float64, f func(Row) float64) Statistic {
		values := make([]float64, len(rows))
		for i, r := range rows {
			values[i] = f(r) * scale
		}
		sort.Float64s(values)
		return Statistic{
			Mean:   stat.Mean(values, nil),
			Median: median(values),
		}
	}

	summary.HalfLifeMinutes = column(1.0/60, func(r Row) float64 { return r.HalfLife })
	summary.BranchingFactor = column(1, func(r Row) float64 { return r.BranchingFactor })
	summary.HarmPercent = column(100, func(r Row) float64 { return r.Harm })
	summary.ReactionDelay = column(1, func(r Row) float64 { return r.ReactionDelay })
	return summary
}

// median of sorted values, averaging the two middle values for even counts.
// stat.Quantile with the empirical CDF would pick the lower one.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}

	return stat.Mean(sorted[n/2-1:n/2+1], nil)
}
