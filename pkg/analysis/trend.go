package analysis

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"github.com/sajari/regression"
)

var ErrNotEnoughWindows = errors.New("not enough windows for a trend")

// MinTrendWindows is the number of distinct windows a trend needs.
const MinTrendWindows = 3

// Trend is the least-squares line of the branching factor over the window
// index. A positive slope means the cascade is getting closer to critical.
type Trend struct {
	Windows   int     `json:"windows"`
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	R2        float64 `json:"r2"`
}

// Critical is the window index at which the trend line reaches n* = 1, or
// +Inf when it never does ahead of the data.
func (t Trend) Critical() float64 {
	if t.Slope <= 0 {
		return math.Inf(1)
	}

	return (1 - t.Intercept) / t.Slope
}

// BranchingTrend regresses the mean branching factor of every window on the
// window index.
func BranchingTrend(rows []Row) (*Trend, error) {
	sums := map[int]float64{}
	counts := map[int]int{}
	for _, r := range rows {
		sums[r.Window] += r.BranchingFactor
		counts[r.Window]++
	}

	if len(sums) < MinTrendWindows {
		return nil, errors.Wrapf(ErrNotEnoughWindows, "got %d, need %d", len(sums), MinTrendWindows)
	}

	windows := make([]int, 0, len(sums))
	for w := range sums {
		windows = append(windows, w)
	}
	sort.Ints(windows)

	r := new(regression.Regression)
	r.SetObserved("branching factor")
	r.SetVar(0, "window")

	var dps regression.DataPoints
	for _, w := range windows {
		dps = append(dps, regression.DataPoint(sums[w]/float64(counts[w]), []float64{float64(w)}))
	}
	r.Train(dps...)

	if err := r.Run(); err != nil {
		return nil, errors.Wrap(err, "branching factor regression")
	}

	log.Debugf("branching factor trend: %v", r.Formula)
	return &Trend{
		Windows:   len(windows),
		Slope:     r.Coeff(1),
		Intercept: r.Coeff(0),
		R2:        r.R2,
	}, nil
}
