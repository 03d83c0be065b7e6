package analysis

import (
	"math"
	"sort"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"github.com/pkg/errors"

	"github.com/c9s/hawkes/pkg/hawkes"
)

// Optimum is a group of fits that converged to the same region of the
// parameter space.
type Optimum struct {
	Center hawkes.Params `json:"center"`
	Count  int           `json:"count"`
	Share  float64       `json:"share"`

	// MeanLogLikelihood is averaged over the members of the group
	MeanLogLikelihood float64 `json:"meanLoglike"`
}

// fitObservation is a fit placed in the clustering space. kappa and theta
// span several orders of magnitude, they are clustered in log space.
type fitObservation struct {
	coords  clusters.Coordinates
	loglike float64
}

func newFitObservation(r Row) fitObservation {
	return fitObservation{
		coords:  clusters.Coordinates{r.Params.Beta, math.Log(r.Params.Kappa), math.Log(r.Params.Theta)},
		loglike: r.LogLikelihood,
	}
}

func (o fitObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o fitObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

func fromCoordinates(c clusters.Coordinates) hawkes.Params {
	return hawkes.Params{Beta: c[0], Kappa: math.Exp(c[1]), Theta: math.Exp(c[2])}
}

// Optima partitions the fitted parameters of rows into at most k groups,
// largest first. Starts that land in different groups point at a likelihood
// surface with several local maxima.
func Optima(rows []Row, k int) ([]Optimum, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	if k <= 0 {
		return nil, errors.Errorf("invalid number of optima: %d", k)
	}

	if k > len(rows) {
		k = len(rows)
	}

	var observations clusters.Observations
	for _, r := range rows {
		observations = append(observations, newFitObservation(r))
	}

	km := kmeans.New()
	partition, err := km.Partition(observations, k)
	if err != nil {
		return nil, errors.Wrap(err, "kmeans partition")
	}

	var optima []Optimum
	for _, c := range partition {
		if len(c.Observations) == 0 {
			continue
		}

		sum := 0.0
		for _, o := range c.Observations {
			if fo, ok := o.(fitObservation); ok {
				sum += fo.loglike
			}
		}

		optima = append(optima, Optimum{
			Center:            fromCoordinates(c.Center),
			Count:             len(c.Observations),
			Share:             float64(len(c.Observations)) / float64(len(rows)),
			MeanLogLikelihood: sum / float64(len(c.Observations)),
		})
	}

	sort.SliceStable(optima, func(i, j int) bool {
		return optima[i].Count > optima[j].Count
	})

	log.Infof("%d fits partitioned into %d optima", len(rows), len(optima))
	return optima, nil
}
