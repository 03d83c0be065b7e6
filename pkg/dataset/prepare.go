package dataset

import (
	"math"
	"sort"

	"github.com/c9s/hawkes/pkg/hawkes"
)

// RawRecord is one collected interaction before cleaning.
type RawRecord struct {
	// Time is the unix timestamp in seconds
	Time float64

	// Followers is the audience size of the author
	Followers float64

	// HasAuthor is false when the author profile could not be resolved
	HasAuthor bool

	// IsPost marks original posts, as opposed to reshares and replies
	IsPost bool
}

// DefaultMark is the mark given to records of unknown authors: the mean of
// the power-law follower distribution, (alpha-1)/(alpha-2), rounded half to
// even.
func DefaultMark(alpha float64) float64 {
	return math.RoundToEven((alpha - 1) / (alpha - 2))
}

// Prepare turns raw records into a fit-ready series. Records are sorted by
// time and records sharing a timestamp are merged: their marks are summed and
// the post flag of the first one is kept. Times are shifted by origin and
// zero marks are replaced with 1, the likelihood needs positive marks.
func Prepare(records []RawRecord, alpha, origin float64) hawkes.Series {
	sorted := make([]RawRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time < sorted[j].Time
	})

	defaultMark := DefaultMark(alpha)

	var events []hawkes.Event
	for i, r := range sorted {
		mark := r.Followers
		if !r.HasAuthor {
			mark = defaultMark
		}

		if i > 0 && r.Time == sorted[i-1].Time {
			events[len(events)-1].Mark += mark
			continue
		}

		events = append(events, hawkes.Event{
			Time: r.Time - origin,
			Mark: mark,
			Post: r.IsPost,
		})
	}

	for i := range events {
		if events[i].Mark == 0 {
			events[i].Mark = 1
		}
	}

	log.Infof("prepared %d events from %d records", len(events), len(records))
	return hawkes.NewSeries(events)
}
