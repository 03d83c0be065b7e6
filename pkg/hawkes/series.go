package hawkes

import (
	"github.com/pkg/errors"
)

var (
	ErrNonMonotonic    = errors.New("event series is not monotonically increasing")
	ErrLengthMismatch  = errors.New("event series arrays differ in length")
	ErrNonPositiveMark = errors.New("event mark must be positive")
)

// Event is a single observation: when it happened and how strongly it excites.
type Event struct {
	Time float64 `json:"time"`
	Mark float64 `json:"mark"`
	Post bool    `json:"post"`
}

// Series is the read-only input shared by every fit task. Times must be
// strictly increasing; Posts flags the primary events used for the baseline.
type Series struct {
	Times []float64
	Marks []float64
	Posts []bool
}

func NewSeries(events []Event) Series {
	s := Series{
		Times: make([]float64, len(events)),
		Marks: make([]float64, len(events)),
		Posts: make([]bool, len(events)),
	}

	for i, e := range events {
		s.Times[i] = e.Time
		s.Marks[i] = e.Mark
		s.Posts[i] = e.Post
	}

	return s
}

func (s Series) Len() int {
	return len(s.Times)
}

// Validate rejects a series that cannot be fitted. It is checked once before
// any task is dispatched.
func (s Series) Validate() error {
	if len(s.Marks) != len(s.Times) || len(s.Posts) != len(s.Times) {
		return errors.Wrapf(ErrLengthMismatch, "times=%d marks=%d posts=%d", len(s.Times), len(s.Marks), len(s.Posts))
	}

	if i := firstNonIncreasing(s.Times); i >= 0 {
		return errors.Wrapf(ErrNonMonotonic, "t[%d]=%v is not after t[%d]=%v", i, s.Times[i], i-1, s.Times[i-1])
	}

	for i, m := range s.Marks {
		if !(m > 0) {
			return errors.Wrapf(ErrNonPositiveMark, "mark[%d]=%v", i, m)
		}
	}

	return nil
}

// IsMonotonic reports whether the timestamps are strictly increasing.
func IsMonotonic(times []float64) bool {
	return firstNonIncreasing(times) < 0
}

func firstNonIncreasing(times []float64) int {
	for i := 1; i < len(times); i++ {
		if !(times[i] > times[i-1]) {
			return i
		}
	}
	return -1
}
