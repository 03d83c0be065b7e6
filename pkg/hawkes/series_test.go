package hawkes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMonotonic(t *testing.T) {
	assert.True(t, IsMonotonic(nil))
	assert.True(t, IsMonotonic([]float64{3}))
	assert.True(t, IsMonotonic([]float64{0, 0.5, 1, 20}))

	assert.False(t, IsMonotonic([]float64{0, 1, 1, 2}))
	assert.False(t, IsMonotonic([]float64{0, 2, 1}))
	assert.False(t, IsMonotonic([]float64{5, 4}))
}

func TestSeries_Validate(t *testing.T) {
	s := NewSeries([]Event{
		{Time: 0, Mark: 1, Post: true},
		{Time: 1.5, Mark: 20},
		{Time: 4, Mark: 3},
	})
	assert.NoError(t, s.Validate())
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []bool{true, false, false}, s.Posts)

	s.Times[2] = 1.5
	assert.ErrorIs(t, s.Validate(), ErrNonMonotonic)

	s = Series{Times: []float64{0, 1}, Marks: []float64{1}, Posts: []bool{true, true}}
	assert.ErrorIs(t, s.Validate(), ErrLengthMismatch)

	s = Series{Times: []float64{0, 1}, Marks: []float64{1, 0}, Posts: []bool{true, true}}
	assert.ErrorIs(t, s.Validate(), ErrNonPositiveMark)
}
