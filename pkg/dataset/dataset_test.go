package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c9s/hawkes/pkg/hawkes"
)

func TestDefaultMark(t *testing.T) {
	// (2.016-1)/(2.016-2) is 63.5 on paper but 63.49999999999994 in float64
	assert.Equal(t, 63.0, DefaultMark(hawkes.DefaultAlpha))
	assert.Equal(t, 2.0, DefaultMark(3))
}

func TestPrepare(t *testing.T) {
	records := []RawRecord{
		{Time: 110, Followers: 5, HasAuthor: true},
		{Time: 100, Followers: 0, HasAuthor: true, IsPost: true},
		{Time: 105, HasAuthor: false, IsPost: true},
		{Time: 110, Followers: 7, HasAuthor: true, IsPost: true},
		{Time: 120, Followers: 0, HasAuthor: true},
	}

	s := Prepare(records, hawkes.DefaultAlpha, 100)
	require.NoError(t, s.Validate())
	assert.Equal(t, []float64{0, 5, 10, 20}, s.Times)
	assert.Equal(t, []float64{1, 64, 12, 1}, s.Marks)
	assert.Equal(t, []bool{true, true, false, false}, s.Posts)

	// input is left untouched
	assert.Equal(t, 110.0, records[0].Time)
}

func TestLoadEvents(t *testing.T) {
	input := "time\tmark\tpost\n" +
		"0\t3\ttrue\n" +
		"1.5\t20\tfalse\n" +
		"2024-01-01T00:00:10Z\t1\tpost\n" +
		"4\t2\n"

	s, err := LoadEvents(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 4, s.Len())
	assert.Equal(t, []float64{0, 1.5, 1704067210, 4}, s.Times)
	assert.Equal(t, []float64{3, 20, 1, 2}, s.Marks)
	assert.Equal(t, []bool{true, false, true, true}, s.Posts)
}

func TestLoadEvents_Malformed(t *testing.T) {
	_, err := LoadEvents(strings.NewReader("0\t1\n1\n"))
	assert.ErrorIs(t, err, ErrMalformedRow)

	_, err = LoadEvents(strings.NewReader("0\t1\n1\tabc\n"))
	assert.Error(t, err)
}

func TestLoadRecords(t *testing.T) {
	input := "created_at\tfollowers\tauthor\tstatus\n" +
		"2022-07-01T00:00:05Z\t120\t42\tpost\n" +
		"2022-07-01T00:00:07Z\t\t\treply\n"

	records, err := LoadRecords(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, RawRecord{Time: 1656633605, Followers: 120, HasAuthor: true, IsPost: true}, records[0])
	assert.Equal(t, RawRecord{Time: 1656633607}, records[1])

	origin, err := ParseTime("2022-07-01T00:00:00Z")
	require.NoError(t, err)
	s := Prepare(records, hawkes.DefaultAlpha, origin)
	assert.Equal(t, []float64{5, 7}, s.Times)
	// (2.016-1)/(2.016-2) is 63.49999999999994 in float64, so the default
	// mark rounds down to 63
	assert.Equal(t, []float64{120, 63}, s.Marks)
}
