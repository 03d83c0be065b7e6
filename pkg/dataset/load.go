package dataset

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/c9s/hawkes/pkg/data/tsv"
	"github.com/c9s/hawkes/pkg/hawkes"
)

var log = logrus.WithField("component", "dataset")

var ErrMalformedRow = errors.New("malformed row")

// LoadEvents reads a series from rows of "time mark [post]". A header row is
// skipped; the post column defaults to true when absent.
func LoadEvents(r io.Reader) (hawkes.Series, error) {
	reader := tsv.NewReader(r)

	var events []hawkes.Event
	for line := 1; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return hawkes.Series{}, errors.Wrapf(err, "line %d", line)
		}

		if line == 1 && isHeader(row) {
			continue
		}

		if len(row) < 2 {
			return hawkes.Series{}, errors.Wrapf(ErrMalformedRow, "line %d: expected at least 2 columns, got %d", line, len(row))
		}

		ts, err := parseTime(row[0])
		if err != nil {
			return hawkes.Series{}, errors.Wrapf(err, "line %d: time", line)
		}

		mark, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			return hawkes.Series{}, errors.Wrapf(err, "line %d: mark", line)
		}

		post := true
		if len(row) > 2 {
			post = parsePost(row[2])
		}

		events = append(events, hawkes.Event{Time: ts, Mark: mark, Post: post})
	}

	return hawkes.NewSeries(events), nil
}

// LoadRecords reads raw records from rows of "time followers author status".
// An empty author column means the author is unknown.
func LoadRecords(r io.Reader) ([]RawRecord, error) {
	reader := tsv.NewReader(r)

	var records []RawRecord
	for line := 1; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}

		if line == 1 && isHeader(row) {
			continue
		}

		if len(row) < 4 {
			return nil, errors.Wrapf(ErrMalformedRow, "line %d: expected 4 columns, got %d", line, len(row))
		}

		ts, err := parseTime(row[0])
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: time", line)
		}

		record := RawRecord{
			Time:      ts,
			HasAuthor: strings.TrimSpace(row[2]) != "",
			IsPost:    parsePost(row[3]),
		}

		if record.HasAuthor {
			if record.Followers, err = strconv.ParseFloat(strings.TrimSpace(row[1]), 64); err != nil {
				return nil, errors.Wrapf(err, "line %d: followers", line)
			}
		}

		records = append(records, record)
	}

	return records, nil
}

// ParseTime accepts unix seconds or an RFC3339 timestamp.
func ParseTime(s string) (float64, error) {
	return parseTime(s)
}

func parseTime(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedRow, "unrecognized timestamp %q", s)
	}

	return float64(t.UnixNano()) / float64(time.Second), nil
}

func parsePost(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "post", "true", "1", "yes":
		return true
	}
	return false
}

func isHeader(row []string) bool {
	if len(row) == 0 {
		return false
	}

	_, err := parseTime(row[0])
	return err != nil
}
