package tsv

import (
	"encoding/csv"
	"io"
)

type Reader struct {
	*csv.Reader
}

// NewReader reads tab separated rows; lines starting with '#' are comments.
func NewReader(r io.Reader) *Reader {
	tsv := csv.NewReader(r)
	tsv.Comma = '\t'
	tsv.Comment = '#'
	tsv.FieldsPerRecord = -1
	tsv.ReuseRecord = false
	return &Reader{Reader: tsv}
}
