package tsv

import (
	"encoding/csv"
	"io"
)

type Writer struct {
	file io.WriteCloser

	*csv.Writer
}

func NewWriter(file io.WriteCloser) *Writer {
	tsv := csv.NewWriter(file)
	tsv.Comma = '\t'
	return &Writer{
		Writer: tsv,
		file:   file,
	}
}

// Close flushes buffered rows and closes the underlying file.
func (w *Writer) Close() error {
	w.Writer.Flush()
	if err := w.Writer.Error(); err != nil {
		_ = w.file.Close()
		return err
	}

	return w.file.Close()
}
