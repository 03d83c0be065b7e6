package optimizer

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/c9s/hawkes/pkg/data/tsv"
)

// FormatResultsTsv writes one row per trial: the trial id, every parameter
// label in alphabetical order, the state and the objective value.
func FormatResultsTsv(writer io.WriteCloser, labelPaths map[string]string, results []*HyperparameterOptimizeTrialResult) error {
	labels := make([]string, 0, len(labelPaths))
	for label := range labelPaths {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	headers := append([]string{"id"}, labels...)
	headers = append(headers, "state", "value")

	rows := make([][]interface{}, len(results))
	for ri, result := range results {
		row := make([]interface{}, 0, len(headers))
		if result.ID != nil {
			row = append(row, *result.ID)
		} else {
			row = append(row, ri)
		}

		for _, columnKey := range labels {
			val, ok := result.Parameters[columnKey]
			if !ok {
				return fmt.Errorf(`missing parameter "%s" from trial result (%v)`, columnKey, result.Parameters)
			}
			row = append(row, val)
		}

		row = append(row, result.State, result.Value)
		rows[ri] = row
	}

	w := tsv.NewWriter(writer)
	if err := w.Write(headers); err != nil {
		return err
	}

	for _, row := range rows {
		var cells []string
		for _, o := range row {
			cell, err := castCellValue(o)
			if err != nil {
				return err
			}
			cells = append(cells, cell)
		}

		if err := w.Write(cells); err != nil {
			return err
		}
	}
	return w.Close()
}

func castCellValue(a interface{}) (string, error) {
	switch tv := a.(type) {
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64), nil
	case int64:
		return strconv.FormatInt(tv, 10), nil
	case int32:
		return strconv.FormatInt(int64(tv), 10), nil
	case int:
		return strconv.Itoa(tv), nil
	case bool:
		return strconv.FormatBool(tv), nil
	case string:
		return tv, nil
	case []byte:
		return string(tv), nil
	default:
		return "", fmt.Errorf("unsupported object type: %T value: %v", tv, tv)
	}
}
