package export

import "errors"

// ErrNoColumns is returned when a dataset has no headers.
var ErrNoColumns = errors.New("export: dataset has no columns")

// Dataset is a header-ordered table of string cells.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// Record returns row i's cells in header order.
func (d Dataset) Record(i int) []string {
	out := make([]string, len(d.Headers))
	for j, h := range d.Headers {
		out[j] = d.Rows[i][h]
	}
	return out
}
