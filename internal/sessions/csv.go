package sessions

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

var (
	ErrNoMetrics = errors.New("no known metric columns")
	ErrNoRows    = errors.New("no data rows")

	// ErrMalformedCSV wraps every parse failure that names a row or column
	ErrMalformedCSV = errors.New("malformed CSV")
)

// Table holds the metric columns of one recording, one row per frame
type Table struct {
	// Order is the column order of the source file, unknown columns removed
	Order   []Metric
	Columns map[Metric][]float64
	Frames  int
}

// Values returns the column for m and whether it is present
func (t *Table) Values(m Metric) ([]float64, bool) {
	v, ok := t.Columns[m]
	return v, ok
}

// ReadCSV parses a header row followed by numeric rows. Columns are matched
// to the catalogue case-insensitively; other columns (frame counters,
// timestamps) are ignored. Every kept cell must be a finite number.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty file: %w", ErrNoRows)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %w", ErrMalformedCSV, err)
	}

	table := &Table{Columns: make(map[Metric][]float64)}
	positions := make(map[int]Metric)
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		m, ok := LookupMetric(name)
		if !ok {
			continue
		}
		if _, dup := table.Columns[m]; dup {
			return nil, fmt.Errorf("%w: column %d: duplicate metric %s", ErrMalformedCSV, i+1, m)
		}
		positions[i] = m
		table.Order = append(table.Order, m)
		table.Columns[m] = nil
	}
	if len(table.Order) == 0 {
		return nil, ErrNoMetrics
	}

	for row := 2; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %w", ErrMalformedCSV, row, err)
		}

		for i, m := range positions {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[i]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d, column %s: %q is not a number", ErrMalformedCSV, row, m, record[i])
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: row %d, column %s: non-finite value %q", ErrMalformedCSV, row, m, record[i])
			}
			table.Columns[m] = append(table.Columns[m], v)
		}
		table.Frames++
	}

	if table.Frames == 0 {
		return nil, ErrNoRows
	}
	return table, nil
}
