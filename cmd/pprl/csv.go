package main

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/pprl-toolkit/pprl-go/internal/table"
)

// readCSVTable loads a table.Frame from a CSV file whose first row is
// the header. No example repo in the corpus parses CSV, so this is
// stdlib encoding/csv; the linkage core itself never depends on it.
func readCSVTable(path string) (*table.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(rows) == 0 {
		return table.NewFrame(0), nil
	}

	header := rows[0]
	body := rows[1:]
	frame := table.NewFrame(len(body))
	for col, name := range header {
		values := make([]any, len(body))
		for row, record := range body {
			if col < len(record) {
				values[row] = record[col]
			}
		}
		if err := frame.SetColumn(name, values); err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
	}
	return frame, nil
}

// writeCSVTable writes t out as CSV, columns in t.Columns() order.
func writeCSVTable(path string, t *table.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	cols := t.Columns()
	if err := w.Write(cols); err != nil {
		return err
	}
	record := make([]string, len(cols))
	for row := 0; row < t.Len(); row++ {
		for i, col := range cols {
			values, _ := t.Column(col)
			record[i] = table.Strings(values[row : row+1])[0]
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Error()
}
