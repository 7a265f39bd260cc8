// Package rowset decodes delimited-text input into string-keyed rows.
//
// The header line defines the column names, every following record becomes
// one Row, and empty lines are skipped. Values stay plain strings; no type
// coercion happens here.
package rowset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Row is one record of input data keyed by column name. Keys are
// case-sensitive exact strings. A missing column and an empty value are
// distinct conditions; callers that skip blanks must check both.
type Row map[string]string

// Get returns the value for a column and whether the column is present.
func (r Row) Get(column string) (string, bool) {
	v, ok := r[column]
	return v, ok
}

// Has reports whether the column is present, even with an empty value.
func (r Row) Has(column string) bool {
	_, ok := r[column]
	return ok
}

// Table pairs the header order with the decoded rows.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// RowCount returns the number of data rows in the table.
func (t *Table) RowCount() int {
	return len(t.Rows)
}

// HasColumn reports whether the header declared the given column.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// ReadCSV decodes comma-separated input. The first non-empty record is the
// header; header cells are trimmed, values are kept as read. Records shorter
// than the header leave the trailing columns absent (not empty). When two
// header cells share a name the later column wins, matching map assignment
// order.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var columns []string
	var rows []Row

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}
		if recordEmpty(record) {
			continue
		}

		if columns == nil {
			columns = headerColumns(record)
			continue
		}

		row := make(Row, len(columns))
		for i, name := range columns {
			if name == "" || i >= len(record) {
				continue
			}
			row[name] = record[i]
		}
		rows = append(rows, row)
	}

	if columns == nil {
		return nil, fmt.Errorf("CSV input is empty")
	}

	return &Table{Columns: nonEmpty(columns), Rows: rows}, nil
}

// ReadCSVFile decodes the CSV file at path.
func ReadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()

	table, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return table, nil
}

func headerColumns(record []string) []string {
	columns := make([]string, len(record))
	for i, cell := range record {
		if i == 0 {
			// Spreadsheet exports often prefix the first header cell
			// with a UTF-8 byte order mark.
			cell = strings.TrimPrefix(cell, "\uFEFF")
		}
		columns[i] = strings.TrimSpace(cell)
	}
	return columns
}

func recordEmpty(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func nonEmpty(columns []string) []string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}
