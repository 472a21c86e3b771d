package sheet

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Table is a whole sheet: a header row followed by data rows. Cells are kept as the strings a
// spreadsheet would hold; typing happens in the layer above.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Record is a single row keyed by column name.
type Record map[string]string

// NewTable returns an empty table with a copy of the given header.
func NewTable(name string, header []string) *Table {
	return &Table{
		Name:   name,
		Header: append([]string{}, header...),
		Rows:   [][]string{},
	}
}

// Clone returns a deep copy so that callers can mutate without touching a store's copy.
func (t *Table) Clone() *Table {
	c := &Table{
		Name:   t.Name,
		Header: append([]string{}, t.Header...),
		Rows:   make([][]string, 0, len(t.Rows)),
	}

	for _, row := range t.Rows {
		c.Rows = append(c.Rows, append([]string{}, row...))
	}

	return c
}

// ColumnIndex returns the position of the column or -1.
func (t *Table) ColumnIndex(col string) int {
	for i, h := range t.Header {
		if strings.EqualFold(strings.TrimSpace(h), col) {
			return i
		}
	}

	return -1
}

// Compact drops rows whose first cell is blank. Spreadsheets hand back padding rows and
// cleared rows this way; they are placeholders, not data.
func (t *Table) Compact() {
	rows := t.Rows[:0]

	for _, row := range t.Rows {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}

		rows = append(rows, row)
	}

	t.Rows = rows
}

// Records returns the non-blank rows as column-keyed records, in sheet order.
func (t *Table) Records() []Record {
	records := []Record{}

	for _, row := range t.Rows {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}

		records = append(records, t.record(row))
	}

	return records
}

func (t *Table) record(row []string) Record {
	rec := make(Record, len(t.Header))

	for i, col := range t.Header {
		if i < len(row) {
			rec[col] = row[i]
		} else {
			rec[col] = ""
		}
	}

	return rec
}

// EnsureColumns adds any missing columns to the end of the header. Existing rows get blank
// cells. Columns are never removed, so the schema only grows.
func (t *Table) EnsureColumns(cols ...string) {
	for _, col := range cols {
		if t.ColumnIndex(col) >= 0 {
			continue
		}

		t.Header = append(t.Header, col)
	}

	for i, row := range t.Rows {
		for len(row) < len(t.Header) {
			row = append(row, "")
		}

		t.Rows[i] = row
	}
}

// Append adds records as new rows, reconciling columns on both sides: record columns the header
// lacks are added to the header, and header columns the record lacks are left blank.
func (t *Table) Append(records ...Record) {
	for _, rec := range records {
		t.EnsureColumns(rec.Columns()...)

		row := make([]string, len(t.Header))
		for col, val := range rec {
			row[t.ColumnIndex(col)] = val
		}

		t.Rows = append(t.Rows, row)
	}
}

// Set writes a cell in an existing row.
func (t *Table) Set(rowIdx int, col, val string) {
	t.EnsureColumns(col)
	t.Rows[rowIdx][t.ColumnIndex(col)] = val
}

// Get reads a cell; missing columns read as blank.
func (t *Table) Get(rowIdx int, col string) string {
	idx := t.ColumnIndex(col)
	if idx < 0 || idx >= len(t.Rows[rowIdx]) {
		return ""
	}

	return t.Rows[rowIdx][idx]
}

// MaxInt returns the largest integer in the column, coercing unparseable cells to 0.
func (t *Table) MaxInt(col string) int {
	max := 0

	for i, row := range t.Rows {
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}

		if v := ParseInt(t.Get(i, col), 0); v > max {
			max = v
		}
	}

	return max
}

// Columns lists the record's column names in a stable order.
func (r Record) Columns() []string {
	cols := make([]string, 0, len(r))
	for col := range r {
		cols = append(cols, col)
	}

	sort.Strings(cols)

	return cols
}

// Int returns the column coerced to an int, or fallback if the cell is not numeric.
func (r Record) Int(col string, fallback int) int {
	return ParseInt(r[col], fallback)
}

// Float returns the column coerced to a float, or fallback.
func (r Record) Float(col string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(r[col]), 64)
	if err != nil || math.IsNaN(v) {
		return fallback
	}

	return v
}

// String returns the trimmed cell. Spreadsheet exports of missing values ("nan", "None") read as blank.
func (r Record) String(col string) string {
	v := strings.TrimSpace(r[col])

	switch strings.ToLower(v) {
	case "nan", "none", "null":
		return ""
	}

	return v
}

// ParseInt coerces a cell to an int. Integral floats such as "3.0" are accepted because
// spreadsheet clients frequently write numbers that way.
func ParseInt(cell string, fallback int) int {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return fallback
	}

	if v, err := strconv.Atoi(cell); err == nil {
		return v
	}

	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}

	return int(f)
}

// FormatInt renders an int cell.
func FormatInt(v int) string {
	return strconv.Itoa(v)
}
