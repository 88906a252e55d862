package inventory

import (
	"emperror.dev/errors"
	"golang.org/x/exp/slices"
)

// Table is an ordered list of columns with text rows.
// Every cell is text; a blank cell is the empty string.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

func NewTable(columns []string, rows ...[]string) (*Table, error) {
	t := &Table{
		columns: slices.Clone(columns),
		index:   make(map[string]int, len(columns)),
		rows:    make([][]string, 0, len(rows)),
	}
	for i, col := range t.columns {
		if _, ok := t.index[col]; ok {
			return nil, errors.Errorf("duplicate column '%s'", col)
		}
		t.index[col] = i
	}
	for num, row := range rows {
		if len(row) != len(t.columns) {
			return nil, errors.Errorf("row %d has %d values, expected %d", num, len(row), len(t.columns))
		}
		t.rows = append(t.rows, slices.Clone(row))
	}
	return t, nil
}

func (t *Table) Columns() []string {
	return slices.Clone(t.columns)
}

func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) Empty() bool {
	return len(t.rows) == 0
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []string {
	return slices.Clone(t.rows[i])
}

// Value returns the cell of row i in column. ok is false if the column does not exist.
func (t *Table) Value(i int, column string) (value string, ok bool) {
	idx, ok := t.index[column]
	if !ok {
		return "", false
	}
	return t.rows[i][idx], true
}

// Column returns all values of the named column in row order.
func (t *Table) Column(name string) ([]string, bool) {
	idx, ok := t.index[name]
	if !ok {
		return nil, false
	}
	result := make([]string, 0, len(t.rows))
	for _, row := range t.rows {
		result = append(result, row[idx])
	}
	return result, true
}

// Distinct returns the distinct values of a column in first-seen order.
func (t *Table) Distinct(name string) []string {
	values, ok := t.Column(name)
	if !ok {
		return []string{}
	}
	result := []string{}
	seen := map[string]bool{}
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		result = append(result, v)
	}
	return result
}

// WithColumn returns a copy of t where every row carries value in column name.
// The column is appended if it does not exist.
func (t *Table) WithColumn(name, value string) *Table {
	columns := t.Columns()
	idx, ok := t.index[name]
	if !ok {
		columns = append(columns, name)
		idx = len(columns) - 1
	}
	rows := make([][]string, 0, len(t.rows))
	for _, row := range t.rows {
		newRow := make([]string, len(columns))
		copy(newRow, row)
		newRow[idx] = value
		rows = append(rows, newRow)
	}
	nt, _ := NewTable(columns, rows...)
	return nt
}
