package table

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the inferred type of a column.
type Kind int

const (
	KindString Kind = iota
	KindNumeric
	KindBool
	KindDatetime
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindBool:
		return "bool"
	case KindDatetime:
		return "datetime"
	default:
		return "string"
	}
}

// ErrColumnNotFound is returned when a named column does not exist.
var ErrColumnNotFound = errors.New("column not found")

// Column is a named sequence of cells. A cell is nil (null), float64, bool,
// time.Time or string.
type Column struct {
	Name   string
	Kind   Kind
	Values []any
}

// Len returns the number of cells, nulls included.
func (c *Column) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Values)
}

// NonNull counts cells that are not null.
func (c *Column) NonNull() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, v := range c.Values {
		if !IsNull(v) {
			n++
		}
	}
	return n
}

// Floats returns the non-null cells coerced to numbers, dropping cells that
// cannot be coerced. Order follows the rows.
func (c *Column) Floats() []float64 {
	if c == nil {
		return nil
	}
	out := make([]float64, 0, len(c.Values))
	for _, v := range c.Values {
		if f, ok := ToFloat(v); ok {
			out = append(out, f)
		}
	}
	return out
}

// Float returns the i-th cell as a number.
func (c *Column) Float(i int) (float64, bool) {
	if c == nil || i < 0 || i >= len(c.Values) {
		return 0, false
	}
	return ToFloat(c.Values[i])
}

// Table is an ordered set of equally long, uniquely named columns. A Table is
// never mutated after construction; operations return new tables.
type Table struct {
	cols  []*Column
	index map[string]int
	rows  int
}

// New builds a table from column names and row-major cells. Names are
// normalized and de-duplicated; short rows are padded with nulls. Cell values
// are normalized (ints to float64, NaN to null) and kinds inferred.
func New(names []string, rows [][]any) (*Table, error) {
	cols := make([]*Column, len(names))
	for j, name := range UniqueNames(names) {
		cols[j] = &Column{Name: name, Values: make([]any, len(rows))}
	}
	for i, row := range rows {
		if len(row) > len(names) {
			return nil, fmt.Errorf("row %d has %d fields, header has %d", i+1, len(row), len(names))
		}
		for j, v := range row {
			cols[j].Values[i] = normalizeCell(v)
		}
	}
	for _, c := range cols {
		c.Kind = InferKind(c.Values)
	}
	return build(cols, len(rows)), nil
}

// FromColumns assembles a table from prepared columns. Kinds are kept when
// set on the input; names must already be unique.
func FromColumns(cols ...*Column) (*Table, error) {
	n := -1
	seen := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		if c == nil {
			return nil, errors.New("nil column")
		}
		if n >= 0 && len(c.Values) != n {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, len(c.Values), n)
		}
		n = len(c.Values)
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	if n < 0 {
		n = 0
	}
	return build(cols, n), nil
}

func build(cols []*Column, rows int) *Table {
	t := &Table{cols: cols, index: make(map[string]int, len(cols)), rows: rows}
	for i, c := range cols {
		t.index[c.Name] = i
	}
	return t
}

// Len returns the number of rows. A nil table has no rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return t.rows
}

// Width returns the number of columns.
func (t *Table) Width() int {
	if t == nil {
		return 0
	}
	return len(t.cols)
}

// Empty reports whether the table is absent or has no rows.
func (t *Table) Empty() bool { return t.Len() == 0 }

// Names returns the column names in order.
func (t *Table) Names() []string {
	if t == nil {
		return nil
	}
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// Columns returns the columns in order. Callers must not modify them.
func (t *Table) Columns() []*Column {
	if t == nil {
		return nil
	}
	return t.cols
}

// Column looks up a column by name. The lookup normalizes the name the same
// way loaders do.
func (t *Table) Column(name string) (*Column, error) {
	if t != nil {
		if i, ok := t.index[name]; ok {
			return t.cols[i], nil
		}
		if i, ok := t.index[NormalizeName(name)]; ok {
			return t.cols[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
}

// Row returns the cells of row i in column order.
func (t *Table) Row(i int) []any {
	if t == nil || i < 0 || i >= t.rows {
		return nil
	}
	out := make([]any, len(t.cols))
	for j, c := range t.cols {
		out[j] = c.Values[i]
	}
	return out
}

// StringRow returns row i formatted for display.
func (t *Table) StringRow(i int) []string {
	row := t.Row(i)
	out := make([]string, len(row))
	for j, v := range row {
		out[j] = FormatValue(v)
	}
	return out
}

// selectRows returns a table holding the given rows, keeping column kinds.
func (t *Table) selectRows(idx []int) *Table {
	cols := make([]*Column, len(t.cols))
	for j, c := range t.cols {
		vals := make([]any, len(idx))
		for k, i := range idx {
			vals[k] = c.Values[i]
		}
		cols[j] = &Column{Name: c.Name, Kind: c.Kind, Values: vals}
	}
	return build(cols, len(idx))
}

// NormalizeName trims and lower-cases a column name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// UniqueNames normalizes names, fills blanks with "unnamed: <pos>" and
// suffixes duplicates with ".1", ".2", ...
func UniqueNames(names []string) []string {
	out := make([]string, len(names))
	seen := make(map[string]int, len(names))
	for i, raw := range names {
		name := NormalizeName(raw)
		if name == "" {
			name = "unnamed: " + strconv.Itoa(i)
		}
		base := name
		for {
			if _, dup := seen[name]; !dup {
				break
			}
			seen[base]++
			name = base + "." + strconv.Itoa(seen[base])
		}
		seen[name] = 0
		out[i] = name
	}
	return out
}
