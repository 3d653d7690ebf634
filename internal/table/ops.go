package table

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Group returns the mean of every numeric column per distinct value of
// column. Null keys are dropped and rows are ordered by the key's natural
// order. The key column comes first, followed by the numeric means.
func Group(t *Table, column string) (*Table, error) {
	key, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	keys, members := distinct(key)
	sort.SliceStable(keys, func(i, j int) bool {
		return compareValues(keys[i], keys[j]) < 0
	})

	keyVals := make([]any, len(keys))
	copy(keyVals, keys)
	out := []*Column{{Name: key.Name, Kind: key.Kind, Values: keyVals}}
	for _, c := range t.Columns() {
		if c == key || c.Kind != KindNumeric {
			continue
		}
		means := make([]any, len(keys))
		for g, k := range keys {
			var vals []float64
			for _, i := range members[keyOf(k)] {
				if f, ok := c.Float(i); ok {
					vals = append(vals, f)
				}
			}
			if len(vals) > 0 {
				means[g] = stat.Mean(vals, nil)
			}
		}
		out = append(out, &Column{Name: c.Name, Kind: KindNumeric, Values: means})
	}
	return FromColumns(out...)
}

// distinct returns the non-null values of c in first-appearance order and
// the row indexes holding each value.
func distinct(c *Column) ([]any, map[string][]int) {
	var order []any
	members := make(map[string][]int)
	for i, v := range c.Values {
		if IsNull(v) {
			continue
		}
		k := keyOf(v)
		if _, seen := members[k]; !seen {
			order = append(order, v)
		}
		members[k] = append(members[k], i)
	}
	return order, members
}

// Distinct exposes the grouping helper: values in first-appearance order and
// the rows of each, keyed by Key.
func Distinct(c *Column) ([]any, map[string][]int) { return distinct(c) }

// Key returns the grouping identity of a cell.
func Key(v any) string { return keyOf(v) }

// SortValues orders cells the way Group orders keys.
func SortValues(vals []any) {
	sort.SliceStable(vals, func(i, j int) bool { return compareValues(vals[i], vals[j]) < 0 })
}

// Filter returns the rows where column equals value, in their original
// order. Text operands are parsed to the column's kind first, so "3" matches
// the number 3 in a numeric column.
func Filter(t *Table, column string, value any) (*Table, error) {
	c, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	want := coerceTo(value, c.Kind)
	var idx []int
	for i, v := range c.Values {
		if equalValues(v, want) {
			idx = append(idx, i)
		}
	}
	return t.selectRows(idx), nil
}

// Head returns the first n rows.
func Head(t *Table, n int) *Table {
	if t == nil {
		return nil
	}
	if n < 0 || n > t.rows {
		n = t.rows
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return t.selectRows(idx)
}

// Encoding is the numeric representation of a column.
type Encoding struct {
	// Labels lists the distinct text values in first-appearance order; nil
	// for numeric columns.
	Labels []string
	// Mapping sends each label to its code (its position in Labels).
	Mapping map[string]int
	// Values holds one number per row; nulls are NaN.
	Values []float64
}

// Encode converts a column to numbers for charting. Numeric columns pass
// through. Other columns are coded 0, 1, 2, ... by the first appearance of
// each value, so row order determines the codes.
func Encode(c *Column) Encoding {
	enc := Encoding{Values: make([]float64, c.Len())}
	if c.Kind == KindNumeric {
		for i := range enc.Values {
			if f, ok := c.Float(i); ok {
				enc.Values[i] = f
			} else {
				enc.Values[i] = math.NaN()
			}
		}
		return enc
	}
	enc.Mapping = make(map[string]int)
	for i, v := range c.Values {
		if IsNull(v) {
			enc.Values[i] = math.NaN()
			continue
		}
		label := FormatValue(v)
		code, ok := enc.Mapping[label]
		if !ok {
			code = len(enc.Labels)
			enc.Mapping[label] = code
			enc.Labels = append(enc.Labels, label)
		}
		enc.Values[i] = float64(code)
	}
	return enc
}
