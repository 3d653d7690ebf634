package analysis

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/statloom/internal/table"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Agg names an aggregation over a group of numbers.
type Agg string

const (
	AggMean   Agg = "mean"
	AggSum    Agg = "sum"
	AggMin    Agg = "min"
	AggMax    Agg = "max"
	AggCount  Agg = "count"
	AggMedian Agg = "median"
	AggStd    Agg = "std"
)

// DefaultAggs are used by GroupedAggregate when none are given.
var DefaultAggs = []Agg{AggMean, AggSum, AggMax, AggMin}

// ErrUnknownAgg is returned by ParseAgg for unsupported names.
var ErrUnknownAgg = errors.New("unknown aggregation")

// ParseAgg maps a name such as "Mean" or "avg" to an Agg. Empty input is mean.
func ParseAgg(s string) (Agg, error) {
	switch a := Agg(strings.ToLower(strings.TrimSpace(s))); a {
	case "", "avg", "average":
		return AggMean, nil
	case AggMean, AggSum, AggMin, AggMax, AggCount, AggMedian, AggStd:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAgg, s)
}

// ParseAggs parses a comma separated list.
func ParseAggs(s string) ([]Agg, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []Agg
	for _, part := range strings.Split(s, ",") {
		a, err := ParseAgg(part)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Apply aggregates vals. Sum and count of nothing are 0; every other
// aggregation of nothing is NaN, as is std of a single value.
func (a Agg) Apply(vals []float64) float64 {
	switch a {
	case AggCount:
		return float64(len(vals))
	case AggSum:
		return floats.Sum(vals)
	}
	if len(vals) == 0 {
		return math.NaN()
	}
	switch a {
	case AggMin:
		return floats.Min(vals)
	case AggMax:
		return floats.Max(vals)
	case AggMedian:
		return Quantile(sortedCopy(vals), 0.5)
	case AggStd:
		if len(vals) < 2 {
			return math.NaN()
		}
		return stat.StdDev(vals, nil)
	}
	return stat.Mean(vals, nil)
}

// PivotTable is a cross-tabulation of one numeric column. Combinations with
// no values are absent: their cell is NaN and Lookup reports ok=false.
type PivotTable struct {
	Index   string
	Columns string
	Values  string
	Agg     Agg
	RowKeys []string
	ColKeys []string
	Cells   [][]float64

	present [][]bool
	rowPos  map[string]int
	colPos  map[string]int
}

// Lookup returns the aggregated cell for a row key and column key.
func (p *PivotTable) Lookup(row, col string) (float64, bool) {
	if p == nil {
		return math.NaN(), false
	}
	i, okr := p.rowPos[row]
	j, okc := p.colPos[col]
	if !okr || !okc || !p.present[i][j] {
		return math.NaN(), false
	}
	return p.Cells[i][j], true
}

// Table renders the pivot as a table: the index column followed by one
// column per column key, absent cells null.
func (p *PivotTable) Table() (*table.Table, error) {
	names := append([]string{p.Index}, p.ColKeys...)
	rows := make([][]any, len(p.RowKeys))
	for i, rk := range p.RowKeys {
		row := make([]any, len(names))
		row[0] = rk
		for j := range p.ColKeys {
			if p.present[i][j] {
				row[j+1] = p.Cells[i][j]
			}
		}
		rows[i] = row
	}
	return table.New(names, rows)
}

// Pivot cross-tabulates values by the distinct values of index (rows) and
// columns, aggregating with agg (mean when empty). Keys are sorted in their
// natural order. Rows with a null key or a non-numeric value are skipped.
func Pivot(t *table.Table, index, columns, values string, agg Agg) (*PivotTable, error) {
	if agg == "" {
		agg = AggMean
	}
	ic, err := t.Column(index)
	if err != nil {
		return nil, err
	}
	cc, err := t.Column(columns)
	if err != nil {
		return nil, err
	}
	vc, err := t.Column(values)
	if err != nil {
		return nil, err
	}

	type cellKey struct{ r, c string }
	groups := map[cellKey][]float64{}
	var rowVals, colVals []any
	seenRow, seenCol := map[string]bool{}, map[string]bool{}
	for i := 0; i < t.Len(); i++ {
		rv, cv := ic.Values[i], cc.Values[i]
		if table.IsNull(rv) || table.IsNull(cv) {
			continue
		}
		x, ok := vc.Float(i)
		if !ok {
			continue
		}
		rk, ck := table.Key(rv), table.Key(cv)
		if !seenRow[rk] {
			seenRow[rk] = true
			rowVals = append(rowVals, rv)
		}
		if !seenCol[ck] {
			seenCol[ck] = true
			colVals = append(colVals, cv)
		}
		groups[cellKey{rk, ck}] = append(groups[cellKey{rk, ck}], x)
	}
	table.SortValues(rowVals)
	table.SortValues(colVals)

	p := &PivotTable{
		Index: ic.Name, Columns: cc.Name, Values: vc.Name, Agg: agg,
		RowKeys: labels(rowVals), ColKeys: labels(colVals),
		rowPos: map[string]int{}, colPos: map[string]int{},
	}
	for i, k := range p.RowKeys {
		p.rowPos[k] = i
	}
	for j, k := range p.ColKeys {
		p.colPos[k] = j
	}
	p.Cells = make([][]float64, len(rowVals))
	p.present = make([][]bool, len(rowVals))
	for i, rv := range rowVals {
		p.Cells[i] = make([]float64, len(colVals))
		p.present[i] = make([]bool, len(colVals))
		for j, cv := range colVals {
			vals, ok := groups[cellKey{table.Key(rv), table.Key(cv)}]
			if !ok {
				p.Cells[i][j] = math.NaN()
				continue
			}
			p.Cells[i][j] = agg.Apply(vals)
			p.present[i][j] = true
		}
	}
	return p, nil
}

// GroupedAggregates holds one row per group with one value per aggregation.
type GroupedAggregates struct {
	Group  string
	Target string
	Aggs   []Agg
	Keys   []string
	Values [][]float64 // Values[group][agg]
}

// Get returns the value of agg for the group labelled key.
func (g *GroupedAggregates) Get(key string, agg Agg) (float64, bool) {
	if g == nil {
		return math.NaN(), false
	}
	for i, k := range g.Keys {
		if k != key {
			continue
		}
		for j, a := range g.Aggs {
			if a == agg {
				return g.Values[i][j], true
			}
		}
	}
	return math.NaN(), false
}

// Table renders the aggregates with the group column first and one column
// named after each aggregation.
func (g *GroupedAggregates) Table() (*table.Table, error) {
	names := []string{g.Group}
	for _, a := range g.Aggs {
		names = append(names, string(a))
	}
	rows := make([][]any, len(g.Keys))
	for i, k := range g.Keys {
		row := []any{k}
		for _, v := range g.Values[i] {
			row = append(row, v)
		}
		rows[i] = row
	}
	return table.New(names, rows)
}

// GroupedAggregate applies aggs (DefaultAggs when empty) to target for each
// distinct non-null value of group, sorted by the group's natural order.
func GroupedAggregate(t *table.Table, group, target string, aggs ...Agg) (*GroupedAggregates, error) {
	if len(aggs) == 0 {
		aggs = DefaultAggs
	}
	gc, err := t.Column(group)
	if err != nil {
		return nil, err
	}
	tc, err := t.Column(target)
	if err != nil {
		return nil, err
	}
	keys, members := table.Distinct(gc)
	table.SortValues(keys)
	out := &GroupedAggregates{Group: gc.Name, Target: tc.Name, Aggs: aggs, Keys: labels(keys)}
	out.Values = make([][]float64, len(keys))
	for i, k := range keys {
		var vals []float64
		for _, r := range members[table.Key(k)] {
			if x, ok := tc.Float(r); ok {
				vals = append(vals, x)
			}
		}
		row := make([]float64, len(aggs))
		for j, a := range aggs {
			row[j] = a.Apply(vals)
		}
		out.Values[i] = row
	}
	return out, nil
}

func labels(vals []any) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = table.FormatValue(v)
	}
	return out
}
