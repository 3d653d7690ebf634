package analysis

import (
	"math"
	"sort"

	"github.com/KaramelBytes/statloom/internal/table"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ColumnDescription is one column of a describe() style summary. Numeric is
// set for numeric columns, Categorical for every other kind.
type ColumnDescription struct {
	Name        string
	Kind        table.Kind
	Count       int
	Numeric     *NumericSummary
	Categorical *CategoricalSummary
}

// NumericSummary holds location and spread of a numeric column. Fields are
// NaN when the column has no values (Std also when it has a single value).
type NumericSummary struct {
	Mean   float64
	Std    float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// CategoricalSummary holds the distinct count and most frequent value.
// Ties for the top value go to the one seen first.
type CategoricalSummary struct {
	Unique int
	Top    string
	Freq   int
}

// Describe summarizes every column of t in column order.
func Describe(t *table.Table) []ColumnDescription {
	cols := t.Columns()
	out := make([]ColumnDescription, 0, len(cols))
	for _, c := range cols {
		d := ColumnDescription{Name: c.Name, Kind: c.Kind, Count: c.NonNull()}
		if c.Kind == table.KindNumeric {
			d.Numeric = summarizeNumeric(c.Floats())
		} else {
			d.Categorical = summarizeCategorical(c)
		}
		out = append(out, d)
	}
	return out
}

func summarizeNumeric(vals []float64) *NumericSummary {
	nan := math.NaN()
	if len(vals) == 0 {
		return &NumericSummary{Mean: nan, Std: nan, Min: nan, Q1: nan, Median: nan, Q3: nan, Max: nan}
	}
	sorted := sortedCopy(vals)
	s := &NumericSummary{
		Mean:   stat.Mean(vals, nil),
		Std:    nan,
		Min:    sorted[0],
		Q1:     Quantile(sorted, 0.25),
		Median: Quantile(sorted, 0.5),
		Q3:     Quantile(sorted, 0.75),
		Max:    sorted[len(sorted)-1],
	}
	if len(vals) > 1 {
		s.Std = stat.StdDev(vals, nil)
	}
	return s
}

func summarizeCategorical(c *table.Column) *CategoricalSummary {
	order, members := table.Distinct(c)
	s := &CategoricalSummary{Unique: len(order)}
	for _, v := range order {
		if n := len(members[table.Key(v)]); n > s.Freq {
			s.Top = table.FormatValue(v)
			s.Freq = n
		}
	}
	return s
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

// At returns the correlation of two columns by name.
func (m *CorrMatrix) At(a, b string) (float64, bool) {
	if m == nil {
		return math.NaN(), false
	}
	i, j := -1, -1
	for k, name := range m.Columns {
		if name == a {
			i = k
		}
		if name == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return math.NaN(), false
	}
	return m.Values[i][j], true
}

// CorrelationMatrix computes Pearson correlations between the numeric
// columns of t using pairwise-complete rows. The diagonal is 1; an entry is
// NaN when either side has zero variance or fewer than two complete pairs.
func CorrelationMatrix(t *table.Table) *CorrMatrix {
	var numeric []*table.Column
	for _, c := range t.Columns() {
		if c.Kind == table.KindNumeric {
			numeric = append(numeric, c)
		}
	}
	n := len(numeric)
	m := &CorrMatrix{Columns: make([]string, n), Values: make([][]float64, n)}
	for i, c := range numeric {
		m.Columns[i] = c.Name
		m.Values[i] = make([]float64, n)
		m.Values[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r := pearson(numeric[i], numeric[j], nil)
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}
	return m
}

// pearson correlates two columns over the rows (all rows when nil) where
// both are present.
func pearson(a, b *table.Column, rows []int) float64 {
	x, y := completePairs(a, b, rows)
	return correlation(x, y)
}

func completePairs(a, b *table.Column, rows []int) (x, y []float64) {
	if rows == nil {
		rows = make([]int, a.Len())
		for i := range rows {
			rows[i] = i
		}
	}
	for _, i := range rows {
		xv, okx := a.Float(i)
		yv, oky := b.Float(i)
		if okx && oky {
			x = append(x, xv)
			y = append(y, yv)
		}
	}
	return x, y
}

func correlation(x, y []float64) float64 {
	if len(x) < 2 || constant(x) || constant(y) {
		return math.NaN()
	}
	r := stat.Correlation(x, y, nil)
	return math.Max(-1, math.Min(1, r))
}

func constant(vals []float64) bool {
	return floats.Min(vals) == floats.Max(vals)
}

func sortedCopy(vals []float64) []float64 {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return cp
}

// Quantile returns the q-th quantile of sorted values, interpolating
// linearly between order statistics. It is NaN for no values.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := sortedCopy(vals)
	median = Quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = Quantile(dev, 0.5)
	return
}
