package charts

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Statistics is the derived summary of one chart variant.
type Statistics interface {
	// Fields lists the statistics as name/value pairs in display order.
	Fields() []Field
}

// Field is one named statistic. Value is a float64, int, string or []string.
type Field struct {
	Name  string
	Value any
}

// String formats the value for display; NaN prints as "NaN".
func (f Field) String() string {
	switch v := f.Value.(type) {
	case float64:
		return strconv.FormatFloat(v, 'g', 6, 64)
	case int:
		return strconv.Itoa(v)
	case []string:
		return strings.Join(v, ", ")
	case string:
		return v
	}
	return ""
}

// BarStats describes a category distribution. Modes holds every category
// sharing the highest count.
type BarStats struct {
	Unique int
	Modes  []string
}

// Proportion is a pie slice's share of the total.
type Proportion struct {
	Label string
	Share float64
}

// PieStats lists each slice's share, in slice order.
type PieStats struct {
	Proportions []Proportion
}

// HistogramStats describes the binned values. Std is NaN below two values,
// Skew below three.
type HistogramStats struct {
	Count  int
	Mean   float64
	Median float64
	Std    float64
	Skew   float64
}

// RegressionStats is an ordinary least squares fit of y on x. Slope,
// Intercept and R are NaN when x (or, for R, y) has no variance.
type RegressionStats struct {
	N         int
	Slope     float64
	Intercept float64
	R         float64
}

// AreaStats is the trapezoidal area under the series with unit spacing.
type AreaStats struct {
	Area float64
}

// BoxStats repeats the five-number summary.
type BoxStats struct {
	Min, Q1, Median, Q3, Max float64
}

func (s *BarStats) Fields() []Field {
	return []Field{{"unique", s.Unique}, {"mode", s.Modes}}
}

func (s *PieStats) Fields() []Field {
	out := make([]Field, len(s.Proportions))
	for i, p := range s.Proportions {
		out[i] = Field{p.Label, p.Share}
	}
	return out
}

func (s *HistogramStats) Fields() []Field {
	return []Field{{"count", s.Count}, {"mean", s.Mean}, {"median", s.Median}, {"std", s.Std}, {"skew", s.Skew}}
}

func (s *RegressionStats) Fields() []Field {
	return []Field{{"n", s.N}, {"slope", s.Slope}, {"intercept", s.Intercept}, {"r", s.R}}
}

func (s *AreaStats) Fields() []Field { return []Field{{"area", s.Area}} }

func (s *BoxStats) Fields() []Field {
	return []Field{{"min", s.Min}, {"q1", s.Q1}, {"median", s.Median}, {"q3", s.Q3}, {"max", s.Max}}
}

// FieldsJSON encodes statistics as an object keyed by field name, with
// undefined numbers as null.
func FieldsJSON(s Statistics) ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	var b strings.Builder
	b.WriteByte('{')
	for i, f := range s.Fields() {
		if i > 0 {
			b.WriteByte(',')
		}
		k, _ := json.Marshal(f.Name)
		b.Write(k)
		b.WriteByte(':')
		v := f.Value
		if x, ok := v.(float64); ok {
			v = finite(x)
		}
		enc, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		b.Write(enc)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}
