package charts

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnknownKind is returned by ParseKind for unsupported chart names.
	ErrUnknownKind = errors.New("unknown chart kind")
	// ErrNotApplicable is returned by a setter the chart kind has no use for.
	ErrNotApplicable = errors.New("parameter not applicable to chart kind")
	// ErrInvalidRange reports a histogram range that is not finite or whose min
	// is above its max.
	ErrInvalidRange = errors.New("invalid range")
	// ErrInvalidBins reports a bin count below one.
	ErrInvalidBins = errors.New("bin count must be positive")
)

// DefaultBins is the histogram bin count when none is configured.
const DefaultBins = 10

// Kind names a chart variant.
type Kind string

const (
	KindBar       Kind = "bar"
	KindPie       Kind = "pie"
	KindHistogram Kind = "histogram"
	KindLine      Kind = "line"
	KindScatter   Kind = "scatter"
	KindArea      Kind = "area"
	KindBox       Kind = "box"
	KindBubble    Kind = "bubble"
)

// Kinds lists every chart kind in display order.
var Kinds = []Kind{KindBar, KindPie, KindHistogram, KindLine, KindScatter, KindArea, KindBox, KindBubble}

var kindAliases = map[string]Kind{
	"bar": KindBar, "pie": KindPie,
	"hist": KindHistogram, "histogram": KindHistogram,
	"line": KindLine, "scatter": KindScatter, "area": KindArea,
	"box": KindBox, "boxplot": KindBox,
	"bubble": KindBubble,
}

// ParseKind maps a user supplied name ("hist", "Box", ...) to a Kind.
func ParseKind(s string) (Kind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Title is the human name of the kind, e.g. "Bar Chart".
func (k Kind) Title() string {
	switch k {
	case KindHistogram:
		return "Histogram"
	case KindScatter:
		return "Scatter Plot"
	case KindBox:
		return "Box Plot"
	case "":
		return "Chart"
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:]) + " Chart"
}

// Spec is a chart request: one of *Bar, *Pie, *Histogram, *Line, *Scatter,
// *Area, *Box or *Bubble. The set is closed.
type Spec interface {
	Kind() Kind
	// Columns returns the table columns the chart reads, primary first.
	Columns() []string
	title() string
	sealed()
}

// Bar counts the values of one column.
type Bar struct {
	Column string
	Label  string
}

// MergeMap folds several category labels into a new one: new label -> old labels.
type MergeMap map[string][]string

// Pie shows each category's share of the total. Without ValueColumn the
// share is the category's row count; with it, the sum of ValueColumn.
type Pie struct {
	Column      string
	ValueColumn string
	Label       string
	Merge       MergeMap
}

// Range is a closed numeric interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Histogram bins the numeric values of one column. Bins of 0 means
// DefaultBins; a nil Range spans the data.
type Histogram struct {
	Column string
	Label  string
	Bins   int
	Range  *Range
}

// Line plots a column against its position, or against XColumn when set.
type Line struct {
	Column  string
	XColumn string
	Label   string
}

// Scatter plots a column against its position, or against XColumn when set.
type Scatter struct {
	Column  string
	XColumn string
	Label   string
}

// Area is a line chart filled down to a zero baseline.
type Area struct {
	Column  string
	XColumn string
	Label   string
}

// Box summarizes a column by its five-number summary.
type Box struct {
	Column string
	Label  string
}

// Bubble plots y against x with marker sizes from SizeColumn multiplied by
// Scale. A zero Scale means 1.
type Bubble struct {
	XColumn    string
	YColumn    string
	SizeColumn string
	Label      string
	Scale      float64
}

func (*Bar) Kind() Kind       { return KindBar }
func (*Pie) Kind() Kind       { return KindPie }
func (*Histogram) Kind() Kind { return KindHistogram }
func (*Line) Kind() Kind      { return KindLine }
func (*Scatter) Kind() Kind   { return KindScatter }
func (*Area) Kind() Kind      { return KindArea }
func (*Box) Kind() Kind       { return KindBox }
func (*Bubble) Kind() Kind    { return KindBubble }

func (s *Bar) Columns() []string { return []string{s.Column} }

func (s *Pie) Columns() []string {
	if s.ValueColumn == "" {
		return []string{s.Column}
	}
	return []string{s.Column, s.ValueColumn}
}

func (s *Histogram) Columns() []string { return []string{s.Column} }
func (s *Line) Columns() []string      { return withX(s.Column, s.XColumn) }
func (s *Scatter) Columns() []string   { return withX(s.Column, s.XColumn) }
func (s *Area) Columns() []string      { return withX(s.Column, s.XColumn) }
func (s *Box) Columns() []string       { return []string{s.Column} }

func (s *Bubble) Columns() []string {
	return []string{s.YColumn, s.XColumn, s.SizeColumn}
}

func withX(col, x string) []string {
	if x == "" {
		return []string{col}
	}
	return []string{col, x}
}

func (*Bar) sealed()       {}
func (*Pie) sealed()       {}
func (*Histogram) sealed() {}
func (*Line) sealed()      {}
func (*Scatter) sealed()   {}
func (*Area) sealed()      {}
func (*Box) sealed()       {}
func (*Bubble) sealed()    {}

func (s *Bar) title() string       { return s.Label }
func (s *Pie) title() string       { return s.Label }
func (s *Histogram) title() string { return s.Label }
func (s *Line) title() string      { return s.Label }
func (s *Scatter) title() string   { return s.Label }
func (s *Area) title() string      { return s.Label }
func (s *Box) title() string       { return s.Label }
func (s *Bubble) title() string    { return s.Label }

// Title returns the chart label, or "<Kind> (<column>)" /
// "<Kind> (<x> vs <y>)" when no label is set.
func Title(s Spec) string {
	if s == nil {
		return ""
	}
	if l := s.title(); l != "" {
		return l
	}
	var x, y string
	switch v := s.(type) {
	case *Line:
		x, y = v.XColumn, v.Column
	case *Scatter:
		x, y = v.XColumn, v.Column
	case *Area:
		x, y = v.XColumn, v.Column
	case *Bubble:
		x, y = v.XColumn, v.YColumn
	default:
		x = s.Columns()[0]
	}
	if x != "" && y != "" {
		return fmt.Sprintf("%s (%s vs %s)", s.Kind().Title(), x, y)
	}
	return fmt.Sprintf("%s (%s)", s.Kind().Title(), x+y)
}

// Selection names the columns picked for a chart: Column is the primary
// (y for two-axis charts), X the optional x column, Size the bubble size
// column and Values the pie value column.
type Selection struct {
	Column string
	X      string
	Size   string
	Values string
}

// NewSpec builds the spec of kind for the selected columns with default
// parameters.
func NewSpec(kind Kind, sel Selection) (Spec, error) {
	switch kind {
	case KindBar:
		return &Bar{Column: sel.Column}, nil
	case KindPie:
		return &Pie{Column: sel.Column, ValueColumn: sel.Values}, nil
	case KindHistogram:
		return &Histogram{Column: sel.Column, Bins: DefaultBins}, nil
	case KindLine:
		return &Line{Column: sel.Column, XColumn: sel.X}, nil
	case KindScatter:
		return &Scatter{Column: sel.Column, XColumn: sel.X}, nil
	case KindArea:
		return &Area{Column: sel.Column, XColumn: sel.X}, nil
	case KindBox:
		return &Box{Column: sel.Column}, nil
	case KindBubble:
		if sel.X == "" || sel.Size == "" {
			return nil, errors.New("bubble charts need x, y and size columns")
		}
		return &Bubble{XColumn: sel.X, YColumn: sel.Column, SizeColumn: sel.Size, Scale: 1}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// ParseMerge reads merge entries of the form "new=old1,old2".
func ParseMerge(entries []string) (MergeMap, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	m := MergeMap{}
	for _, e := range entries {
		target, olds, ok := strings.Cut(e, "=")
		target = strings.TrimSpace(target)
		if !ok || target == "" {
			return nil, fmt.Errorf("invalid merge %q: want new=old1,old2", e)
		}
		for _, o := range strings.Split(olds, ",") {
			if o = strings.TrimSpace(o); o != "" {
				m[target] = append(m[target], o)
			}
		}
	}
	return m, nil
}

// ParseRange reads "lo,hi".
func ParseRange(s string) (Range, error) {
	a, b, ok := strings.Cut(s, ",")
	if !ok {
		return Range{}, fmt.Errorf("%w: %q, want lo,hi", ErrInvalidRange, s)
	}
	lo, err1 := strconv.ParseFloat(strings.TrimSpace(a), 64)
	hi, err2 := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if err1 != nil || err2 != nil || !validRange(lo, hi) {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, s)
	}
	return Range{Min: lo, Max: hi}, nil
}
