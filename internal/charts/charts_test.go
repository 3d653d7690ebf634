package charts

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/KaramelBytes/statloom/internal/table"
)

func column(t *testing.T, name string, vals ...any) *table.Table {
	t.Helper()
	rows := make([][]any, len(vals))
	for i, v := range vals {
		rows[i] = []any{v}
	}
	tb, err := table.New([]string{name}, rows)
	if err != nil {
		t.Fatalf("table.New: %v", err)
	}
	return tb
}

func mustPrepare(t *testing.T, p *Preparer) Payload {
	t.Helper()
	out, err := p.Prepare()
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	return out
}

func TestBarValueCounts(t *testing.T) {
	p := New(column(t, "c", "x", "x", "y", nil), &Bar{Column: "c"})
	got := mustPrepare(t, p).(*CategoryPayload)
	if strings.Join(got.Categories, ",") != "x,y" || got.Counts[0] != 2 || got.Counts[1] != 1 {
		t.Fatalf("payload = %+v", got)
	}
	axes, ok := p.DefaultAxes()
	if !ok || axes.Y != (Range{0, 2}) || len(axes.Categories) != 2 {
		t.Fatalf("axes = %+v %v", axes, ok)
	}
	st, ok := p.Statistics()
	if !ok {
		t.Fatalf("expected bar statistics")
	}
	bs := st.(*BarStats)
	if bs.Unique != 2 || len(bs.Modes) != 1 || bs.Modes[0] != "x" {
		t.Fatalf("stats = %+v", bs)
	}
}

func TestBarTiesKeepFirstAppearance(t *testing.T) {
	p := New(column(t, "c", "b", "a", "a", "b", "c"), &Bar{Column: "c"})
	got := mustPrepare(t, p).(*CategoryPayload)
	if strings.Join(got.Categories, ",") != "b,a,c" {
		t.Fatalf("categories = %v", got.Categories)
	}
	st, _ := p.Statistics()
	if modes := st.(*BarStats).Modes; strings.Join(modes, ",") != "b,a" {
		t.Fatalf("modes = %v", modes)
	}
}

func TestPieMerge(t *testing.T) {
	tb := column(t, "food", "apple", "apple", "apple", "banana", "banana", "carrot")
	p := New(tb, &Pie{Column: "food"})
	if err := p.SetMergeMap(MergeMap{"fruit": {"apple", "banana"}}); err != nil {
		t.Fatalf("SetMergeMap: %v", err)
	}
	got := mustPrepare(t, p).(*PiePayload)
	want := map[string]float64{"carrot": 1, "fruit": 5}
	if len(got.Labels) != 2 {
		t.Fatalf("labels = %v", got.Labels)
	}
	for i, l := range got.Labels {
		if want[l] != got.Values[i] {
			t.Fatalf("%s = %v, want %v", l, got.Values[i], want[l])
		}
	}
	if _, ok := p.DefaultAxes(); ok {
		t.Fatalf("pie charts have no axes")
	}
	st, ok := p.Statistics()
	if !ok {
		t.Fatalf("expected proportions")
	}
	for _, pr := range st.(*PieStats).Proportions {
		if pr.Label == "fruit" && math.Abs(pr.Share-5.0/6.0) > 1e-12 {
			t.Fatalf("fruit share = %v", pr.Share)
		}
	}
}

func TestPieMergeDropsNonPositive(t *testing.T) {
	labels, totals := applyMerge([]string{"a", "b", "c"}, []float64{2, -2, 1}, MergeMap{"z": {"a", "b"}, "c": {"missing"}})
	if strings.Join(labels, ",") != "c" || totals[0] != 1 {
		t.Fatalf("got %v %v", labels, totals)
	}
}

func TestPieMergeIntoExistingLabelDropsNonPositive(t *testing.T) {
	tb, err := table.New([]string{"k", "v"}, [][]any{{"a", 1}, {"b", -3}, {"c", 2}})
	if err != nil {
		t.Fatalf("table.New: %v", err)
	}
	p := New(tb, &Pie{Column: "k", ValueColumn: "v"})
	if err := p.SetMergeMap(MergeMap{"a": {"b"}}); err != nil {
		t.Fatalf("SetMergeMap: %v", err)
	}
	got := mustPrepare(t, p).(*PiePayload)
	if strings.Join(got.Labels, ",") != "c" || len(got.Values) != 1 || got.Values[0] != 2 {
		t.Fatalf("payload = %+v", got)
	}

	labels, totals := applyMerge([]string{"a", "b", "c"}, []float64{1, 3, 2}, MergeMap{"a": {"b"}})
	if strings.Join(labels, ",") != "a,c" || totals[0] != 4 {
		t.Fatalf("got %v %v", labels, totals)
	}
}

func TestPieValueColumn(t *testing.T) {
	tb, err := table.New([]string{"region", "sales"}, [][]any{{"south", 5}, {"north", 2}, {"south", 1}, {"north", nil}})
	if err != nil {
		t.Fatalf("table.New: %v", err)
	}
	got := mustPrepare(t, New(tb, &Pie{Column: "region", ValueColumn: "sales"})).(*PiePayload)
	if strings.Join(got.Labels, ",") != "north,south" || got.Values[0] != 2 || got.Values[1] != 6 {
		t.Fatalf("payload = %+v", got)
	}
}

func TestHistogramBins(t *testing.T) {
	p := New(column(t, "v", 1, 2, 3, 4, 5, 6, 7, 8, 9, 10), &Histogram{Column: "v"})
	if err := p.SetBins(5); err != nil {
		t.Fatalf("SetBins: %v", err)
	}
	got := mustPrepare(t, p).(*HistogramPayload)
	wantLabels := "1.0-2.8,2.8-4.6,4.6-6.4,6.4-8.2,8.2-10.0"
	if strings.Join(got.Bins, ",") != wantLabels {
		t.Fatalf("bins = %v", got.Bins)
	}
	total := 0
	for _, c := range got.Counts {
		if c != 2 {
			t.Fatalf("counts = %v", got.Counts)
		}
		total += c
	}
	if total != 10 {
		t.Fatalf("total = %d", total)
	}
	axes, ok := p.DefaultAxes()
	if !ok || axes.X != (Range{1, 10}) || axes.Y != (Range{0, 2}) {
		t.Fatalf("axes = %+v", axes)
	}
	st, _ := p.Statistics()
	hs := st.(*HistogramStats)
	if hs.Mean != 5.5 || hs.Median != 5.5 || math.Abs(hs.Std-3.0276503540974917) > 1e-9 || math.Abs(hs.Skew) > 1e-12 {
		t.Fatalf("stats = %+v", hs)
	}
}

func TestHistogramRangeAndConstant(t *testing.T) {
	p := New(column(t, "v", 1, 5, 5, 20), &Histogram{Column: "v", Bins: 2})
	if err := p.SetRange(0, 10); err != nil {
		t.Fatalf("SetRange: %v", err)
	}
	got := mustPrepare(t, p).(*HistogramPayload)
	if got.Counts[0] != 1 || got.Counts[1] != 2 {
		t.Fatalf("counts = %v", got.Counts)
	}
	if err := p.SetRange(4, 3); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if err := p.SetRange(math.Inf(-1), 3); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange for infinite bound, got %v", err)
	}
	if err := p.SetRange(5, 5); err != nil {
		t.Fatalf("SetRange(5, 5): %v", err)
	}
	point := mustPrepare(t, p).(*HistogramPayload)
	if strings.Join(point.Bins, ",") != "4.5-5.0,5.0-5.5" || point.Counts[0] != 0 || point.Counts[1] != 2 {
		t.Fatalf("zero-width range payload = %+v", point)
	}

	c := New(column(t, "v", 7, 7, 7), &Histogram{Column: "v", Bins: 1})
	one := mustPrepare(t, c).(*HistogramPayload)
	if one.Bins[0] != "6.5-7.5" || one.Counts[0] != 3 {
		t.Fatalf("constant data payload = %+v", one)
	}
	st, _ := c.Statistics()
	if hs := st.(*HistogramStats); hs.Std != 0 || hs.Skew != 0 {
		t.Fatalf("constant stats = %+v", hs)
	}
}

func TestHistogramExtremeSpan(t *testing.T) {
	p := New(column(t, "v", -1e308, 0, 1e308), &Histogram{Column: "v", Bins: 4})
	got := mustPrepare(t, p).(*HistogramPayload)
	want := []int{1, 0, 1, 1}
	for i, n := range want {
		if got.Counts[i] != n {
			t.Fatalf("counts = %v, want %v", got.Counts, want)
		}
	}

	r := New(column(t, "v", 1, 2, 3), &Histogram{Column: "v", Bins: 2})
	if err := r.SetRange(-1e308, 1e308); err != nil {
		t.Fatalf("SetRange: %v", err)
	}
	wide := mustPrepare(t, r).(*HistogramPayload)
	if wide.Counts[0] != 0 || wide.Counts[1] != 3 {
		t.Fatalf("counts = %v", wide.Counts)
	}
}

func TestHistogramAxesFallback(t *testing.T) {
	axes, ok := defaultAxes(&Histogram{}, &prepared{payload: &HistogramPayload{Bins: []string{"a", "b", "c"}, Counts: []int{1, 4, 2}}})
	if !ok || axes.X != (Range{0, 3}) || axes.Y != (Range{0, 4}) {
		t.Fatalf("axes = %+v", axes)
	}
	r, ok := histogramSpan([]string{"-1.5--0.5", "-0.5-0.5"})
	if !ok || r != (Range{-1.5, 0.5}) {
		t.Fatalf("negative span = %+v %v", r, ok)
	}
}

func TestLineRegression(t *testing.T) {
	p := New(column(t, "y", 1, "3", nil, 5, "n/a", 7), &Line{Column: "y"})
	got := mustPrepare(t, p).(*SeriesPayload)
	if len(got.X) != 4 || got.X[3] != 3 || got.Y[1] != 3 {
		t.Fatalf("payload = %+v", got)
	}
	axes, _ := p.DefaultAxes()
	if axes.X != (Range{0, 3}) || axes.Y != (Range{1, 7}) {
		t.Fatalf("axes = %+v", axes)
	}
	st, ok := p.Statistics()
	if !ok {
		t.Fatalf("expected regression")
	}
	rs := st.(*RegressionStats)
	if math.Abs(rs.Slope-2) > 1e-9 || math.Abs(rs.Intercept-1) > 1e-9 || math.Abs(rs.R-1) > 1e-9 {
		t.Fatalf("regression = %+v", rs)
	}
}

func TestScatterNeedsTwoPoints(t *testing.T) {
	p := New(column(t, "y", 4), &Scatter{Column: "y"})
	mustPrepare(t, p)
	if _, ok := p.Statistics(); ok {
		t.Fatalf("single point should have no regression")
	}
}

func TestRegressionZeroVarianceX(t *testing.T) {
	rs := regress([]float64{2, 2, 2}, []float64{1, 2, 3})
	if !math.IsNaN(rs.Slope) || !math.IsNaN(rs.R) {
		t.Fatalf("expected NaN, got %+v", rs)
	}
}

func TestScatterWithEncodedX(t *testing.T) {
	tb, err := table.New([]string{"city", "temp"}, [][]any{{"oslo", 3}, {"rome", 18}, {"oslo", 5}, {nil, 9}})
	if err != nil {
		t.Fatalf("table.New: %v", err)
	}
	p := New(tb, &Scatter{Column: "temp", XColumn: "city"})
	got := mustPrepare(t, p).(*SeriesPayload)
	if len(got.X) != 3 || got.X[1] != 1 || got.X[2] != 0 || strings.Join(got.XLabels, ",") != "oslo,rome" {
		t.Fatalf("payload = %+v", got)
	}
}

func TestAreaIntegral(t *testing.T) {
	p := New(column(t, "y", 1, 3, 2), &Area{Column: "y"})
	got := mustPrepare(t, p).(*SeriesPayload)
	if len(got.Baseline) != 3 || got.Baseline[2] != 0 {
		t.Fatalf("baseline = %v", got.Baseline)
	}
	st, _ := p.Statistics()
	if a := st.(*AreaStats).Area; a != 4.5 {
		t.Fatalf("area = %v", a)
	}
	single := New(column(t, "y", 9), &Area{Column: "y"})
	mustPrepare(t, single)
	if st, ok := single.Statistics(); !ok || st.(*AreaStats).Area != 0 {
		t.Fatalf("single point area should be 0")
	}
}

func TestBoxPlot(t *testing.T) {
	p := New(column(t, "v", 1, 2, 3, 4, 100), &Box{Column: "v"})
	got := mustPrepare(t, p).(*BoxPayload)
	if got.Min != 1 || got.Q1 != 2 || got.Median != 3 || got.Q3 != 4 || got.Max != 100 {
		t.Fatalf("box = %+v", got)
	}
	empty := New(column(t, "v", nil, "x"), &Box{Column: "v"})
	eb := mustPrepare(t, empty).(*BoxPayload)
	if eb.N != 0 {
		t.Fatalf("expected empty box, got %+v", eb)
	}
	if b, _ := eb.MarshalJSON(); string(b) != "{}" {
		t.Fatalf("empty box json = %s", b)
	}
	if _, ok := empty.Statistics(); ok {
		t.Fatalf("empty box has no statistics")
	}
}

func TestBubble(t *testing.T) {
	tb, err := table.New([]string{"x", "y", "s"}, [][]any{{1, 2, 10}, {2, 4, nil}, {3, 6, 30}, {4, 8, 40}})
	if err != nil {
		t.Fatalf("table.New: %v", err)
	}
	spec, err := NewSpec(KindBubble, Selection{Column: "y", X: "x", Size: "s"})
	if err != nil {
		t.Fatalf("NewSpec: %v", err)
	}
	p := New(tb, spec)
	if err := p.SetSizeScale(0.5); err != nil {
		t.Fatalf("SetSizeScale: %v", err)
	}
	got := mustPrepare(t, p).(*BubblePayload)
	if len(got.X) != 3 || got.Sizes[2] != 20 {
		t.Fatalf("payload = %+v", got)
	}
	axes, _ := p.DefaultAxes()
	if axes.X != (Range{1, 4}) || axes.Y != (Range{2, 8}) {
		t.Fatalf("axes = %+v", axes)
	}
	st, _ := p.Statistics()
	if rs := st.(*RegressionStats); math.Abs(rs.Slope-2) > 1e-9 || math.Abs(rs.R-1) > 1e-9 {
		t.Fatalf("regression = %+v", rs)
	}
}

func TestBubbleDropsOverflowingSizes(t *testing.T) {
	tb, err := table.New([]string{"x", "y", "s"}, [][]any{{1, 2, 1e300}, {2, 4, 3}})
	if err != nil {
		t.Fatalf("table.New: %v", err)
	}
	p := New(tb, &Bubble{XColumn: "x", YColumn: "y", SizeColumn: "s"})
	if err := p.SetSizeScale(1e10); err != nil {
		t.Fatalf("SetSizeScale: %v", err)
	}
	got := mustPrepare(t, p).(*BubblePayload)
	if len(got.Sizes) != 1 || got.X[0] != 2 || got.Sizes[0] != 3e10 {
		t.Fatalf("payload = %+v", got)
	}
	if _, err := json.Marshal(got); err != nil {
		t.Fatalf("marshal: %v", err)
	}
}

func TestNotPreparedState(t *testing.T) {
	p := New(column(t, "v", 1, 2), &Histogram{Column: "v"})
	if _, ok := p.DefaultAxes(); ok {
		t.Fatalf("axes before Prepare")
	}
	if _, ok := p.Statistics(); ok {
		t.Fatalf("statistics before Prepare")
	}
	mustPrepare(t, p)
	if !p.Prepared() {
		t.Fatalf("expected prepared")
	}
	if err := p.SetLabel("Weights"); err != nil {
		t.Fatalf("SetLabel: %v", err)
	}
	if p.Prepared() || p.Title() != "Weights" {
		t.Fatalf("setter should reset the payload; title %q", p.Title())
	}
}

func TestSettersNotApplicable(t *testing.T) {
	p := New(nil, &Bar{Column: "c"})
	if err := p.SetBins(3); !errors.Is(err, ErrNotApplicable) {
		t.Fatalf("SetBins on bar: %v", err)
	}
	if err := p.SetMergeMap(MergeMap{"a": {"b"}}); !errors.Is(err, ErrNotApplicable) {
		t.Fatalf("SetMergeMap on bar: %v", err)
	}
	if err := p.SetSizeScale(2); !errors.Is(err, ErrNotApplicable) {
		t.Fatalf("SetSizeScale on bar: %v", err)
	}
	if err := p.SetRange(0, 1); !errors.Is(err, ErrNotApplicable) {
		t.Fatalf("SetRange on bar: %v", err)
	}
}

func TestEmptyAndMissing(t *testing.T) {
	for _, kind := range Kinds {
		spec, err := NewSpec(kind, Selection{Column: "v", X: "v", Size: "v"})
		if err != nil {
			t.Fatalf("NewSpec(%s): %v", kind, err)
		}
		p := New(nil, spec)
		got, err := p.Prepare()
		if err != nil || got.Len() != 0 {
			t.Fatalf("%s on nil table: %v %v", kind, got, err)
		}
		if _, ok := p.Statistics(); ok {
			t.Fatalf("%s: statistics on empty payload", kind)
		}
	}
	_, err := New(column(t, "v", 1), &Bar{Column: "nope"}).Prepare()
	if !errors.Is(err, table.ErrColumnNotFound) {
		t.Fatalf("expected ErrColumnNotFound, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize([]float64{5, 5, 5})
	for _, v := range got {
		if v != 0 {
			t.Fatalf("constant series = %v", got)
		}
	}
	got = Normalize([]float64{2, math.NaN(), 4, 3})
	if got[0] != 0 || !math.IsNaN(got[1]) || got[2] != 1 || got[3] != 0.5 {
		t.Fatalf("normalize = %v", got)
	}
	if out := Normalize(nil); out == nil || len(out) != 0 {
		t.Fatalf("empty series = %#v", out)
	}
}

func TestParseHelpers(t *testing.T) {
	if k, err := ParseKind("Hist"); err != nil || k != KindHistogram {
		t.Fatalf("ParseKind = %v %v", k, err)
	}
	if _, err := ParseKind("radar"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
	m, err := ParseMerge([]string{"fruit=apple, banana", "veg=carrot"})
	if err != nil || len(m["fruit"]) != 2 || m["veg"][0] != "carrot" {
		t.Fatalf("ParseMerge = %v %v", m, err)
	}
	if _, err := ParseMerge([]string{"=a"}); err == nil {
		t.Fatalf("expected error for missing label")
	}
	if r, err := ParseRange("0, 2.5"); err != nil || r != (Range{0, 2.5}) {
		t.Fatalf("ParseRange = %v %v", r, err)
	}
	if _, err := ParseRange("3,1"); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if r, err := ParseRange("2,2"); err != nil || r != (Range{2, 2}) {
		t.Fatalf("ParseRange(2,2) = %v %v", r, err)
	}
	if got := Title(&Scatter{Column: "temp", XColumn: "city"}); got != "Scatter Plot (city vs temp)" {
		t.Fatalf("Title = %q", got)
	}
	if got := Title(&Bar{Column: "city"}); got != "Bar Chart (city)" {
		t.Fatalf("Title = %q", got)
	}
}

func TestFieldsJSON(t *testing.T) {
	b, err := FieldsJSON(&RegressionStats{N: 1, Slope: math.NaN(), Intercept: 1, R: math.NaN()})
	if err != nil {
		t.Fatalf("FieldsJSON: %v", err)
	}
	if string(b) != `{"n":1,"slope":null,"intercept":1,"r":null}` {
		t.Fatalf("json = %s", b)
	}
}
