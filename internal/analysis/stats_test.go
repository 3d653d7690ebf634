package analysis

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/KaramelBytes/statloom/internal/table"
)

func newTable(t *testing.T, names []string, rows [][]any) *table.Table {
	t.Helper()
	tb, err := table.New(names, rows)
	if err != nil {
		t.Fatalf("table.New: %v", err)
	}
	return tb
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestQuantileLinear(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 100}
	cases := []struct {
		q, want float64
	}{
		{0, 1}, {0.25, 2}, {0.5, 3}, {0.75, 4}, {1, 100}, {0.1, 1.4},
	}
	for _, tc := range cases {
		if got := Quantile(sorted, tc.q); !approx(got, tc.want) {
			t.Errorf("Quantile(%v) = %v, want %v", tc.q, got, tc.want)
		}
	}
	if !math.IsNaN(Quantile(nil, 0.5)) {
		t.Fatalf("expected NaN for empty input")
	}
}

func TestDescribe(t *testing.T) {
	tb := newTable(t, []string{"v", "city"}, [][]any{
		{1, "oslo"}, {2, "rome"}, {3, "oslo"}, {4, nil}, {100, "rome"},
	})
	desc := Describe(tb)
	if len(desc) != 2 {
		t.Fatalf("descriptions = %d", len(desc))
	}
	v := desc[0]
	if v.Count != 5 || v.Numeric == nil || v.Categorical != nil {
		t.Fatalf("unexpected numeric description %+v", v)
	}
	n := v.Numeric
	if n.Min != 1 || n.Q1 != 2 || n.Median != 3 || n.Q3 != 4 || n.Max != 100 || n.Mean != 22 {
		t.Fatalf("numeric summary = %+v", n)
	}
	if math.IsNaN(n.Std) || n.Std <= 0 {
		t.Fatalf("std = %v", n.Std)
	}
	city := desc[1]
	if city.Count != 4 || city.Categorical == nil {
		t.Fatalf("unexpected categorical description %+v", city)
	}
	if c := city.Categorical; c.Unique != 2 || c.Top != "oslo" || c.Freq != 2 {
		t.Fatalf("categorical summary = %+v", c)
	}
}

func TestDescribeEmptyNumeric(t *testing.T) {
	tb := newTable(t, []string{"v"}, [][]any{{nil}, {nil}})
	d := Describe(tb)[0]
	if d.Count != 0 || !math.IsNaN(d.Numeric.Mean) || !math.IsNaN(d.Numeric.Std) {
		t.Fatalf("expected NaN summary, got %+v", d.Numeric)
	}
}

func TestCorrelationMatrix(t *testing.T) {
	tb := newTable(t, []string{"x", "y", "c", "label"}, [][]any{
		{1, 2, 5, "a"}, {2, 4, 5, "b"}, {3, 6, 5, "c"}, {4, nil, 5, "d"},
	})
	m := CorrelationMatrix(tb)
	if strings.Join(m.Columns, ",") != "x,y,c" {
		t.Fatalf("columns = %v", m.Columns)
	}
	for i := range m.Columns {
		if m.Values[i][i] != 1 {
			t.Fatalf("diagonal %d = %v", i, m.Values[i][i])
		}
		for j := range m.Columns {
			a, b := m.Values[i][j], m.Values[j][i]
			if !(a == b || (math.IsNaN(a) && math.IsNaN(b))) {
				t.Fatalf("not symmetric at %d,%d", i, j)
			}
		}
	}
	if r, _ := m.At("x", "y"); !approx(r, 1) {
		t.Fatalf("r(x,y) = %v", r)
	}
	if r, _ := m.At("x", "c"); !math.IsNaN(r) {
		t.Fatalf("constant column should give NaN, got %v", r)
	}
	if _, ok := m.At("x", "label"); ok {
		t.Fatalf("non-numeric column should not be in the matrix")
	}
}

func TestGroupedAggregate(t *testing.T) {
	tb := newTable(t, []string{"g", "v"}, [][]any{{"a", 1}, {"a", 3}, {"b", 2}})
	g, err := GroupedAggregate(tb, "g", "v")
	if err != nil {
		t.Fatalf("GroupedAggregate: %v", err)
	}
	want := map[string]map[Agg]float64{
		"a": {AggMean: 2, AggSum: 4, AggMax: 3, AggMin: 1},
		"b": {AggMean: 2, AggSum: 2, AggMax: 2, AggMin: 2},
	}
	for key, aggs := range want {
		for a, w := range aggs {
			if got, ok := g.Get(key, a); !ok || got != w {
				t.Errorf("%s %s = %v, want %v", key, a, got, w)
			}
		}
	}
	out, err := g.Table()
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	if strings.Join(out.Names(), ",") != "g,mean,sum,max,min" || out.Len() != 2 {
		t.Fatalf("table = %v rows=%d", out.Names(), out.Len())
	}
	if _, err := GroupedAggregate(tb, "nope", "v"); !errors.Is(err, table.ErrColumnNotFound) {
		t.Fatalf("expected ErrColumnNotFound, got %v", err)
	}
}

func TestPivotAbsentCells(t *testing.T) {
	tb := newTable(t, []string{"region", "year", "sales"}, [][]any{
		{"north", 2023, 10}, {"north", 2023, 20}, {"north", 2024, 5},
		{"south", 2024, 7}, {"south", 2023, nil},
	})
	p, err := Pivot(tb, "region", "year", "sales", "")
	if err != nil {
		t.Fatalf("Pivot: %v", err)
	}
	if strings.Join(p.RowKeys, ",") != "north,south" || strings.Join(p.ColKeys, ",") != "2023,2024" {
		t.Fatalf("keys = %v / %v", p.RowKeys, p.ColKeys)
	}
	if v, ok := p.Lookup("north", "2023"); !ok || v != 15 {
		t.Fatalf("north/2023 = %v %v", v, ok)
	}
	if v, ok := p.Lookup("south", "2023"); ok || !math.IsNaN(v) {
		t.Fatalf("south/2023 should be absent, got %v", v)
	}
	sum, err := Pivot(tb, "region", "year", "sales", AggSum)
	if err != nil {
		t.Fatalf("Pivot sum: %v", err)
	}
	if v, _ := sum.Lookup("north", "2023"); v != 30 {
		t.Fatalf("sum north/2023 = %v", v)
	}
	out, err := p.Table()
	if err != nil {
		t.Fatalf("Table: %v", err)
	}
	c, _ := out.Column("2023")
	if !table.IsNull(c.Values[1]) {
		t.Fatalf("absent cell should be null, got %#v", c.Values[1])
	}
}

func TestParseAgg(t *testing.T) {
	if a, err := ParseAgg("AVG"); err != nil || a != AggMean {
		t.Fatalf("ParseAgg(AVG) = %v %v", a, err)
	}
	if _, err := ParseAgg("mode"); !errors.Is(err, ErrUnknownAgg) {
		t.Fatalf("expected ErrUnknownAgg, got %v", err)
	}
	aggs, err := ParseAggs("sum, median,std")
	if err != nil || len(aggs) != 3 || aggs[1] != AggMedian {
		t.Fatalf("ParseAggs = %v %v", aggs, err)
	}
	if AggSum.Apply(nil) != 0 || AggCount.Apply(nil) != 0 || !math.IsNaN(AggMean.Apply(nil)) {
		t.Fatalf("empty aggregation semantics changed")
	}
	if !math.IsNaN(AggStd.Apply([]float64{3})) {
		t.Fatalf("std of one value should be NaN")
	}
}

func TestMedianMAD(t *testing.T) {
	med, mad := medianMAD([]float64{1, 2, 3, 4, 100})
	if med != 3 || mad != 1 {
		t.Fatalf("median=%v mad=%v", med, mad)
	}
}

func TestAnalyzeTableMarkdown(t *testing.T) {
	rows := [][]any{}
	for i := 0; i < 9; i++ {
		g := "a"
		if i%2 == 1 {
			g = "b"
		}
		rows = append(rows, []any{g, float64(i + 1), float64(2*i + 1), "note"})
	}
	rows = append(rows, []any{"a", 500.0, 999.0, nil})
	tb := newTable(t, []string{"group", "Concentration (mg/L)", "score", "note"}, rows)
	opt := DefaultOptions()
	opt.GroupBy = []string{"group", "missing"}
	opt.Correlations = true
	opt.CorrPerGroup = true
	opt.Outliers = true
	rep := AnalyzeTable(tb, "batch.csv", opt)
	md := rep.Markdown()
	for _, want := range []string{
		"# Dataset summary: batch.csv",
		"10 rows, 4 columns.",
		"## Numeric columns",
		"## Groups by group",
		"### Correlations within groups",
		"## Correlations",
		"## Sample rows",
		"## Notes",
		`group-by column "missing" not found`,
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
	for _, row := range [][]string{
		{"concentration", "mg/l", "numeric", "10", "0.0%"},
		{"note", "", "categorical", "9", "10.0%"},
		{"group", "2", "a (6), b (4)"},
		{"group=a", "6", "concentration (mg/l)", "6"},
		{"concentration (mg/l)", "score", "1.000"},
	} {
		if !hasRow(md, row...) {
			t.Fatalf("markdown lacks row %q:\n%s", row, md)
		}
	}
	if !strings.Contains(md, "1 (z>3.5") {
		t.Fatalf("markdown lacks outlier count:\n%s", md)
	}
	if len(rep.Samples) != 5 {
		t.Fatalf("samples = %d", len(rep.Samples))
	}
	conc := rep.Cols[1]
	if conc.Label != "concentration" || conc.Numeric == nil || conc.Numeric.Median != 5.5 || conc.Outliers == nil || conc.Outliers.Count != 1 {
		t.Fatalf("concentration summary = %+v", conc)
	}
}

// hasRow reports whether md holds a table row whose leading cells are cells.
func hasRow(md string, cells ...string) bool {
	for _, line := range strings.Split(md, "\n") {
		if !strings.HasPrefix(line, "|") {
			continue
		}
		parts := strings.Split(strings.Trim(line, "|"), "|")
		if len(parts) < len(cells) {
			continue
		}
		ok := true
		for i, c := range cells {
			if strings.TrimSpace(parts[i]) != c {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

func TestAnalyzeTableMaxRows(t *testing.T) {
	tb := newTable(t, []string{"v"}, [][]any{{1}, {2}, {3}})
	rep := AnalyzeTable(tb, "", Options{MaxRows: 2})
	if rep.Rows != 3 || rep.Processed != 2 || len(rep.Warnings) != 1 {
		t.Fatalf("unexpected report %+v", rep)
	}
	if !strings.Contains(rep.Markdown(), "3 rows (2 processed), 1 columns.") {
		t.Fatalf("markdown lacks processed note")
	}
}

func TestAnalyzeTableNoSamples(t *testing.T) {
	tb := newTable(t, []string{"v"}, [][]any{{1}, {2}})
	opt := DefaultOptions()
	opt.SampleRows = 0
	if md := AnalyzeTable(tb, "v.csv", opt).Markdown(); strings.Contains(md, "## Sample rows") {
		t.Fatalf("expected no sample section:\n%s", md)
	}
}
