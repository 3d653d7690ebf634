package analysis

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/KaramelBytes/statloom/internal/table"
	"github.com/olekukonko/tablewriter"
	"gonum.org/v1/gonum/stat"
)

// Options controls analysis behavior for tabular data.
type Options struct {
	// MaxRows limits rows processed; 0 means unlimited.
	MaxRows int
	// SampleRows determines how many example rows to include in the report;
	// 0 omits the sample section.
	SampleRows int
	// GroupBy computes per-group summaries for the given column names.
	GroupBy []string
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// CorrPerGroup computes correlations per group key.
	CorrPerGroup bool
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
}

// DefaultOptions returns reasonable defaults for dataset analysis.
func DefaultOptions() Options {
	return Options{
		MaxRows:          100000,
		SampleRows:       5,
		OutlierThreshold: 3.5,
	}
}

// Report is a Markdown-friendly analysis of a tabular dataset.
type Report struct {
	Name      string
	Rows      int
	Processed int
	Cols      []ColumnSummary
	Samples   [][]string
	Warnings  []string
	GroupBy   []string
	Groups    []GroupResult
	Corr      *CorrMatrix
}

// ColumnSummary extends a column's description with what the report shows
// beyond Describe: the unit split off the name, the missing count, skew,
// outliers and the most frequent values.
type ColumnSummary struct {
	ColumnDescription
	Label   string
	Unit    string
	Class   string // numeric|datetime|bool|categorical|text
	Missing int
	Skew    float64
	// Outliers is set when outlier detection ran on the column.
	Outliers  *OutlierSummary
	TopValues []CategoryCount
	Examples  []string
}

// OutlierSummary counts values whose robust z-score (MAD based) exceeds
// Threshold.
type OutlierSummary struct {
	Count     int
	MaxAbsZ   float64
	Threshold float64
}

type CategoryCount struct {
	Value string
	Count int
}

// GroupResult captures aggregated metrics per group key.
type GroupResult struct {
	Key       string
	Size      int
	Metrics   map[string]NumSummary // by column name
	CorrPairs []PairCorr            // top correlation pairs (by |r|)
}

type NumSummary struct {
	Count          int
	Min, Max, Mean float64
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A, B string
	R    float64
}

// AnalyzeTable builds a report for a loaded table. name is shown as the
// file name.
func AnalyzeTable(t *table.Table, name string, opt Options) *Report {
	rep := &Report{Name: name, Rows: t.Len()}
	if opt.MaxRows > 0 && t.Len() > opt.MaxRows {
		t = table.Head(t, opt.MaxRows)
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("processed only %d/%d rows due to MaxRows", opt.MaxRows, rep.Rows))
	}
	rep.Processed = t.Len()
	if t.Width() == 0 {
		return rep
	}
	for i := 0; i < t.Len() && i < opt.SampleRows; i++ {
		rep.Samples = append(rep.Samples, t.StringRow(i))
	}

	desc := Describe(t)
	for i, c := range t.Columns() {
		rep.Cols = append(rep.Cols, summarizeColumn(c, desc[i], opt))
	}
	if len(opt.GroupBy) > 0 {
		groups, missing := groupResults(t, opt)
		rep.Groups = groups
		for _, m := range missing {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("group-by column %q not found", m))
		}
		for _, g := range opt.GroupBy {
			if !slices.Contains(missing, g) {
				rep.GroupBy = append(rep.GroupBy, g)
			}
		}
	}
	if opt.Correlations {
		if m := CorrelationMatrix(t); len(m.Columns) >= 2 {
			rep.Corr = m
		}
	}
	return rep
}

func summarizeColumn(c *table.Column, d ColumnDescription, opt Options) ColumnSummary {
	label, unit := splitUnits(c.Name)
	s := ColumnSummary{ColumnDescription: d, Label: label, Unit: unit, Missing: c.Len() - d.Count}
	switch c.Kind {
	case table.KindNumeric:
		s.Class = "numeric"
		vals := c.Floats()
		if len(vals) > 2 && d.Numeric.Std > 0 {
			s.Skew = stat.Skew(vals, nil)
		}
		if opt.Outliers && len(vals) >= 8 {
			s.Outliers = robustOutliers(vals, opt.OutlierThreshold)
		}
	case table.KindDatetime:
		s.Class = "datetime"
	case table.KindBool:
		s.Class = "bool"
		s.TopValues = topValues(c)
	default:
		order, _ := table.Distinct(c)
		long := slices.ContainsFunc(order, func(v any) bool { return len(table.FormatValue(v)) > 64 })
		if !long {
			s.Class = "categorical"
			s.TopValues = topValues(c)
			break
		}
		s.Class = "text"
		for _, v := range order {
			if len(s.Examples) == 3 {
				break
			}
			s.Examples = append(s.Examples, table.FormatValue(v))
		}
	}
	return s
}

func robustOutliers(vals []float64, thr float64) *OutlierSummary {
	if thr <= 0 {
		thr = 3.5
	}
	out := &OutlierSummary{Threshold: thr}
	median, mad := medianMAD(vals)
	if mad == 0 {
		return out
	}
	for _, v := range vals {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			out.Count++
		}
		out.MaxAbsZ = max(out.MaxAbsZ, az)
	}
	return out
}

// topValues returns up to eight values of c by descending count, ties in
// lexical order.
func topValues(c *table.Column) []CategoryCount {
	order, members := table.Distinct(c)
	tops := make([]CategoryCount, 0, len(order))
	for _, v := range order {
		tops = append(tops, CategoryCount{Value: table.FormatValue(v), Count: len(members[table.Key(v)])})
	}
	sort.SliceStable(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > 8 {
		tops = tops[:8]
	}
	return tops
}

// groupResults summarizes numeric columns per combination of the group-by
// columns. Unknown group-by names are returned separately.
func groupResults(t *table.Table, opt Options) ([]GroupResult, []string) {
	var keyCols []*table.Column
	var missing []string
	for _, name := range opt.GroupBy {
		c, err := t.Column(name)
		if err != nil {
			missing = append(missing, name)
			continue
		}
		keyCols = append(keyCols, c)
	}
	if len(keyCols) == 0 {
		return nil, missing
	}
	members := map[string][]int{}
	for i := 0; i < t.Len(); i++ {
		parts := make([]string, len(keyCols))
		for k, c := range keyCols {
			parts[k] = fmt.Sprintf("%s=%s", c.Name, cell(table.FormatValue(c.Values[i])))
		}
		key := strings.Join(parts, ", ")
		members[key] = append(members[key], i)
	}

	var numeric []*table.Column
	for _, c := range t.Columns() {
		if c.Kind == table.KindNumeric {
			numeric = append(numeric, c)
		}
	}
	out := make([]GroupResult, 0, len(members))
	for key, rows := range members {
		gr := GroupResult{Key: key, Size: len(rows), Metrics: map[string]NumSummary{}}
		for _, c := range numeric {
			var vals []float64
			for _, i := range rows {
				if x, ok := c.Float(i); ok {
					vals = append(vals, x)
				}
			}
			if len(vals) == 0 {
				continue
			}
			gr.Metrics[c.Name] = NumSummary{
				Count: len(vals),
				Min:   AggMin.Apply(vals),
				Max:   AggMax.Apply(vals),
				Mean:  AggMean.Apply(vals),
			}
		}
		if opt.CorrPerGroup {
			gr.CorrPairs = topPairs(numeric, rows, 10)
		}
		out = append(out, gr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size == out[j].Size {
			return out[i].Key < out[j].Key
		}
		return out[i].Size > out[j].Size
	})
	if len(out) > 20 {
		out = out[:20]
	}
	return out, missing
}

// topPairs correlates every pair of numeric columns over rows and keeps the
// strongest limit pairs. Undefined correlations are skipped.
func topPairs(numeric []*table.Column, rows []int, limit int) []PairCorr {
	var pairs []PairCorr
	for a := 0; a < len(numeric); a++ {
		for b := a + 1; b < len(numeric); b++ {
			r := pearson(numeric[a], numeric[b], rows)
			if math.IsNaN(r) {
				continue
			}
			pairs = append(pairs, PairCorr{A: numeric[a].Name, B: numeric[b].Name, R: r})
		}
	}
	sortPairs(pairs)
	if len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}

func sortPairs(pairs []PairCorr) {
	sort.Slice(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
}

// Markdown renders the report as a Markdown document: a heading with the
// row and column counts, then one section per computed part.
func (r *Report) Markdown() string {
	var b strings.Builder
	title := r.Name
	if title == "" {
		title = "(unnamed table)"
	}
	fmt.Fprintf(&b, "# Dataset summary: %s\n\n", title)
	rows := fmt.Sprintf("%d rows", r.Rows)
	if r.Processed < r.Rows {
		rows = fmt.Sprintf("%d rows (%d processed)", r.Rows, r.Processed)
	}
	fmt.Fprintf(&b, "%s, %d columns.\n", rows, len(r.Cols))

	if len(r.Cols) > 0 {
		section(&b, "Columns")
		var body [][]string
		for _, c := range r.Cols {
			body = append(body, []string{cell(c.Label), c.Unit, c.Class, strconv.Itoa(c.Count), missingPct(c)})
		}
		mdTable(&b, []string{"column", "unit", "kind", "non-null", "missing"}, body)
	}
	r.writeNumeric(&b)
	r.writeCategorical(&b)
	r.writeGroups(&b)
	r.writeCorrelations(&b)

	if len(r.Samples) > 0 {
		section(&b, "Sample rows")
		header := make([]string, len(r.Cols))
		for i, c := range r.Cols {
			header[i] = cell(c.Name)
		}
		body := make([][]string, len(r.Samples))
		for i, row := range r.Samples {
			out := make([]string, len(r.Cols))
			for j := range out {
				if j < len(row) {
					out[j] = cell(row[j])
				}
			}
			body[i] = out
		}
		mdTable(&b, header, body)
	}
	if len(r.Warnings) > 0 {
		section(&b, "Notes")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}

func (r *Report) writeNumeric(b *strings.Builder) {
	var body [][]string
	for _, c := range r.Cols {
		n := c.Numeric
		if n == nil || c.Count == 0 {
			continue
		}
		outliers := ""
		if o := c.Outliers; o != nil {
			outliers = fmt.Sprintf("%d (z>%.1f, max %.2f)", o.Count, o.Threshold, o.MaxAbsZ)
		}
		body = append(body, []string{cell(c.Label), num(n.Mean), num(n.Std), num(n.Min), num(n.Q1),
			num(n.Median), num(n.Q3), num(n.Max), fmt.Sprintf("%.3g", c.Skew), outliers})
	}
	if len(body) == 0 {
		return
	}
	section(b, "Numeric columns")
	mdTable(b, []string{"column", "mean", "std", "min", "25%", "50%", "75%", "max", "skew", "outliers"}, body)
}

func (r *Report) writeCategorical(b *strings.Builder) {
	var body [][]string
	var texts []ColumnSummary
	for _, c := range r.Cols {
		switch {
		case c.Class == "text":
			texts = append(texts, c)
		case c.Categorical != nil && len(c.TopValues) > 0:
			tops := make([]string, len(c.TopValues))
			for i, kv := range c.TopValues {
				tops[i] = fmt.Sprintf("%s (%d)", kv.Value, kv.Count)
			}
			body = append(body, []string{cell(c.Label), strconv.Itoa(c.Categorical.Unique), cell(strings.Join(tops, ", "))})
		}
	}
	if len(body) > 0 {
		section(b, "Categorical columns")
		mdTable(b, []string{"column", "unique", "top values"}, body)
	}
	if len(texts) > 0 {
		section(b, "Text columns")
		for _, c := range texts {
			fmt.Fprintf(b, "- %s: %d distinct, e.g. %s\n", c.Label, c.Categorical.Unique, cell(strings.Join(c.Examples, " / ")))
		}
	}
}

func (r *Report) writeGroups(b *strings.Builder) {
	if len(r.Groups) == 0 {
		return
	}
	section(b, "Groups by "+strings.Join(r.GroupBy, ", "))
	var body, corr [][]string
	for _, g := range r.Groups {
		cols := make([]string, 0, len(g.Metrics))
		for k := range g.Metrics {
			cols = append(cols, k)
		}
		sort.Strings(cols)
		if len(cols) == 0 {
			body = append(body, []string{cell(g.Key), strconv.Itoa(g.Size), "", "", "", "", ""})
		}
		for _, k := range cols {
			m := g.Metrics[k]
			body = append(body, []string{cell(g.Key), strconv.Itoa(g.Size), k, strconv.Itoa(m.Count), num(m.Mean), num(m.Min), num(m.Max)})
		}
		for _, p := range g.CorrPairs[:min(8, len(g.CorrPairs))] {
			corr = append(corr, []string{cell(g.Key), p.A, p.B, fmt.Sprintf("%.3f", p.R)})
		}
	}
	mdTable(b, []string{"group", "n", "column", "count", "mean", "min", "max"}, body)
	if len(corr) > 0 {
		b.WriteString("\n### Correlations within groups\n\n")
		mdTable(b, []string{"group", "a", "b", "r"}, corr)
	}
}

func (r *Report) writeCorrelations(b *strings.Builder) {
	if r.Corr == nil {
		return
	}
	section(b, "Correlations")
	var pairs []PairCorr
	n := len(r.Corr.Columns)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if v := r.Corr.Values[i][j]; !math.IsNaN(v) {
				pairs = append(pairs, PairCorr{A: r.Corr.Columns[i], B: r.Corr.Columns[j], R: v})
			}
		}
	}
	if len(pairs) == 0 {
		b.WriteString("No defined correlations (constant or sparse columns).\n")
		return
	}
	sortPairs(pairs)
	pairs = pairs[:min(10, len(pairs))]
	body := make([][]string, len(pairs))
	for i, p := range pairs {
		body[i] = []string{p.A, p.B, fmt.Sprintf("%.3f", p.R)}
	}
	mdTable(b, []string{"a", "b", "r"}, body)
}

func section(b *strings.Builder, title string) {
	fmt.Fprintf(b, "\n## %s\n\n", title)
}

// mdTable writes a pipe table through tablewriter's Markdown layout.
func mdTable(b *strings.Builder, header []string, rows [][]string) {
	tw := tablewriter.NewWriter(b)
	tw.SetHeader(header)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	tw.SetCenterSeparator("|")
	tw.AppendBulk(rows)
	tw.Render()
}

func missingPct(c ColumnSummary) string {
	total := c.Count + c.Missing
	if total == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(c.Missing)*100/float64(total))
}

func num(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'g', 4, 64)
}

// cell flattens s for a single table cell, truncating long values.
func cell(s string) string {
	s = strings.TrimSpace(strings.NewReplacer("\n", " ", "\r", " ", "|", "/").Replace(s))
	if s == "" {
		return ""
	}
	if len(s) > 80 {
		s = s[:77] + "..."
	}
	return s
}

var unitPatterns = []struct {
	re   *regexp.Regexp
	pick int
}{
	{regexp.MustCompile(`^(.*)\s*\(([^)]+)\)\s*$`), 2},  // e.g., alpha (%)
	{regexp.MustCompile(`^(.*)\s*\[([^\]]+)\]\s*$`), 2}, // e.g., mass [mg/l]
	{regexp.MustCompile(`^(.*?)[_\s-]+(mg/l|g/l|ug/l|°[cf]|brix|%|ppm|ppb)$`), 2},
}

// splitUnits separates a unit suffix from a column name for display.
func splitUnits(name string) (clean string, unit string) {
	s := strings.TrimSpace(name)
	for _, p := range unitPatterns {
		if m := p.re.FindStringSubmatch(s); len(m) >= 3 {
			base := strings.TrimSpace(m[1])
			u := strings.TrimSpace(m[p.pick])
			if base != "" && u != "" {
				return base, u
			}
		}
	}
	return s, ""
}
