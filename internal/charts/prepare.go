package charts

import (
	"fmt"
	"math"
	"sort"

	"github.com/KaramelBytes/statloom/internal/analysis"
	"github.com/KaramelBytes/statloom/internal/table"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// prepared is a computed payload plus the numbers it was built from, kept
// for the statistics of variants whose payload drops them.
type prepared struct {
	payload Payload
	sample  []float64
}

// prepare computes the payload of s over t. An absent or empty table yields
// an empty payload; an unknown column fails with table.ErrColumnNotFound.
func prepare(t *table.Table, s Spec) (*prepared, error) {
	if t.Width() == 0 {
		return &prepared{payload: emptyPayload(s)}, nil
	}
	cols := make([]*table.Column, 0, 3)
	for _, name := range s.Columns() {
		if name == "" {
			cols = append(cols, nil)
			continue
		}
		c, err := t.Column(name)
		if err != nil {
			return nil, fmt.Errorf("%s chart: %w", s.Kind(), err)
		}
		cols = append(cols, c)
	}
	switch v := s.(type) {
	case *Bar:
		return &prepared{payload: prepareBar(cols[0])}, nil
	case *Pie:
		var values *table.Column
		if len(cols) > 1 {
			values = cols[1]
		}
		return &prepared{payload: preparePie(cols[0], values, v.Merge)}, nil
	case *Histogram:
		return prepareHistogram(cols[0], v)
	case *Line:
		return prepareSeries(cols, false), nil
	case *Scatter:
		return prepareSeries(cols, false), nil
	case *Area:
		return prepareSeries(cols, true), nil
	case *Box:
		return prepareBox(cols[0]), nil
	case *Bubble:
		return prepareBubble(cols[1], cols[0], cols[2], v.Scale), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnknownKind, s)
}

func emptyPayload(s Spec) Payload {
	switch s.(type) {
	case *Bar:
		return &CategoryPayload{Categories: []string{}, Counts: []int{}}
	case *Pie:
		return &PiePayload{Labels: []string{}, Values: []float64{}}
	case *Histogram:
		return &HistogramPayload{Bins: []string{}, Counts: []int{}}
	case *Area:
		return &SeriesPayload{X: []float64{}, Y: []float64{}, Baseline: []float64{}}
	case *Box:
		return &BoxPayload{}
	case *Bubble:
		return &BubblePayload{X: []float64{}, Y: []float64{}, Sizes: []float64{}}
	}
	return &SeriesPayload{X: []float64{}, Y: []float64{}}
}

// numbers returns the finite numeric values of c in row order, coercing
// text where it parses.
func numbers(c *table.Column) []float64 {
	out := []float64{}
	for i := 0; i < c.Len(); i++ {
		if f, ok := number(c, i); ok {
			out = append(out, f)
		}
	}
	return out
}

func number(c *table.Column, i int) (float64, bool) {
	f, ok := c.Float(i)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// valueCounts counts the non-null cells of c by their string form, ordered
// by descending count with ties in first-appearance order.
func valueCounts(c *table.Column) ([]string, []int) {
	var labels []string
	counts := map[string]int{}
	for _, v := range c.Values {
		if table.IsNull(v) {
			continue
		}
		l := table.FormatValue(v)
		if _, seen := counts[l]; !seen {
			labels = append(labels, l)
		}
		counts[l]++
	}
	sort.SliceStable(labels, func(i, j int) bool { return counts[labels[i]] > counts[labels[j]] })
	out := make([]int, len(labels))
	for i, l := range labels {
		out[i] = counts[l]
	}
	if labels == nil {
		labels = []string{}
	}
	return labels, out
}

func prepareBar(c *table.Column) *CategoryPayload {
	labels, counts := valueCounts(c)
	return &CategoryPayload{Categories: labels, Counts: counts}
}

// preparePie builds slices from value counts, or from per-category sums of
// values (in sorted category order) when a value column is given, then
// applies the merge map.
func preparePie(c, values *table.Column, merge MergeMap) *PiePayload {
	var labels []string
	var totals []float64
	if values == nil {
		var counts []int
		labels, counts = valueCounts(c)
		for _, n := range counts {
			totals = append(totals, float64(n))
		}
	} else {
		keys, members := table.Distinct(c)
		table.SortValues(keys)
		for _, k := range keys {
			sum := 0.0
			for _, i := range members[table.Key(k)] {
				if f, ok := number(values, i); ok {
					sum += f
				}
			}
			labels = append(labels, table.FormatValue(k))
			totals = append(totals, sum)
		}
	}
	labels, totals = applyMerge(labels, totals, merge)
	if labels == nil {
		labels, totals = []string{}, []float64{}
	}
	return &PiePayload{Labels: labels, Values: totals}
}

// applyMerge folds the labels listed under each new label into it. Unmerged
// labels keep their order and merged labels follow in sorted order; a merged
// label whose total is not positive is dropped. A new label that already
// exists absorbs the folded total in place and is dropped the same way.
func applyMerge(labels []string, totals []float64, merge MergeMap) ([]string, []float64) {
	if len(merge) == 0 {
		return labels, totals
	}
	targets := make([]string, 0, len(merge))
	for k := range merge {
		targets = append(targets, k)
	}
	sort.Strings(targets)

	pos := map[string]int{}
	for i, l := range labels {
		pos[l] = i
	}
	removed := make([]bool, len(labels))
	var newLabels []string
	var newTotals []float64
	for _, target := range targets {
		sum := 0.0
		folded := false
		for _, old := range merge[target] {
			i, ok := pos[old]
			if !ok || removed[i] || old == target {
				continue
			}
			sum += totals[i]
			removed[i] = true
			folded = true
		}
		if i, ok := pos[target]; ok && !removed[i] {
			totals[i] += sum
			if folded && totals[i] <= 0 {
				removed[i] = true
			}
			continue
		}
		if folded && sum > 0 {
			newLabels = append(newLabels, target)
			newTotals = append(newTotals, sum)
		}
	}
	var outLabels []string
	var outTotals []float64
	for i, l := range labels {
		if !removed[i] {
			outLabels = append(outLabels, l)
			outTotals = append(outTotals, totals[i])
		}
	}
	return append(outLabels, newLabels...), append(outTotals, newTotals...)
}

// prepareHistogram bins values with numpy's uniform-bin semantics: bins are
// half open except the last, which includes the upper edge, and a span of
// zero (constant data or a range with lo == hi) is widened by 0.5 on each
// side.
func prepareHistogram(c *table.Column, h *Histogram) (*prepared, error) {
	bins := h.Bins
	if bins == 0 {
		bins = DefaultBins
	}
	if bins < 0 {
		return nil, ErrInvalidBins
	}
	if h.Range != nil && !validRange(h.Range.Min, h.Range.Max) {
		return nil, fmt.Errorf("%w: %g-%g", ErrInvalidRange, h.Range.Min, h.Range.Max)
	}
	vals := numbers(c)
	var lo, hi float64
	switch {
	case h.Range != nil:
		lo, hi = h.Range.Min, h.Range.Max
	case len(vals) > 0:
		lo, hi = floats.Min(vals), floats.Max(vals)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	if h.Range != nil {
		kept := vals[:0]
		for _, v := range vals {
			if v >= lo && v <= hi {
				kept = append(kept, v)
			}
		}
		vals = kept
	}
	if len(vals) == 0 {
		return &prepared{payload: &HistogramPayload{Bins: []string{}, Counts: []int{}}, sample: vals}, nil
	}
	edges := binEdges(lo, hi, bins)
	counts := make([]int, bins)
	for _, v := range vals {
		i := binIndex(v, lo, hi, bins)
		if i > 0 && v < edges[i] {
			i--
		}
		if i < bins-1 && v >= edges[i+1] {
			i++
		}
		counts[i]++
	}
	labels := make([]string, bins)
	for i := range labels {
		labels[i] = fmt.Sprintf("%.1f-%.1f", edges[i], edges[i+1])
	}
	return &prepared{payload: &HistogramPayload{Bins: labels, Counts: counts}, sample: vals}, nil
}

// binEdges returns bins+1 evenly spaced edges from lo to hi. When hi-lo
// overflows, edges are interpolated without forming the span.
func binEdges(lo, hi float64, bins int) []float64 {
	edges := make([]float64, bins+1)
	if !math.IsInf(hi-lo, 0) {
		return floats.Span(edges, lo, hi)
	}
	for i := range edges {
		f := float64(i) / float64(bins)
		edges[i] = lo*(1-f) + hi*f
	}
	edges[bins] = hi
	return edges
}

// binIndex estimates the bin of v in [lo, hi], clamped to [0, bins-1].
func binIndex(v, lo, hi float64, bins int) int {
	f := (v - lo) / (hi - lo)
	if math.IsInf(hi-lo, 0) {
		f = (v/2 - lo/2) / (hi/2 - lo/2)
	}
	if !(f > 0) {
		return 0
	}
	if f >= 1 {
		return bins - 1
	}
	return min(int(f*float64(bins)), bins-1)
}

// validRange reports whether lo and hi are finite and ordered.
func validRange(lo, hi float64) bool {
	return !math.IsNaN(lo) && !math.IsNaN(hi) && !math.IsInf(lo, 0) && !math.IsInf(hi, 0) && lo <= hi
}

// prepareSeries pairs y with its position among the numeric values, or with
// the x column when one is selected. Non-numeric x columns are encoded by
// first appearance.
func prepareSeries(cols []*table.Column, area bool) *prepared {
	y := cols[0]
	p := &SeriesPayload{X: []float64{}, Y: []float64{}}
	if len(cols) < 2 || cols[1] == nil {
		p.Y = numbers(y)
		for i := range p.Y {
			p.X = append(p.X, float64(i))
		}
	} else {
		enc := table.Encode(cols[1])
		if enc.Mapping != nil {
			p.XLabels = enc.Labels
		}
		for i := 0; i < y.Len(); i++ {
			yv, ok := number(y, i)
			xv := enc.Values[i]
			if !ok || math.IsNaN(xv) || math.IsInf(xv, 0) {
				continue
			}
			p.X = append(p.X, xv)
			p.Y = append(p.Y, yv)
		}
	}
	if area {
		p.Baseline = make([]float64, len(p.Y))
	}
	return &prepared{payload: p, sample: p.Y}
}

func prepareBox(c *table.Column) *prepared {
	vals := numbers(c)
	if len(vals) == 0 {
		return &prepared{payload: &BoxPayload{}}
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	return &prepared{payload: &BoxPayload{
		N:      len(sorted),
		Min:    sorted[0],
		Q1:     analysis.Quantile(sorted, 0.25),
		Median: analysis.Quantile(sorted, 0.5),
		Q3:     analysis.Quantile(sorted, 0.75),
		Max:    sorted[len(sorted)-1],
	}, sample: sorted}
}

// prepareBubble keeps the rows where x, y and the scaled size are all finite.
func prepareBubble(x, y, size *table.Column, scale float64) *prepared {
	if scale == 0 {
		scale = 1
	}
	p := &BubblePayload{X: []float64{}, Y: []float64{}, Sizes: []float64{}}
	for i := 0; i < y.Len(); i++ {
		xv, okx := number(x, i)
		yv, oky := number(y, i)
		sv, oks := number(size, i)
		sv *= scale
		if !okx || !oky || !oks || math.IsInf(sv, 0) {
			continue
		}
		p.X = append(p.X, xv)
		p.Y = append(p.Y, yv)
		p.Sizes = append(p.Sizes, sv)
	}
	return &prepared{payload: p}
}

// defaultAxes returns the axis ranges for a prepared payload. Pie and box
// charts have none, and neither does an empty payload.
func defaultAxes(s Spec, p *prepared) (Axes, bool) {
	if p == nil || p.payload.Len() == 0 {
		return Axes{}, false
	}
	switch v := p.payload.(type) {
	case *CategoryPayload:
		return Axes{Categories: v.Categories, Y: Range{0, float64(maxInt(v.Counts))}}, true
	case *HistogramPayload:
		x, ok := histogramSpan(v.Bins)
		if !ok {
			x = Range{0, float64(len(v.Bins))}
		}
		return Axes{X: x, Y: Range{0, float64(maxInt(v.Counts))}}, true
	case *SeriesPayload:
		return Axes{X: span(v.X), Y: span(v.Y), Categories: v.XLabels}, true
	case *BubblePayload:
		return Axes{X: span(v.X), Y: span(v.Y)}, true
	}
	return Axes{}, false
}

// statistics derives the statistics of a prepared payload. It reports
// ok=false when they are undefined, such as a regression over fewer than
// two points.
func statistics(s Spec, p *prepared) (Statistics, bool) {
	if p == nil || p.payload.Len() == 0 {
		return nil, false
	}
	switch v := p.payload.(type) {
	case *CategoryPayload:
		top := maxInt(v.Counts)
		var modes []string
		for i, n := range v.Counts {
			if n == top {
				modes = append(modes, v.Categories[i])
			}
		}
		return &BarStats{Unique: len(v.Categories), Modes: modes}, true
	case *PiePayload:
		total := floats.Sum(v.Values)
		if total == 0 {
			return nil, false
		}
		out := &PieStats{Proportions: make([]Proportion, len(v.Labels))}
		for i, l := range v.Labels {
			out.Proportions[i] = Proportion{Label: l, Share: v.Values[i] / total}
		}
		return out, true
	case *HistogramPayload:
		return describeSample(p.sample), true
	case *SeriesPayload:
		if _, isArea := s.(*Area); isArea {
			return &AreaStats{Area: trapezoid(v.Y)}, true
		}
		if len(v.Y) < 2 {
			return nil, false
		}
		return regress(v.X, v.Y), true
	case *BoxPayload:
		return &BoxStats{Min: v.Min, Q1: v.Q1, Median: v.Median, Q3: v.Q3, Max: v.Max}, true
	case *BubblePayload:
		if len(v.X) < 2 {
			return nil, false
		}
		return regress(v.X, v.Y), true
	}
	return nil, false
}

func describeSample(vals []float64) *HistogramStats {
	nan := math.NaN()
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	s := &HistogramStats{
		Count:  len(vals),
		Mean:   stat.Mean(vals, nil),
		Median: analysis.Quantile(sorted, 0.5),
		Std:    nan,
		Skew:   nan,
	}
	if len(vals) > 1 {
		s.Std = stat.StdDev(vals, nil)
	}
	if len(vals) > 2 {
		if s.Std == 0 {
			s.Skew = 0
		} else {
			s.Skew = stat.Skew(vals, nil)
		}
	}
	return s
}

// regress fits y = intercept + slope*x by ordinary least squares.
func regress(x, y []float64) *RegressionStats {
	out := &RegressionStats{N: len(x), Slope: math.NaN(), Intercept: math.NaN(), R: math.NaN()}
	if floats.Min(x) == floats.Max(x) {
		return out
	}
	out.Intercept, out.Slope = stat.LinearRegression(x, y, nil, false)
	if floats.Min(y) != floats.Max(y) {
		out.R = stat.Correlation(x, y, nil)
	}
	return out
}

// trapezoid integrates y with unit spacing.
func trapezoid(y []float64) float64 {
	if len(y) < 2 {
		return 0
	}
	xs := make([]float64, len(y))
	for i := range xs {
		xs[i] = float64(i)
	}
	return integrate.Trapezoidal(xs, y)
}

func maxInt(vals []int) int {
	m := 0
	for _, v := range vals {
		if v > m {
			m = v
		}
	}
	return m
}

func span(vals []float64) Range {
	if len(vals) == 0 {
		return Range{}
	}
	return Range{Min: floats.Min(vals), Max: floats.Max(vals)}
}
