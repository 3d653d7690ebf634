package charts

import (
	"fmt"

	"github.com/KaramelBytes/statloom/internal/table"
)

// Preparer binds a table to a chart spec. Prepare computes the payload once
// and caches it; the setters change the spec and drop the cached payload.
// A Preparer is not safe for concurrent use.
type Preparer struct {
	table    *table.Table
	spec     Spec
	prepared *prepared
}

// New returns a preparer for spec over t. t may be nil.
func New(t *table.Table, spec Spec) *Preparer {
	return &Preparer{table: t, spec: spec}
}

// Spec returns the bound chart spec.
func (p *Preparer) Spec() Spec { return p.spec }

// Title returns the chart label or its generated default.
func (p *Preparer) Title() string { return Title(p.spec) }

// Prepared reports whether a payload is cached.
func (p *Preparer) Prepared() bool { return p.prepared != nil }

// Prepare computes the payload, or returns the cached one.
func (p *Preparer) Prepare() (Payload, error) {
	if p.prepared != nil {
		return p.prepared.payload, nil
	}
	if p.spec == nil {
		return nil, fmt.Errorf("%w: no chart spec", ErrUnknownKind)
	}
	res, err := prepare(p.table, p.spec)
	if err != nil {
		return nil, err
	}
	p.prepared = res
	return res.payload, nil
}

// Payload returns the cached payload; ok is false before Prepare.
func (p *Preparer) Payload() (Payload, bool) {
	if p.prepared == nil {
		return nil, false
	}
	return p.prepared.payload, true
}

// DefaultAxes returns the default axis ranges; ok is false before Prepare,
// for pie and box charts, and for empty payloads.
func (p *Preparer) DefaultAxes() (Axes, bool) {
	if p.prepared == nil {
		return Axes{}, false
	}
	return defaultAxes(p.spec, p.prepared)
}

// Statistics returns the chart statistics; ok is false before Prepare and
// when they are undefined for the data.
func (p *Preparer) Statistics() (Statistics, bool) {
	if p.prepared == nil {
		return nil, false
	}
	return statistics(p.spec, p.prepared)
}

func (p *Preparer) reset() { p.prepared = nil }

// SetLabel sets the chart title.
func (p *Preparer) SetLabel(label string) error {
	switch s := p.spec.(type) {
	case *Bar:
		s.Label = label
	case *Pie:
		s.Label = label
	case *Histogram:
		s.Label = label
	case *Line:
		s.Label = label
	case *Scatter:
		s.Label = label
	case *Area:
		s.Label = label
	case *Box:
		s.Label = label
	case *Bubble:
		s.Label = label
	default:
		return ErrNotApplicable
	}
	p.reset()
	return nil
}

// SetRange restricts a histogram to [lo, hi]. lo == hi is widened by 0.5
// on each side when binning.
func (p *Preparer) SetRange(lo, hi float64) error {
	h, ok := p.spec.(*Histogram)
	if !ok {
		return fmt.Errorf("%w: range on %s", ErrNotApplicable, kindOf(p.spec))
	}
	if !validRange(lo, hi) {
		return fmt.Errorf("%w: %g-%g", ErrInvalidRange, lo, hi)
	}
	h.Range = &Range{Min: lo, Max: hi}
	p.reset()
	return nil
}

// SetBins sets the histogram bin count.
func (p *Preparer) SetBins(n int) error {
	h, ok := p.spec.(*Histogram)
	if !ok {
		return fmt.Errorf("%w: bins on %s", ErrNotApplicable, kindOf(p.spec))
	}
	if n < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidBins, n)
	}
	h.Bins = n
	p.reset()
	return nil
}

// SetMergeMap sets the pie merge map.
func (p *Preparer) SetMergeMap(m MergeMap) error {
	pie, ok := p.spec.(*Pie)
	if !ok {
		return fmt.Errorf("%w: merge map on %s", ErrNotApplicable, kindOf(p.spec))
	}
	pie.Merge = m
	p.reset()
	return nil
}

// SetSizeScale sets the bubble size multiplier.
func (p *Preparer) SetSizeScale(scale float64) error {
	b, ok := p.spec.(*Bubble)
	if !ok {
		return fmt.Errorf("%w: size scale on %s", ErrNotApplicable, kindOf(p.spec))
	}
	b.Scale = scale
	p.reset()
	return nil
}

func kindOf(s Spec) Kind {
	if s == nil {
		return ""
	}
	return s.Kind()
}
