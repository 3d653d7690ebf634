package charts

import (
	"encoding/json"
	"math"
)

// Payload is the chart-ready data of one variant: *CategoryPayload,
// *PiePayload, *HistogramPayload, *SeriesPayload, *BoxPayload or
// *BubblePayload.
type Payload interface {
	// Len is the number of plotted items; zero means there is nothing to draw.
	Len() int
	payload()
}

// CategoryPayload holds value counts for a bar chart.
type CategoryPayload struct {
	Categories []string `json:"categories"`
	Counts     []int    `json:"counts"`
}

// PiePayload holds slice labels and their values.
type PiePayload struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// HistogramPayload holds bin labels ("lo-hi") and counts.
type HistogramPayload struct {
	Bins   []string `json:"bins"`
	Counts []int    `json:"counts"`
}

// SeriesPayload holds x/y points. XLabels is set when x was encoded from a
// non-numeric column; Baseline is set for area charts.
type SeriesPayload struct {
	X        []float64 `json:"x"`
	Y        []float64 `json:"y"`
	XLabels  []string  `json:"x_labels,omitempty"`
	Baseline []float64 `json:"baseline,omitempty"`
}

// BoxPayload holds a five-number summary. N is zero when there were no values.
type BoxPayload struct {
	N      int     `json:"n"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// MarshalJSON writes an empty object for an empty summary.
func (b *BoxPayload) MarshalJSON() ([]byte, error) {
	if b.N == 0 {
		return []byte("{}"), nil
	}
	type plain BoxPayload
	return json.Marshal((*plain)(b))
}

// BubblePayload holds x/y points with a marker size each.
type BubblePayload struct {
	X     []float64 `json:"x"`
	Y     []float64 `json:"y"`
	Sizes []float64 `json:"sizes"`
}

func (p *CategoryPayload) Len() int  { return len(p.Categories) }
func (p *PiePayload) Len() int       { return len(p.Labels) }
func (p *HistogramPayload) Len() int { return len(p.Bins) }
func (p *SeriesPayload) Len() int    { return len(p.Y) }
func (p *BoxPayload) Len() int       { return p.N }
func (p *BubblePayload) Len() int    { return len(p.X) }

func (*CategoryPayload) payload()  {}
func (*PiePayload) payload()       {}
func (*HistogramPayload) payload() {}
func (*SeriesPayload) payload()    {}
func (*BoxPayload) payload()       {}
func (*BubblePayload) payload()    {}

// finite replaces NaN and infinities with nil so values survive JSON encoding.
func finite(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}
