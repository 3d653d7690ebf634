package charts

import (
	"math"
	"regexp"
	"strconv"
)

// Axes are the default axis ranges of a prepared chart. Categories labels
// the x axis of bar charts and of series whose x column was encoded.
type Axes struct {
	X          Range    `json:"x"`
	Y          Range    `json:"y"`
	Categories []string `json:"categories,omitempty"`
}

var binLabel = regexp.MustCompile(`^(-?\d+(?:\.\d+)?)-(-?\d+(?:\.\d+)?)$`)

// histogramSpan reads the x range back from the first and last bin labels.
func histogramSpan(bins []string) (Range, bool) {
	if len(bins) == 0 {
		return Range{}, false
	}
	first := binLabel.FindStringSubmatch(bins[0])
	last := binLabel.FindStringSubmatch(bins[len(bins)-1])
	if first == nil || last == nil {
		return Range{}, false
	}
	lo, err1 := strconv.ParseFloat(first[1], 64)
	hi, err2 := strconv.ParseFloat(last[2], 64)
	if err1 != nil || err2 != nil {
		return Range{}, false
	}
	return Range{Min: lo, Max: hi}, true
}

// Normalize min-max scales series to [0, 1]. NaN entries stay NaN and are
// ignored for the bounds; a series whose values are all equal maps to zeros.
func Normalize(series []float64) []float64 {
	out := make([]float64, len(series))
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range series {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	width := hi - lo
	for i, v := range series {
		switch {
		case math.IsNaN(v):
			out[i] = v
		case width == 0 || math.IsInf(width, 0) || math.IsNaN(width):
			out[i] = 0
		default:
			out[i] = (v - lo) / width
		}
	}
	return out
}
