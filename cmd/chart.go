package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/KaramelBytes/statloom/internal/charts"
	"github.com/spf13/cobra"
)

var (
	chartInput     inputFlags
	chartColumn    string
	chartX         string
	chartSize      string
	chartValues    string
	chartBins      int
	chartRange     string
	chartMerge     []string
	chartScale     float64
	chartLabel     string
	chartNormalize bool
	chartJSON      bool
)

var chartCmd = &cobra.Command{
	Use:   "chart <kind> [file]",
	Short: "Prepare chart data: bar, pie, histogram, line, scatter, area, box or bubble",
	Long: `Prepare chart-ready data for one column (or an x/y pair) of a table and print
the payload, default axes and chart statistics. Kinds: bar, pie, histogram
(hist), line, scatter, area, box (boxplot) and bubble.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := charts.ParseKind(args[0])
		if err != nil {
			return err
		}
		if chartColumn == "" {
			return fmt.Errorf("--column is required")
		}
		// JSON goes to stdout; keep status lines out of it.
		statusOut := io.Writer(os.Stdout)
		if chartJSON {
			statusOut = os.Stderr
		}
		s := newSession(statusOut)
		if _, err := chartInput.load(s, firstArg(args[1:])); err != nil {
			return err
		}
		spec, err := charts.NewSpec(kind, charts.Selection{Column: chartColumn, X: chartX, Size: chartSize, Values: chartValues})
		if err != nil {
			return err
		}
		p := s.Chart(spec)
		if err := configureChart(cmd, p, kind); err != nil {
			return err
		}
		payload, err := p.Prepare()
		if err != nil {
			return err
		}
		if chartNormalize {
			payload = normalizePayload(payload)
		}
		axes, axesOK := p.DefaultAxes()
		if chartNormalize && axesOK && isXY(payload) {
			axes.Y = charts.Range{Min: 0, Max: 1}
		}
		stats, statsOK := p.Statistics()
		if chartJSON {
			return writeChartJSON(os.Stdout, p.Title(), kind, payload, axes, axesOK, stats, statsOK)
		}
		printChart(os.Stdout, p.Title(), payload, axes, axesOK, stats, statsOK)
		return nil
	},
}

// configureChart applies the flag and config parameters that fit kind.
func configureChart(cmd *cobra.Command, p *charts.Preparer, kind charts.Kind) error {
	f := cmd.Flags()
	if chartLabel != "" {
		if err := p.SetLabel(chartLabel); err != nil {
			return err
		}
	}
	switch {
	case f.Changed("bins"):
		if err := p.SetBins(chartBins); err != nil {
			return err
		}
	case kind == charts.KindHistogram && cfg != nil:
		if err := p.SetBins(cfg.HistogramBins); err != nil {
			return err
		}
	}
	if chartRange != "" {
		r, err := charts.ParseRange(chartRange)
		if err != nil {
			return err
		}
		if err := p.SetRange(r.Min, r.Max); err != nil {
			return err
		}
	}
	if len(chartMerge) > 0 {
		m, err := charts.ParseMerge(chartMerge)
		if err != nil {
			return err
		}
		if err := p.SetMergeMap(m); err != nil {
			return err
		}
	}
	switch {
	case f.Changed("scale"):
		if err := p.SetSizeScale(chartScale); err != nil {
			return err
		}
	case kind == charts.KindBubble && cfg != nil && cfg.BubbleScale > 0:
		if err := p.SetSizeScale(cfg.BubbleScale); err != nil {
			return err
		}
	}
	return nil
}

func isXY(pl charts.Payload) bool {
	switch pl.(type) {
	case *charts.SeriesPayload, *charts.BubblePayload:
		return true
	}
	return false
}

// normalizePayload returns a copy of x/y payloads with y scaled to [0, 1].
func normalizePayload(pl charts.Payload) charts.Payload {
	switch v := pl.(type) {
	case *charts.SeriesPayload:
		out := *v
		out.Y = charts.Normalize(v.Y)
		if v.Baseline != nil {
			out.Baseline = make([]float64, len(v.Baseline))
		}
		return &out
	case *charts.BubblePayload:
		out := *v
		out.Y = charts.Normalize(v.Y)
		return &out
	}
	return pl
}

func writeChartJSON(w io.Writer, title string, kind charts.Kind, payload charts.Payload, axes charts.Axes, axesOK bool, stats charts.Statistics, statsOK bool) error {
	doc := struct {
		Title      string          `json:"title"`
		Kind       charts.Kind     `json:"kind"`
		Payload    charts.Payload  `json:"payload"`
		Axes       *charts.Axes    `json:"axes"`
		Statistics json.RawMessage `json:"statistics"`
	}{Title: title, Kind: kind, Payload: payload, Statistics: json.RawMessage("null")}
	if axesOK {
		doc.Axes = &axes
	}
	if statsOK {
		raw, err := charts.FieldsJSON(stats)
		if err != nil {
			return fmt.Errorf("encode statistics: %w", err)
		}
		doc.Statistics = raw
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func printChart(w io.Writer, title string, payload charts.Payload, axes charts.Axes, axesOK bool, stats charts.Statistics, statsOK bool) {
	fmt.Fprintln(w, title)
	if payload == nil || payload.Len() == 0 {
		fmt.Fprintln(w, "(no data to plot)")
		return
	}
	switch v := payload.(type) {
	case *charts.CategoryPayload:
		rows := make([][]string, len(v.Categories))
		for i, c := range v.Categories {
			rows[i] = []string{c, strconv.Itoa(v.Counts[i])}
		}
		renderTable(w, []string{"category", "count"}, rows)
	case *charts.PiePayload:
		rows := make([][]string, len(v.Labels))
		for i, l := range v.Labels {
			rows[i] = []string{l, formatFloat(v.Values[i])}
		}
		renderTable(w, []string{"label", "value"}, rows)
	case *charts.HistogramPayload:
		rows := make([][]string, len(v.Bins))
		for i, b := range v.Bins {
			rows[i] = []string{b, strconv.Itoa(v.Counts[i])}
		}
		renderTable(w, []string{"bin", "count"}, rows)
	case *charts.SeriesPayload:
		header := []string{"x", "y"}
		if v.XLabels != nil {
			header = append(header, "label")
		}
		rows := make([][]string, len(v.Y))
		for i := range v.Y {
			row := []string{formatFloat(v.X[i]), formatFloat(v.Y[i])}
			if v.XLabels != nil {
				row = append(row, v.XLabels[int(v.X[i])])
			}
			rows[i] = row
		}
		renderTable(w, header, rows)
	case *charts.BoxPayload:
		renderTable(w, []string{"n", "min", "q1", "median", "q3", "max"}, [][]string{{
			strconv.Itoa(v.N), formatFloat(v.Min), formatFloat(v.Q1), formatFloat(v.Median), formatFloat(v.Q3), formatFloat(v.Max),
		}})
	case *charts.BubblePayload:
		rows := make([][]string, len(v.X))
		for i := range v.X {
			rows[i] = []string{formatFloat(v.X[i]), formatFloat(v.Y[i]), formatFloat(v.Sizes[i])}
		}
		renderTable(w, []string{"x", "y", "size"}, rows)
	}
	if axesOK {
		fmt.Fprintf(w, "x axis: %s .. %s\n", formatFloat(axes.X.Min), formatFloat(axes.X.Max))
		fmt.Fprintf(w, "y axis: %s .. %s\n", formatFloat(axes.Y.Min), formatFloat(axes.Y.Max))
	}
	if statsOK {
		parts := make([]string, 0, len(stats.Fields()))
		for _, f := range stats.Fields() {
			parts = append(parts, f.Name+"="+f.String())
		}
		fmt.Fprintf(w, "statistics: %s\n", strings.Join(parts, " "))
	}
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chartInput.register(chartCmd.Flags())
	chartCmd.Flags().StringVarP(&chartColumn, "column", "c", "", "column to plot (y for two-axis charts)")
	chartCmd.Flags().StringVar(&chartX, "x", "", "x column for line, scatter, area and bubble charts (default: row index)")
	chartCmd.Flags().StringVar(&chartSize, "size", "", "bubble size column")
	chartCmd.Flags().StringVar(&chartValues, "values", "", "pie: numeric column summed per category (default: counts)")
	chartCmd.Flags().IntVar(&chartBins, "bins", charts.DefaultBins, "histogram bin count")
	chartCmd.Flags().StringVar(&chartRange, "range", "", "histogram range lo,hi")
	chartCmd.Flags().StringArrayVar(&chartMerge, "merge", nil, "pie: fold labels into one, new=old1,old2 (repeatable)")
	chartCmd.Flags().Float64Var(&chartScale, "scale", 1, "bubble size multiplier")
	chartCmd.Flags().StringVar(&chartLabel, "label", "", "chart title")
	chartCmd.Flags().BoolVar(&chartNormalize, "normalize", false, "min-max scale y values to [0, 1]")
	chartCmd.Flags().BoolVar(&chartJSON, "json", false, "print the chart as JSON")
}
