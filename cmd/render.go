package cmd

import (
	"io"
	"math"
	"strconv"

	"github.com/KaramelBytes/statloom/internal/table"
	"github.com/olekukonko/tablewriter"
)

// renderTable prints header and rows as a bordered text table.
func renderTable(w io.Writer, header []string, rows [][]string) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(header)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.AppendBulk(rows)
	tw.Render()
}

// renderData prints every row of t.
func renderData(w io.Writer, t *table.Table) {
	rows := make([][]string, t.Len())
	for i := range rows {
		rows[i] = t.StringRow(i)
	}
	renderTable(w, t.Names(), rows)
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 4, 64)
}
