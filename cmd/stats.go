package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/KaramelBytes/statloom/internal/analysis"
	"github.com/spf13/cobra"
)

var (
	statsInput inputFlags

	pivotIndex   string
	pivotColumns string
	pivotValues  string
	pivotAgg     string

	aggGroup  string
	aggTarget string
	aggFuncs  string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Descriptive statistics, correlations, pivots and grouped aggregates",
}

var statsDescribeCmd = &cobra.Command{
	Use:   "describe [file]",
	Short: "Summarize every column",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newSession(os.Stderr)
		if _, err := statsInput.load(s, firstArg(args)); err != nil {
			return err
		}
		desc, err := s.Describe()
		if err != nil {
			return err
		}
		var rows [][]string
		for _, d := range desc {
			row := []string{d.Name, d.Kind.String(), strconv.Itoa(d.Count)}
			if n := d.Numeric; n != nil {
				row = append(row, formatFloat(n.Mean), formatFloat(n.Std), formatFloat(n.Min),
					formatFloat(n.Q1), formatFloat(n.Median), formatFloat(n.Q3), formatFloat(n.Max), "", "", "")
			} else {
				c := d.Categorical
				row = append(row, "", "", "", "", "", "", "", strconv.Itoa(c.Unique), c.Top, strconv.Itoa(c.Freq))
			}
			rows = append(rows, row)
		}
		renderTable(os.Stdout, []string{"column", "kind", "count", "mean", "std", "min", "25%", "50%", "75%", "max", "unique", "top", "freq"}, rows)
		return nil
	},
}

var statsCorrCmd = &cobra.Command{
	Use:   "corr [file]",
	Short: "Pearson correlation matrix of the numeric columns",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newSession(os.Stderr)
		t, err := statsInput.load(s, firstArg(args))
		if err != nil {
			return err
		}
		m := analysis.CorrelationMatrix(t)
		if len(m.Columns) == 0 {
			fmt.Fprintln(os.Stderr, "⚠ Warning: no numeric columns")
			return nil
		}
		rows := make([][]string, len(m.Columns))
		for i, name := range m.Columns {
			row := []string{name}
			for _, v := range m.Values[i] {
				row = append(row, formatFloat(v))
			}
			rows[i] = row
		}
		renderTable(os.Stdout, append([]string{""}, m.Columns...), rows)
		return nil
	},
}

var statsPivotCmd = &cobra.Command{
	Use:   "pivot [file]",
	Short: "Cross-tabulate a numeric column by two keys",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if pivotIndex == "" || pivotColumns == "" || pivotValues == "" {
			return fmt.Errorf("--index, --columns and --values are required")
		}
		agg, err := analysis.ParseAgg(pivotAgg)
		if err != nil {
			return err
		}
		s := newSession(os.Stderr)
		t, err := statsInput.load(s, firstArg(args))
		if err != nil {
			return err
		}
		p, err := analysis.Pivot(t, pivotIndex, pivotColumns, pivotValues, agg)
		if err != nil {
			return fmt.Errorf("pivot: %w", err)
		}
		rows := make([][]string, len(p.RowKeys))
		for i, rk := range p.RowKeys {
			row := []string{rk}
			for _, ck := range p.ColKeys {
				if v, ok := p.Lookup(rk, ck); ok {
					row = append(row, formatFloat(v))
				} else {
					row = append(row, "")
				}
			}
			rows[i] = row
		}
		fmt.Printf("%s of %s by %s x %s\n", p.Agg, p.Values, p.Index, p.Columns)
		renderTable(os.Stdout, append([]string{p.Index}, p.ColKeys...), rows)
		return nil
	},
}

var statsAggCmd = &cobra.Command{
	Use:   "agg [file]",
	Short: "Aggregate a numeric column per group",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if aggGroup == "" || aggTarget == "" {
			return fmt.Errorf("--group and --target are required")
		}
		aggs, err := analysis.ParseAggs(aggFuncs)
		if err != nil {
			return err
		}
		s := newSession(os.Stderr)
		t, err := statsInput.load(s, firstArg(args))
		if err != nil {
			return err
		}
		g, err := analysis.GroupedAggregate(t, aggGroup, aggTarget, aggs...)
		if err != nil {
			return fmt.Errorf("aggregate: %w", err)
		}
		header := []string{g.Group}
		for _, a := range g.Aggs {
			header = append(header, string(a))
		}
		rows := make([][]string, len(g.Keys))
		for i, k := range g.Keys {
			row := []string{k}
			for _, v := range g.Values[i] {
				row = append(row, formatFloat(v))
			}
			rows[i] = row
		}
		renderTable(os.Stdout, header, rows)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsInput.register(statsCmd.PersistentFlags())
	statsCmd.AddCommand(statsDescribeCmd, statsCorrCmd, statsPivotCmd, statsAggCmd)

	statsPivotCmd.Flags().StringVar(&pivotIndex, "index", "", "column whose values become rows")
	statsPivotCmd.Flags().StringVar(&pivotColumns, "columns", "", "column whose values become columns")
	statsPivotCmd.Flags().StringVar(&pivotValues, "values", "", "numeric column to aggregate")
	statsPivotCmd.Flags().StringVar(&pivotAgg, "agg", "mean", "aggregation: mean|sum|min|max|count|median|std")

	statsAggCmd.Flags().StringVar(&aggGroup, "group", "", "column to group by")
	statsAggCmd.Flags().StringVar(&aggTarget, "target", "", "numeric column to aggregate")
	statsAggCmd.Flags().StringVar(&aggFuncs, "aggs", "", "comma-separated aggregations (default mean,sum,max,min)")
}
