package cmd

import (
	"fmt"
	"os"

	"github.com/KaramelBytes/statloom/internal/parser"
	"github.com/KaramelBytes/statloom/internal/session"
	"github.com/KaramelBytes/statloom/internal/table"
	"github.com/spf13/cobra"
)

var (
	tableInput inputFlags

	showRows int

	groupBy string

	filterColumn string
	filterValue  string

	tableOutput       string
	tableOutputFormat string
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Show, group or filter a table",
}

var tableShowCmd = &cobra.Command{
	Use:   "show [file]",
	Short: "Print the first rows of a table",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := newSession(os.Stderr)
		t, err := tableInput.load(s, firstArg(args))
		if err != nil {
			return err
		}
		renderData(os.Stdout, table.Head(t, showRows))
		fmt.Printf("%d rows x %d columns\n", t.Len(), t.Width())
		return nil
	},
}

var tableGroupCmd = &cobra.Command{
	Use:   "group [file]",
	Short: "Mean of every numeric column per distinct value of --by",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if groupBy == "" {
			return fmt.Errorf("--by is required")
		}
		s := newSession(os.Stderr)
		t, err := tableInput.load(s, firstArg(args))
		if err != nil {
			return err
		}
		out, err := table.Group(t, groupBy)
		if err != nil {
			return fmt.Errorf("group: %w", err)
		}
		return emitTable(s, out)
	},
}

var tableFilterCmd = &cobra.Command{
	Use:   "filter [file]",
	Short: "Keep the rows where --column equals --value",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if filterColumn == "" {
			return fmt.Errorf("--column is required")
		}
		s := newSession(os.Stderr)
		t, err := tableInput.load(s, firstArg(args))
		if err != nil {
			return err
		}
		out, err := table.Filter(t, filterColumn, filterValue)
		if err != nil {
			return fmt.Errorf("filter: %w", err)
		}
		return emitTable(s, out)
	},
}

// emitTable saves out to -o through the session, or prints it.
func emitTable(s *session.Session, out *table.Table) error {
	if tableOutput == "" {
		renderData(os.Stdout, out)
		return nil
	}
	format, err := parser.ParseFormat(tableOutputFormat)
	if err != nil {
		return err
	}
	s.Replace(out, s.Source())
	return s.Save(tableOutput, format)
}

func init() {
	rootCmd.AddCommand(tableCmd)
	tableInput.register(tableCmd.PersistentFlags())
	tableCmd.AddCommand(tableShowCmd, tableGroupCmd, tableFilterCmd)

	tableShowCmd.Flags().IntVar(&showRows, "rows", 10, "number of rows to print (negative prints all)")
	tableGroupCmd.Flags().StringVar(&groupBy, "by", "", "key column")
	tableFilterCmd.Flags().StringVar(&filterColumn, "column", "", "column to compare")
	tableFilterCmd.Flags().StringVar(&filterValue, "value", "", "value to keep")
	for _, c := range []*cobra.Command{tableGroupCmd, tableFilterCmd} {
		c.Flags().StringVarP(&tableOutput, "output", "o", "", "save the result instead of printing it")
		c.Flags().StringVar(&tableOutputFormat, "output-format", "", "format for -o (default: from extension)")
	}
}
