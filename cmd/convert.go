package cmd

import (
	"os"

	"github.com/KaramelBytes/statloom/internal/parser"
	"github.com/spf13/cobra"
)

var (
	convInput  inputFlags
	convFormat string
)

var convertCmd = &cobra.Command{
	Use:   "convert <in> <out>",
	Short: "Convert a table between CSV, TSV, JSON and XLSX",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := parser.ParseFormat(convFormat)
		if err != nil {
			return err
		}
		s := newSession(os.Stdout)
		if _, err := convInput.load(s, args[0]); err != nil {
			return err
		}
		return s.Save(args[1], format)
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringVar(&convInput.format, "input-format", "", "input format (default: from extension)")
	convertCmd.Flags().StringVar(&convInput.sheet, "sheet", "", "XLSX: sheet name to load")
	convertCmd.Flags().StringVar(&convFormat, "format", "", "output format: csv|tsv|json|xlsx (default: from extension)")
}
