package cmd

import (
	"fmt"

	"github.com/KaramelBytes/statloom/internal/parser"
	"github.com/spf13/cobra"
)

var (
	addWorkspace string
	addFormat    string
	addSheet     string
)

var addCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Register a dataset in a workspace and make it current",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if addWorkspace == "" {
			return fmt.Errorf("--workspace is required")
		}
		w, err := loadWorkspaceByName(addWorkspace)
		if err != nil {
			return err
		}
		format, err := parser.ParseFormat(addFormat)
		if err != nil {
			return err
		}
		d, err := w.AddDataset(args[0], format, addSheet)
		if err != nil {
			return err
		}
		if err := w.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Dataset added: %s (%d rows, %d columns) id=%s\n", d.Name, d.Rows, len(d.Columns), d.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addWorkspace, "workspace", "p", "", "workspace name")
	addCmd.Flags().StringVar(&addFormat, "format", "", "file format: csv|tsv|json|xlsx (default: from extension)")
	addCmd.Flags().StringVar(&addSheet, "sheet", "", "XLSX: sheet name to register")
}
