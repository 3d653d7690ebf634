package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var useWorkspace string

var useCmd = &cobra.Command{
	Use:   "use <dataset-id>",
	Short: "Make a registered dataset the workspace's current one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if useWorkspace == "" {
			return fmt.Errorf("--workspace is required")
		}
		w, err := loadWorkspaceByName(useWorkspace)
		if err != nil {
			return err
		}
		if err := w.SetCurrent(args[0]); err != nil {
			return err
		}
		if err := w.Save(); err != nil {
			return err
		}
		d, _ := w.CurrentDataset()
		fmt.Printf("✓ Current dataset: %s\n", d.Name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(useCmd)
	useCmd.Flags().StringVarP(&useWorkspace, "workspace", "p", "", "workspace name")
}
