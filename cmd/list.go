package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/statloom/internal/workspace"
	"github.com/spf13/cobra"
)

var (
	listWorkspaces bool
	listDatasets   bool
	listWsName     string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List workspaces or datasets",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listWorkspaces == listDatasets { // either both true or both false
			return fmt.Errorf("specify exactly one of --workspaces or --datasets")
		}
		if listWorkspaces {
			return listAllWorkspaces()
		}
		if listWsName == "" {
			return fmt.Errorf("--workspace is required when using --datasets")
		}
		w, err := loadWorkspaceByName(listWsName)
		if err != nil {
			return err
		}
		datasets := w.SortedDatasets()
		if len(datasets) == 0 {
			fmt.Println("(no datasets)")
			return nil
		}
		for _, d := range datasets {
			marker := " "
			if d.ID == w.CurrentID {
				marker = "*"
			}
			name := d.Name
			if d.Sheet != "" {
				name += "#" + d.Sheet
			}
			fmt.Printf("%s %s: %s (%s, %d rows)\n", marker, d.ID, name, d.Format, d.Rows)
		}
		return nil
	},
}

func listAllWorkspaces() error {
	root, err := defaultWorkspacesDir()
	if err != nil {
		return err
	}
	dirs, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	found := false
	for _, e := range dirs {
		if !e.IsDir() {
			continue
		}
		if workspace.Exists(filepath.Join(root, e.Name())) {
			fmt.Printf("- %s\n", e.Name())
			found = true
		}
	}
	if !found {
		fmt.Println("(no workspaces)")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listWorkspaces, "workspaces", false, "list workspaces")
	listCmd.Flags().BoolVar(&listDatasets, "datasets", false, "list datasets in a workspace")
	listCmd.Flags().StringVarP(&listWsName, "workspace", "p", "", "workspace name for --datasets")
}
