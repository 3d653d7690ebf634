package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/KaramelBytes/statloom/internal/analysis"
	"github.com/KaramelBytes/statloom/internal/workspace"
	"github.com/spf13/cobra"
)

var (
	abWorkspace  string
	abFormat     string
	abSheet      string
	abSampleRows int
	abMaxRows    int
	abGroupBy    []string
	abCorr       bool
	abCorrGroups bool
	abOutliers   bool
	abOutlierThr float64
	abQuiet      bool
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze multiple tables with progress and optional workspace attachment",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		seen := map[string]struct{}{}
		for _, arg := range args {
			matches, _ := filepath.Glob(arg)
			if len(matches) == 0 {
				// treat as literal path if exists
				if _, err := os.Stat(arg); err == nil {
					matches = []string{arg}
				}
			}
			for _, m := range matches {
				if _, ok := seen[m]; ok {
					continue
				}
				seen[m] = struct{}{}
				files = append(files, m)
			}
		}
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		sort.Strings(files)

		opt := analysisOptions(cmd, abSampleRows, abMaxRows, abOutlierThr)
		opt.GroupBy = abGroupBy
		opt.Correlations = abCorr
		opt.CorrPerGroup = abCorrGroups
		if cmd.Flags().Changed("outliers") {
			opt.Outliers = abOutliers
		} else {
			opt.Outliers = true
		}

		var w *workspace.Workspace
		if abWorkspace != "" {
			ww, err := loadWorkspaceByName(abWorkspace)
			if err != nil {
				return err
			}
			w = ww
		}

		in := inputFlags{format: abFormat, sheet: abSheet}
		total := len(files)
		for i, path := range files {
			if !abQuiet {
				fmt.Printf("[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			s := newSession(os.Stderr)
			t, err := in.load(s, path)
			if err != nil {
				return err
			}
			md := analysis.AnalyzeTable(t, filepath.Base(path), opt).Markdown()
			if w == nil {
				if !abQuiet {
					fmt.Println(md)
				}
				continue
			}
			outFile, err := writeWorkspaceReport(w, path, md)
			if err != nil {
				return err
			}
			if !abQuiet {
				fmt.Printf("✓ Added analysis to workspace '%s' as %s\n", w.Name, filepath.Base(outFile))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVarP(&abWorkspace, "workspace", "p", "", "workspace to store reports in")
	analyzeBatchCmd.Flags().StringVar(&abFormat, "format", "", "input format for every file (default: from extension)")
	analyzeBatchCmd.Flags().StringVar(&abSheet, "sheet", "", "XLSX: sheet name to analyze")
	analyzeBatchCmd.Flags().IntVar(&abSampleRows, "sample-rows", 5, "number of sample rows to include (0 disables)")
	analyzeBatchCmd.Flags().IntVar(&abMaxRows, "max-rows", 100000, "maximum rows to process (0 = unlimited)")
	analyzeBatchCmd.Flags().StringSliceVar(&abGroupBy, "group-by", nil, "comma-separated column names to group by (repeatable)")
	analyzeBatchCmd.Flags().BoolVar(&abCorr, "correlations", false, "compute Pearson correlations among numeric columns")
	analyzeBatchCmd.Flags().BoolVar(&abCorrGroups, "corr-per-group", false, "compute correlation pairs within each group (may be slower)")
	analyzeBatchCmd.Flags().BoolVar(&abOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	analyzeBatchCmd.Flags().Float64Var(&abOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
}
