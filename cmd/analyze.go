package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/statloom/internal/analysis"
	"github.com/KaramelBytes/statloom/internal/utils"
	"github.com/KaramelBytes/statloom/internal/workspace"
	"github.com/spf13/cobra"
)

var (
	anaInput      inputFlags
	anaOutputPath string
	anaAttach     bool
	anaSampleRows int
	anaMaxRows    int
	anaGroupBy    []string
	anaCorr       bool
	anaCorrGroups bool
	anaOutliers   bool
	anaOutlierThr float64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Analyze a table and produce a concise Markdown summary",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt := analysisOptions(cmd, anaSampleRows, anaMaxRows, anaOutlierThr)
		opt.GroupBy = anaGroupBy
		opt.Correlations = anaCorr
		opt.CorrPerGroup = anaCorrGroups
		if cmd.Flags().Changed("outliers") {
			opt.Outliers = anaOutliers
		} else {
			opt.Outliers = true
		}

		s := newSession(os.Stderr)
		t, err := anaInput.load(s, firstArg(args))
		if err != nil {
			return err
		}
		rep := analysis.AnalyzeTable(t, filepath.Base(s.Source()), opt)
		md := rep.Markdown()
		for _, w := range rep.Warnings {
			fmt.Fprintf(os.Stderr, "⚠ Warning: %s\n", w)
		}

		// Decide where to write: --output path, the workspace reports folder, or stdout
		written := false
		if anaOutputPath != "" {
			if err := os.WriteFile(anaOutputPath, []byte(md), 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Printf("✓ Wrote analysis to %s\n", anaOutputPath)
			written = true
		}
		if anaAttach {
			if anaInput.workspace == "" {
				return fmt.Errorf("--attach requires --workspace")
			}
			w, err := loadWorkspaceByName(anaInput.workspace)
			if err != nil {
				return err
			}
			outFile, err := writeWorkspaceReport(w, s.Source(), md)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Added analysis to workspace '%s' as %s\n", w.Name, filepath.Base(outFile))
			written = true
		}
		if !written {
			fmt.Println(md)
		}
		return nil
	},
}

// analysisOptions starts from the defaults, then config, then explicit flags.
func analysisOptions(cmd *cobra.Command, sampleRows, maxRows int, outlierThr float64) analysis.Options {
	opt := analysis.DefaultOptions()
	if cfg != nil {
		opt.SampleRows = cfg.SampleRows
		if cfg.OutlierThreshold > 0 {
			opt.OutlierThreshold = cfg.OutlierThreshold
		}
	}
	f := cmd.Flags()
	if f.Changed("sample-rows") && sampleRows >= 0 {
		opt.SampleRows = sampleRows
	}
	if f.Changed("max-rows") && maxRows >= 0 {
		opt.MaxRows = maxRows
	}
	if f.Changed("outlier-threshold") && outlierThr > 0 {
		opt.OutlierThreshold = outlierThr
	}
	return opt
}

// writeWorkspaceReport stores md under the workspace's reports folder as
// <base>.summary.md, adding a __N suffix instead of overwriting.
func writeWorkspaceReport(w *workspace.Workspace, source, md string) (string, error) {
	outDir := filepath.Join(w.RootDir(), "reports")
	if err := utils.EnsureDir(outDir); err != nil {
		return "", err
	}
	base := filepath.Base(source)
	safe := strings.TrimSuffix(base, filepath.Ext(base))
	if safe == "" {
		safe = "dataset"
	}
	outFile := filepath.Join(outDir, safe+".summary.md")
	if _, statErr := os.Stat(outFile); statErr == nil {
		for idx := 2; ; idx++ {
			cand := filepath.Join(outDir, fmt.Sprintf("%s__%d.summary.md", safe, idx))
			if _, err := os.Stat(cand); os.IsNotExist(err) {
				outFile = cand
				break
			}
		}
	}
	if err := utils.SafeWriteFile(outFile, []byte(md)); err != nil {
		return "", fmt.Errorf("write workspace report: %w", err)
	}
	return outFile, nil
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	anaInput.register(analyzeCmd.Flags())
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write analysis (Markdown)")
	analyzeCmd.Flags().BoolVar(&anaAttach, "attach", false, "store the report in the workspace's reports folder")
	analyzeCmd.Flags().IntVar(&anaSampleRows, "sample-rows", 5, "number of sample rows to include (0 disables)")
	analyzeCmd.Flags().IntVar(&anaMaxRows, "max-rows", 100000, "maximum rows to process (0 = unlimited)")
	analyzeCmd.Flags().StringSliceVar(&anaGroupBy, "group-by", nil, "comma-separated column names to group by (repeatable)")
	analyzeCmd.Flags().BoolVar(&anaCorr, "correlations", false, "compute Pearson correlations among numeric columns")
	analyzeCmd.Flags().BoolVar(&anaCorrGroups, "corr-per-group", false, "compute correlation pairs within each group (may be slower)")
	analyzeCmd.Flags().BoolVar(&anaOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	analyzeCmd.Flags().Float64Var(&anaOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
}
