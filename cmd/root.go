package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	cfgpkg "github.com/KaramelBytes/statloom/internal/config"
	"github.com/KaramelBytes/statloom/internal/session"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	noColor bool

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "statloom",
	Short: "StatLoom CLI: summarize tables and prepare chart data",
	Long: `StatLoom loads CSV, TSV, JSON and XLSX tables, computes descriptive statistics,
pivots and grouped aggregates, and prepares chart-ready data for bar, pie,
histogram, line, scatter, area, box and bubble charts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.statloom/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
	}
	cfg = c
	if noColor || (cfg != nil && !cfg.Color) {
		color.NoColor = true
	}
	if debug && cfg != nil {
		debugf("config: workspaces_dir=%s data_dir=%s bins=%d scale=%g", cfg.WorkspacesDir, cfg.DataDir, cfg.HistogramBins, cfg.BubbleScale)
	}
}

func debugf(format string, args ...any) {
	if !debug {
		return
	}
	color.New(color.FgHiBlack).Fprintf(os.Stderr, "[debug] "+format+"\n", args...)
}

// statusSink prints session status lines to w: failures in red, missing
// data as a warning, everything else as a success line.
func statusSink(w io.Writer) session.StatusSink {
	return session.StatusFunc(func(msg string) {
		switch {
		case strings.HasPrefix(msg, "Error"):
			color.New(color.FgRed).Fprintln(w, "✗", msg)
		case strings.HasPrefix(msg, "No data"):
			color.New(color.FgYellow).Fprintln(w, "⚠", msg)
		default:
			color.New(color.FgGreen).Fprintln(w, "✓", msg)
		}
	})
}
