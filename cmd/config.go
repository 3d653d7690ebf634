package cmd

import (
	"fmt"
	"strconv"

	cfgpkg "github.com/KaramelBytes/statloom/internal/config"
	"github.com/KaramelBytes/statloom/internal/parser"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set StatLoom configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		fmt.Printf("workspaces_dir: %s\n", cfg.WorkspacesDir)
		if cfg.DataDir != "" {
			fmt.Printf("data_dir: %s\n", cfg.DataDir)
		}
		if cfg.DefaultFormat != "" {
			fmt.Printf("default_format: %s\n", cfg.DefaultFormat)
		}
		fmt.Printf("histogram_bins: %d\n", cfg.HistogramBins)
		fmt.Printf("bubble_scale: %.3f\n", cfg.BubbleScale)
		fmt.Printf("sample_rows: %d\n", cfg.SampleRows)
		fmt.Printf("outlier_threshold: %.3f\n", cfg.OutlierThreshold)
		fmt.Printf("color: %t\n", cfg.Color)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "workspaces_dir":
			cfg.WorkspacesDir = val
		case "data_dir":
			cfg.DataDir = val
		case "default_format":
			f, err := parser.ParseFormat(val)
			if err != nil {
				return fmt.Errorf("invalid default_format: %w", err)
			}
			cfg.DefaultFormat = string(f)
		case "histogram_bins":
			i, err := strconv.Atoi(val)
			if err != nil || i < 1 {
				return fmt.Errorf("invalid int for histogram_bins: %v", val)
			}
			cfg.HistogramBins = i
		case "bubble_scale":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f <= 0 {
				return fmt.Errorf("invalid float for bubble_scale: %v", val)
			}
			cfg.BubbleScale = f
		case "sample_rows":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for sample_rows: %v", val)
			}
			cfg.SampleRows = i
		case "outlier_threshold":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil || f <= 0 {
				return fmt.Errorf("invalid float for outlier_threshold: %v", val)
			}
			cfg.OutlierThreshold = f
		case "color":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for color: %w", err)
			}
			cfg.Color = b
		default:
			return fmt.Errorf("unknown key: %s (known: %v)", key, cfgpkg.Keys)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Println("Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
