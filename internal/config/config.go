package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/statloom/internal/utils"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	WorkspacesDir string `mapstructure:"workspaces_dir" yaml:"workspaces_dir"`
	// DataDir is the folder relative dataset paths are resolved against.
	DataDir       string `mapstructure:"data_dir" yaml:"data_dir"`
	DefaultFormat string `mapstructure:"default_format" yaml:"default_format"`

	// Charts
	HistogramBins int     `mapstructure:"histogram_bins" yaml:"histogram_bins"`
	BubbleScale   float64 `mapstructure:"bubble_scale" yaml:"bubble_scale"`

	// Reports
	SampleRows       int     `mapstructure:"sample_rows" yaml:"sample_rows"`
	OutlierThreshold float64 `mapstructure:"outlier_threshold" yaml:"outlier_threshold"`

	// Color toggles colored status output.
	Color bool `mapstructure:"color" yaml:"color"`
}

// Keys lists the settable configuration keys in display order.
var Keys = []string{
	"workspaces_dir", "data_dir", "default_format",
	"histogram_bins", "bubble_scale", "sample_rows", "outlier_threshold", "color",
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".statloom"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.statloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("STATLOOM")
	v.AutomaticEnv()

	v.SetDefault("workspaces_dir", "")
	v.SetDefault("data_dir", "")
	v.SetDefault("default_format", "")
	v.SetDefault("histogram_bins", 10)
	v.SetDefault("bubble_scale", 1.0)
	v.SetDefault("sample_rows", 5)
	v.SetDefault("outlier_threshold", 3.5)
	v.SetDefault("color", true)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Resolve workspaces_dir default: ~/.statloom/workspaces
	if c.WorkspacesDir == "" {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		c.WorkspacesDir = filepath.Join(dir, "workspaces")
	}
	var err error
	if c.WorkspacesDir, err = utils.ExpandHome(c.WorkspacesDir); err != nil {
		return nil, err
	}
	if c.DataDir != "" {
		if c.DataDir, err = utils.ExpandHome(c.DataDir); err != nil {
			return nil, err
		}
	}
	if c.HistogramBins < 1 {
		c.HistogramBins = 10
	}
	return &c, nil
}
