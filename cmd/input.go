package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/statloom/internal/parser"
	"github.com/KaramelBytes/statloom/internal/session"
	"github.com/KaramelBytes/statloom/internal/table"
	"github.com/spf13/pflag"
)

// inputFlags selects the table a data command works on: a file path
// argument, or the current dataset of a workspace.
type inputFlags struct {
	workspace string
	format    string
	sheet     string
}

func (in *inputFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&in.workspace, "workspace", "p", "", "use the workspace's current dataset instead of a file")
	fs.StringVar(&in.format, "format", "", "input format: csv|tsv|json|xlsx (default: from extension)")
	fs.StringVar(&in.sheet, "sheet", "", "XLSX: sheet name to load")
}

// load fills s from path, or from the workspace's current dataset when
// path is empty.
func (in *inputFlags) load(s *session.Session, path string) (*table.Table, error) {
	if path == "" {
		if in.workspace == "" {
			return nil, errors.New("a file argument or --workspace is required")
		}
		w, err := loadWorkspaceByName(in.workspace)
		if err != nil {
			return nil, err
		}
		t, d, err := w.LoadCurrent()
		if err != nil {
			return nil, err
		}
		debugf("workspace %s: current dataset %s (%s)", w.Name, d.Name, d.ID)
		s.Replace(t, d.Path)
		return t, nil
	}
	path = resolveDataPath(path)
	format, err := in.inputFormat(path)
	if err != nil {
		return nil, err
	}
	if in.sheet != "" {
		if err := s.LoadSheet(path, in.sheet); err != nil {
			return nil, err
		}
		return s.Current(), nil
	}
	if err := s.Load(path, format); err != nil {
		return nil, err
	}
	return s.Current(), nil
}

// inputFormat resolves the format of path: --format first, then the
// extension, then the configured default_format. --sheet only pairs with
// XLSX.
func (in *inputFlags) inputFormat(path string) (parser.Format, error) {
	format, err := parser.ParseFormat(in.format)
	if err != nil {
		return "", err
	}
	if in.sheet != "" {
		if format != "" && format != parser.FormatXLSX {
			return "", fmt.Errorf("--sheet requires xlsx input, got --format %s", format)
		}
		return parser.FormatXLSX, nil
	}
	if format != "" || cfg == nil || cfg.DefaultFormat == "" {
		return format, nil
	}
	if _, derr := parser.DetectFormat(path); derr == nil {
		return "", nil
	}
	format, err = parser.ParseFormat(cfg.DefaultFormat)
	if err != nil {
		return "", fmt.Errorf("config default_format: %w", err)
	}
	return format, nil
}

// resolveDataPath looks up relative paths that do not exist under the
// configured data_dir.
func resolveDataPath(path string) string {
	if cfg == nil || cfg.DataDir == "" || filepath.IsAbs(path) {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return filepath.Join(cfg.DataDir, path)
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

// newSession returns a session whose status lines go to w.
func newSession(w io.Writer) *session.Session {
	return session.New(statusSink(w))
}
