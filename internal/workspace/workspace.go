package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/KaramelBytes/statloom/internal/parser"
	"github.com/KaramelBytes/statloom/internal/table"
	"github.com/KaramelBytes/statloom/internal/utils"
	"github.com/google/uuid"
)

const (
	workspaceFileName = "workspace.json"
)

// ErrDatasetNotFound is returned for ids that are not registered.
var ErrDatasetNotFound = errors.New("dataset not found")

// Workspace represents a statloom workspace persisted on disk.
type Workspace struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	DataDir     string              `json:"data_dir"`
	Datasets    map[string]*Dataset `json:"datasets"`
	CurrentID   string              `json:"current"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`

	// Not serialized: on-disk location of the workspace.json
	rootDir string `json:"-"`
}

// NewWorkspace constructs an in-memory workspace. Call Save() to persist.
func NewWorkspace(name, description, dataDir, rootDir string) *Workspace {
	return &Workspace{
		Name:        name,
		Description: description,
		DataDir:     dataDir,
		Datasets:    make(map[string]*Dataset),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		rootDir:     rootDir,
	}
}

// LoadWorkspace loads a workspace.json from the provided directory.
func LoadWorkspace(dir string) (*Workspace, error) {
	path := filepath.Join(dir, workspaceFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("workspace not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read workspace: %w", err)
	}
	var w Workspace
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, fmt.Errorf("parse workspace: %w", err)
	}
	if w.Datasets == nil {
		w.Datasets = make(map[string]*Dataset)
	}
	w.rootDir = dir
	return &w, nil
}

// Exists reports whether dir holds a workspace.json.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, workspaceFileName))
	return err == nil
}

// RootDir returns the on-disk workspace directory path.
func (w *Workspace) RootDir() string { return w.rootDir }

// Save writes workspace.json using atomic write.
func (w *Workspace) Save() error {
	if w.rootDir == "" {
		return errors.New("workspace root directory not set")
	}
	if err := utils.EnsureDir(w.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	w.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(w)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(w.rootDir, workspaceFileName), data)
}

// ResolvePath makes a relative dataset path absolute against the data folder.
func (w *Workspace) ResolvePath(path string) string {
	if filepath.IsAbs(path) || w.DataDir == "" {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return filepath.Join(w.DataDir, path)
}

// AddDataset loads a table file to validate it and registers it as the
// current dataset. sheet selects an XLSX sheet and is ignored otherwise.
func (w *Workspace) AddDataset(path string, format parser.Format, sheet string) (*Dataset, error) {
	path = w.ResolvePath(path)
	if format == "" {
		f, err := parser.DetectFormat(path)
		if err != nil {
			return nil, err
		}
		format = f
	}
	var (
		t   *table.Table
		err error
	)
	if format == parser.FormatXLSX && sheet != "" {
		t, err = parser.LoadSheet(path, sheet)
	} else {
		sheet = ""
		t, err = parser.Load(path, format)
	}
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}
	d := &Dataset{
		ID:      uuid.NewString(),
		Path:    abs,
		Name:    filepath.Base(path),
		Format:  string(format),
		Sheet:   sheet,
		Columns: t.Names(),
		Rows:    t.Len(),
		AddedAt: time.Now(),
	}
	if w.Datasets == nil {
		w.Datasets = make(map[string]*Dataset)
	}
	w.Datasets[d.ID] = d
	w.CurrentID = d.ID
	w.UpdatedAt = time.Now()
	return d, nil
}

// Dataset returns a registered dataset by id.
func (w *Workspace) Dataset(id string) (*Dataset, error) {
	d, ok := w.Datasets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}
	return d, nil
}

// SetCurrent makes id the current dataset.
func (w *Workspace) SetCurrent(id string) error {
	if _, err := w.Dataset(id); err != nil {
		return err
	}
	w.CurrentID = id
	w.UpdatedAt = time.Now()
	return nil
}

// CurrentDataset returns the current dataset; ok is false when none is set.
func (w *Workspace) CurrentDataset() (*Dataset, bool) {
	d, ok := w.Datasets[w.CurrentID]
	return d, ok
}

// LoadCurrent reads the current dataset from disk.
func (w *Workspace) LoadCurrent() (*table.Table, *Dataset, error) {
	d, ok := w.CurrentDataset()
	if !ok {
		return nil, nil, fmt.Errorf("workspace %s has no current dataset", w.Name)
	}
	var (
		t   *table.Table
		err error
	)
	if d.Sheet != "" {
		t, err = parser.LoadSheet(d.Path, d.Sheet)
	} else {
		t, err = parser.Load(d.Path, parser.Format(d.Format))
	}
	return t, d, err
}

// SortedDatasets returns datasets ordered by when they were added.
func (w *Workspace) SortedDatasets() []*Dataset {
	out := make([]*Dataset, 0, len(w.Datasets))
	for _, d := range w.Datasets {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].Name < out[j].Name
		}
		return out[i].AddedAt.Before(out[j].AddedAt)
	})
	return out
}
