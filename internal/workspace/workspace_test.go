package workspace_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/statloom/internal/workspace"
)

func TestAddDatasetAndReload(t *testing.T) {
	tdir := t.TempDir()
	dataDir := filepath.Join(tdir, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, "sales.csv"), []byte("Region,Units\nnorth,3\nsouth,5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dataDir, "b.json"), []byte(`{"data": [{"x": 1}]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	ws := workspace.NewWorkspace("demo", "test", dataDir, filepath.Join(tdir, "ws"))
	d1, err := ws.AddDataset("sales.csv", "", "")
	if err != nil {
		t.Fatalf("add csv: %v", err)
	}
	if d1.Rows != 2 || strings.Join(d1.Columns, ",") != "region,units" || d1.Format != "csv" {
		t.Fatalf("dataset = %+v", d1)
	}
	d2, err := ws.AddDataset("b.json", "", "")
	if err != nil {
		t.Fatalf("add json: %v", err)
	}
	if cur, _ := ws.CurrentDataset(); cur.ID != d2.ID {
		t.Fatalf("latest dataset should be current")
	}
	if err := ws.SetCurrent(d1.ID); err != nil {
		t.Fatalf("SetCurrent: %v", err)
	}
	if err := ws.SetCurrent("nope"); !errors.Is(err, workspace.ErrDatasetNotFound) {
		t.Fatalf("expected ErrDatasetNotFound, got %v", err)
	}
	if err := ws.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := workspace.LoadWorkspace(ws.RootDir())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Datasets) != 2 || loaded.CurrentID != d1.ID || loaded.DataDir != dataDir {
		t.Fatalf("reloaded workspace = %+v", loaded)
	}
	sorted := loaded.SortedDatasets()
	if sorted[0].Name != "sales.csv" || sorted[1].Name != "b.json" {
		t.Fatalf("sorted = %s, %s", sorted[0].Name, sorted[1].Name)
	}
	tb, d, err := loaded.LoadCurrent()
	if err != nil || d.ID != d1.ID || tb.Len() != 2 {
		t.Fatalf("LoadCurrent: %v", err)
	}
}

func TestAddDatasetRejectsBadFile(t *testing.T) {
	tdir := t.TempDir()
	p := filepath.Join(tdir, "bad.json")
	if err := os.WriteFile(p, []byte(`[1,2]`), 0o644); err != nil {
		t.Fatal(err)
	}
	ws := workspace.NewWorkspace("demo", "", "", filepath.Join(tdir, "ws"))
	if _, err := ws.AddDataset(p, "", ""); err == nil {
		t.Fatalf("expected error for malformed json")
	}
	if len(ws.Datasets) != 0 || ws.CurrentID != "" {
		t.Fatalf("failed add should not register a dataset")
	}
	if _, err := workspace.LoadWorkspace(filepath.Join(tdir, "missing")); err == nil {
		t.Fatalf("expected error for missing workspace")
	}
}
