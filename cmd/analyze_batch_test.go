package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAnalyzeBatch_AttachAndSuppressSamples(t *testing.T) {
	home := setHome(t)

	// Prepare two CSV files with the same basename in different directories
	d1 := filepath.Join(home, "d1")
	d2 := filepath.Join(home, "d2")
	if err := os.MkdirAll(d1, 0o755); err != nil {
		t.Fatalf("mkdir d1: %v", err)
	}
	if err := os.MkdirAll(d2, 0o755); err != nil {
		t.Fatalf("mkdir d2: %v", err)
	}
	csv := "col1,col2\nA,1\nB,2\nC,3\n"
	p1 := filepath.Join(d1, "metrics.csv")
	p2 := filepath.Join(d2, "metrics.csv")
	if err := os.WriteFile(p1, []byte(csv), 0o644); err != nil {
		t.Fatalf("write p1: %v", err)
	}
	if err := os.WriteFile(p2, []byte(csv), 0o644); err != nil {
		t.Fatalf("write p2: %v", err)
	}

	runCmd(t, "init", "batchws", "-d", "batch workspace")
	runCmd(t, "analyze-batch", filepath.Join(home, "d*", "metrics.csv"), "-p", "batchws", "--sample-rows", "0", "--quiet")

	// Verify files written under reports with collision suffix
	wsDir, err := resolveWorkspaceDirByName("batchws")
	if err != nil {
		t.Fatalf("resolve workspace: %v", err)
	}
	reports := filepath.Join(wsDir, "reports")
	b1 := filepath.Join(reports, "metrics.summary.md")
	b2 := filepath.Join(reports, "metrics__2.summary.md")
	for _, p := range []string{b1, b2} {
		body, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("missing summary %s: %v", p, err)
		}
		if !strings.Contains(string(body), "# Dataset summary: metrics.csv") {
			t.Fatalf("unexpected summary body in %s:\n%s", p, body)
		}
		// Assert sample rows are suppressed (no sample rows section)
		if strings.Contains(string(body), "## Sample rows") {
			t.Fatalf("expected no sample rows in %s", p)
		}
	}
}

func TestAnalyzeBatch_NoMatches(t *testing.T) {
	home := setHome(t)
	if err := runCmdErr(t, "analyze-batch", filepath.Join(home, "nothing", "*.csv")); err == nil {
		t.Fatalf("expected error for unmatched glob")
	}
}
