// Package session holds the current table shared by the commands of one run.
package session

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/KaramelBytes/statloom/internal/analysis"
	"github.com/KaramelBytes/statloom/internal/charts"
	"github.com/KaramelBytes/statloom/internal/parser"
	"github.com/KaramelBytes/statloom/internal/table"
)

// ExportSource is written to the meta block of JSON exports.
const ExportSource = "Exported from statloom"

// ErrNoData is returned when an operation needs a loaded table.
var ErrNoData = errors.New("no data loaded")

// StatusSink receives human-readable outcome messages.
type StatusSink interface {
	Status(msg string)
}

// StatusFunc adapts a function to StatusSink.
type StatusFunc func(msg string)

// Status calls f(msg).
func (f StatusFunc) Status(msg string) { f(msg) }

// Session owns the current table. Loads replace the table as a whole, so
// readers always see either the previous table or the new one.
type Session struct {
	mu      sync.RWMutex
	current *table.Table
	source  string
	sink    StatusSink
}

// New returns an empty session reporting to sink; a nil sink discards messages.
func New(sink StatusSink) *Session {
	if sink == nil {
		sink = StatusFunc(func(string) {})
	}
	return &Session{sink: sink}
}

// Current returns the loaded table, or nil.
func (s *Session) Current() *table.Table {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Source returns the path the current table was loaded from.
func (s *Session) Source() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// Columns returns the column names of the current table.
func (s *Session) Columns() []string {
	return s.Current().Names()
}

// Replace swaps in t as the current table.
func (s *Session) Replace(t *table.Table, source string) {
	s.mu.Lock()
	s.current = t
	s.source = source
	s.mu.Unlock()
}

// Load reads path and makes it the current table. On failure the current
// table is left unchanged.
func (s *Session) Load(path string, format parser.Format) error {
	label := formatLabel(path, format)
	t, err := parser.Load(path, format)
	if err != nil {
		s.sink.Status(fmt.Sprintf("Error loading %s: %v", label, err))
		return err
	}
	s.Replace(t, path)
	s.sink.Status(fmt.Sprintf("Loaded %s: %s", label, path))
	return nil
}

// LoadSheet reads one sheet of a workbook and makes it the current table.
func (s *Session) LoadSheet(path, sheet string) error {
	t, err := parser.LoadSheet(path, sheet)
	if err != nil {
		s.sink.Status(fmt.Sprintf("Error loading XLSX: %v", err))
		return err
	}
	s.Replace(t, path)
	s.sink.Status(fmt.Sprintf("Loaded XLSX: %s", path))
	return nil
}

// Save writes the current table to path.
func (s *Session) Save(path string, format parser.Format) error {
	t := s.Current()
	if t == nil || t.Width() == 0 {
		s.sink.Status("No data to save.")
		return ErrNoData
	}
	label := formatLabel(path, format)
	if err := parser.Save(t, path, format, ExportSource); err != nil {
		s.sink.Status(fmt.Sprintf("Error saving %s: %v", label, err))
		return err
	}
	s.sink.Status(fmt.Sprintf("%s saved to: %s", label, path))
	return nil
}

// Describe summarizes the current table.
func (s *Session) Describe() ([]analysis.ColumnDescription, error) {
	t := s.Current()
	if t == nil {
		s.sink.Status("No data loaded.")
		return nil, ErrNoData
	}
	return analysis.Describe(t), nil
}

// Chart binds a preparer for spec to the current table.
func (s *Session) Chart(spec charts.Spec) *charts.Preparer {
	return charts.New(s.Current(), spec)
}

func formatLabel(path string, format parser.Format) string {
	if format == "" {
		if f, err := parser.DetectFormat(path); err == nil {
			format = f
		}
	}
	if format == "" {
		if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext != "" {
			return strings.ToUpper(ext)
		}
		return "file"
	}
	return format.Label()
}
