package parser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/statloom/internal/table"
	"github.com/KaramelBytes/statloom/internal/utils"
)

// Format names a table file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// ParseFormat maps user input ("CSV", ".json", ...) to a Format.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "."))
	switch f {
	case "":
		return "", nil
	case FormatCSV, FormatTSV, FormatJSON, FormatXLSX:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupported, s)
}

// Label is the upper-case name used in status messages ("CSV", "JSON").
func (f Format) Label() string { return strings.ToUpper(string(f)) }

// Parser reads one table format.
type Parser interface {
	Format() Format
	CanParse(filename string) bool
	Parse(content []byte) (*table.Table, error)
}

// Writer encodes a table in one format. source is recorded where the
// format has room for metadata.
type Writer interface {
	Format() Format
	Write(t *table.Table, source string) ([]byte, error)
}

var utf8BOM = []byte("\xef\xbb\xbf")

var (
	registry []Parser
	writers  []Writer
)

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

// RegisterWriter adds a writer implementation to the registry.
func RegisterWriter(w Writer) {
	writers = append(writers, w)
}

func init() {
	Register(csvParser{comma: ',', format: FormatCSV})
	Register(csvParser{comma: '\t', format: FormatTSV})
	Register(jsonParser{})
	Register(xlsxParser{})
	RegisterWriter(csvWriter{comma: ',', format: FormatCSV})
	RegisterWriter(csvWriter{comma: '\t', format: FormatTSV})
	RegisterWriter(jsonWriter{})
	RegisterWriter(xlsxWriter{})
}

// DetectFormat picks a format from the file extension.
func DetectFormat(path string) (Format, error) {
	for _, p := range registry {
		if p.CanParse(path) {
			return p.Format(), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
}

func parserFor(f Format) (Parser, error) {
	for _, p := range registry {
		if p.Format() == f {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupported, f)
}

func writerFor(f Format) (Writer, error) {
	for _, w := range writers {
		if w.Format() == f {
			return w, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupported, f)
}

// Load reads a table from path. An empty format is detected from the
// extension. Unreadable paths fail with *IOError, malformed content with
// *ParseError.
func Load(path string, format Format) (*table.Table, error) {
	if format == "" {
		f, err := DetectFormat(path)
		if err != nil {
			return nil, err
		}
		format = f
	}
	p, err := parserFor(format)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	t, err := p.Parse(bytes.TrimPrefix(data, utf8BOM))
	if err != nil {
		return nil, &ParseError{Path: path, Format: format, Err: err}
	}
	return t, nil
}

// Save writes t to path atomically. An empty format is detected from the
// extension.
func Save(t *table.Table, path string, format Format, source string) error {
	if t == nil {
		return errors.New("no table to save")
	}
	if format == "" {
		f, err := DetectFormat(path)
		if err != nil {
			return err
		}
		format = f
	}
	w, err := writerFor(format)
	if err != nil {
		return err
	}
	data, err := w.Write(t, source)
	if err != nil {
		return fmt.Errorf("encode %s: %w", format, err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := utils.EnsureDir(dir); err != nil {
			return &IOError{Op: "mkdir", Path: dir, Err: err}
		}
	}
	if err := utils.SafeWriteFile(path, data); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// Encode renders t in the given format without touching the filesystem.
func Encode(t *table.Table, format Format, source string) ([]byte, error) {
	w, err := writerFor(format)
	if err != nil {
		return nil, err
	}
	return w.Write(t, source)
}

// ParseBytes decodes content in the given format.
func ParseBytes(content []byte, format Format) (*table.Table, error) {
	p, err := parserFor(format)
	if err != nil {
		return nil, err
	}
	t, err := p.Parse(bytes.TrimPrefix(content, utf8BOM))
	if err != nil {
		return nil, &ParseError{Format: format, Err: err}
	}
	return t, nil
}

var (
	// ErrUnsupported indicates a format is not supported.
	ErrUnsupported = errors.New("unsupported table format")
	// ErrIO matches every *IOError.
	ErrIO = errors.New("file not readable")
	// ErrParse matches every *ParseError.
	ErrParse = errors.New("malformed table content")
)

// IOError reports a file that could not be read or written.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIO }

// ParseError reports content that does not match the expected shape.
type ParseError struct {
	Path   string
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("parse %s: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("parse %s %s: %v", e.Format, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }
