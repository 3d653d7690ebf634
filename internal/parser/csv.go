package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/KaramelBytes/statloom/internal/table"
)

type csvParser struct {
	comma  rune
	format Format
}

func (p csvParser) Format() Format { return p.format }

func (p csvParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), "."+string(p.format))
}

// Parse reads a header row followed by records. Short records are padded
// with nulls; records wider than the header are rejected.
func (p csvParser) Parse(content []byte) (*table.Table, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.Comma = p.comma
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("no columns to parse from file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	var records [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
	return table.FromStrings(header, records)
}

type csvWriter struct {
	comma  rune
	format Format
}

func (w csvWriter) Format() Format { return w.format }

// Write emits an unnamed leading index column followed by the data
// columns. Nulls are written as empty fields.
func (w csvWriter) Write(t *table.Table, _ string) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	cw.Comma = w.comma
	header := append([]string{""}, t.Names()...)
	if err := cw.Write(header); err != nil {
		return nil, err
	}
	for i := 0; i < t.Len(); i++ {
		rec := append([]string{strconv.Itoa(i)}, t.StringRow(i)...)
		if err := cw.Write(rec); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
