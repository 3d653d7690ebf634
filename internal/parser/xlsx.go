package parser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/KaramelBytes/statloom/internal/table"
	"github.com/xuri/excelize/v2"
)

type xlsxParser struct {
	sheet string
}

func (xlsxParser) Format() Format { return FormatXLSX }

func (xlsxParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

// Parse reads the configured sheet, or the first one, treating the first
// row as the header.
func (p xlsxParser) Parse(content []byte) (*table.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet := sheets[0]
	if p.sheet != "" {
		sheet = ""
		for _, s := range sheets {
			if strings.EqualFold(s, p.sheet) {
				sheet = s
				break
			}
		}
		if sheet == "" {
			return nil, fmt.Errorf("sheet '%s' not found.\nAvailable sheets: %s", p.sheet, strings.Join(sheets, ", "))
		}
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheet)
	}
	return table.FromStrings(rows[0], rows[1:])
}

// LoadSheet reads a named sheet of an XLSX workbook.
func LoadSheet(path, sheet string) (*table.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	t, err := xlsxParser{sheet: sheet}.Parse(data)
	if err != nil {
		return nil, &ParseError{Path: path, Format: FormatXLSX, Err: err}
	}
	return t, nil
}

type xlsxWriter struct{}

func (xlsxWriter) Format() Format { return FormatXLSX }

// Write stores the table on a single sheet named "Data", header first.
func (xlsxWriter) Write(t *table.Table, _ string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Data"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}
	header := make([]interface{}, t.Width())
	for j, name := range t.Names() {
		header[j] = name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	for i := 0; i < t.Len(); i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		src := t.Row(i)
		row := make([]interface{}, len(src))
		for j, v := range src {
			if f, ok := v.(float64); ok {
				row[j] = f
				continue
			}
			row[j] = table.FormatValue(v)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
