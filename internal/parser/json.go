package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/KaramelBytes/statloom/internal/table"
)

type jsonParser struct{}

func (jsonParser) Format() Format { return FormatJSON }

func (jsonParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".json")
}

// Parse decodes {"meta": {...}, "data": [{...}, ...]}; meta is optional.
// Column order is the order in which keys first appear across rows; keys
// missing from a row are null. Text columns whose every value is a date
// become datetime columns.
func (jsonParser) Parse(content []byte) (*table.Table, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(content, &top); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	rawData, ok := top["data"]
	if !ok {
		return nil, errors.New(`missing "data" key`)
	}
	var data []json.RawMessage
	if err := json.Unmarshal(rawData, &data); err != nil {
		return nil, fmt.Errorf(`"data" must be an array of objects: %w`, err)
	}

	var names []string
	pos := map[string]int{}
	objs := make([]map[string]any, len(data))
	for i, raw := range data {
		keys, obj, err := decodeOrderedObject(raw)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		for _, k := range keys {
			if _, seen := pos[k]; !seen {
				pos[k] = len(names)
				names = append(names, k)
			}
		}
		objs[i] = obj
	}

	rows := make([][]any, len(objs))
	for i, obj := range objs {
		row := make([]any, len(names))
		for k, v := range obj {
			row[pos[k]] = v
		}
		rows[i] = row
	}
	promoteDates(rows, len(names))
	return table.New(names, rows)
}

// decodeOrderedObject reads one JSON object keeping its key order. Nested
// arrays and objects are rejected.
func decodeOrderedObject(raw json.RawMessage) ([]string, map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, errors.New("row is not an object")
	}
	var keys []string
	obj := map[string]any{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected token %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, nil, fmt.Errorf("field %q: %w", key, err)
		}
		switch v.(type) {
		case nil, json.Number, string, bool:
		default:
			return nil, nil, fmt.Errorf("field %q: nested values are not supported", key)
		}
		if _, dup := obj[key]; !dup {
			keys = append(keys, key)
		}
		obj[key] = v
	}
	return keys, obj, nil
}

func promoteDates(rows [][]any, width int) {
	for j := 0; j < width; j++ {
		parsed := make([]time.Time, len(rows))
		found := false
		ok := true
		for i, row := range rows {
			if row[j] == nil {
				continue
			}
			s, isText := row[j].(string)
			if !isText {
				ok = false
				break
			}
			ts, good := table.ParseTime(strings.TrimSpace(s))
			if !good {
				ok = false
				break
			}
			parsed[i] = ts
			found = true
		}
		if !ok || !found {
			continue
		}
		for i, row := range rows {
			if row[j] != nil {
				row[j] = parsed[i]
			}
		}
	}
}

type jsonWriter struct{}

func (jsonWriter) Format() Format { return FormatJSON }

type jsonMeta struct {
	Source  string   `json:"source"`
	Columns []string `json:"columns"`
}

// Write produces {"meta": {"source", "columns"}, "data": [...]} with rows
// keyed in column order, indented by four spaces.
func (jsonWriter) Write(t *table.Table, source string) ([]byte, error) {
	var buf bytes.Buffer
	names := t.Names()
	if names == nil {
		names = []string{}
	}
	meta, err := json.Marshal(jsonMeta{Source: source, Columns: names})
	if err != nil {
		return nil, err
	}
	buf.WriteString(`{"meta":`)
	buf.Write(meta)
	buf.WriteString(`,"data":[`)
	for i := 0; i < t.Len(); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, v := range t.Row(i) {
			if j > 0 {
				buf.WriteByte(',')
			}
			key, _ := json.Marshal(names[j])
			buf.Write(key)
			buf.WriteByte(':')
			val, err := json.Marshal(jsonCell(v))
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", i, names[j], err)
			}
			buf.Write(val)
		}
		buf.WriteByte('}')
	}
	buf.WriteString(`]}`)

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "    "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// jsonCell maps a cell to its JSON value. NaN is missing and becomes null;
// infinities are left for json.Marshal to reject, since JSON has no
// representation for them.
func jsonCell(v any) any {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) {
			return nil
		}
		return x
	case time.Time:
		return table.FormatValue(x)
	}
	return v
}
