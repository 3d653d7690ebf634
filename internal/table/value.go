package table

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// naTokens are text cells treated as missing.
var naTokens = map[string]struct{}{
	"": {}, "na": {}, "n/a": {}, "nan": {}, "-nan": {}, "null": {}, "none": {}, "#n/a": {}, "<na>": {},
}

var timeLayouts = []string{
	time.RFC3339, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
	"2006-01-02 15:04", "2006-01-02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
}

// IsNull reports whether a cell is missing.
func IsNull(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	}
	return false
}

// normalizeCell maps Go values onto the cell domain.
func normalizeCell(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(x) {
			return nil
		}
		return x
	case float32:
		return normalizeCell(float64(x))
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint64:
		return float64(x)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case bool, string, time.Time:
		return x
	default:
		return FormatValue(x)
	}
}

// InferKind picks the kind shared by all non-null cells. Mixed or empty
// columns are strings.
func InferKind(values []any) Kind {
	kind := Kind(-1)
	for _, v := range values {
		if IsNull(v) {
			continue
		}
		var k Kind
		switch v.(type) {
		case float64:
			k = KindNumeric
		case bool:
			k = KindBool
		case time.Time:
			k = KindDatetime
		default:
			return KindString
		}
		if kind >= 0 && kind != k {
			return KindString
		}
		kind = k
	}
	if kind < 0 {
		// all-null columns behave like numeric NaN columns
		if len(values) > 0 {
			return KindNumeric
		}
		return KindString
	}
	return kind
}

// ToFloat coerces a cell to a number. Strings are parsed; booleans map to
// 1 and 0; nulls, datetimes and unparsable text fail.
func ToFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) {
			return 0, false
		}
		return x, true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// FormatValue renders a cell as text. Nulls render empty; datetimes without
// a clock part render as dates.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format(time.RFC3339)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// ParseTime tries the supported datetime layouts.
func ParseTime(s string) (time.Time, bool) {
	for _, l := range timeLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func isNAText(s string) bool {
	_, ok := naTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// FromStrings builds a table from text records, inferring each column's
// kind: numeric when every non-missing cell parses as a number, then bool,
// then datetime, else string. Short records are padded with nulls.
func FromStrings(header []string, records [][]string) (*Table, error) {
	names := UniqueNames(header)
	cols := make([]*Column, len(names))
	for j, name := range names {
		raw := make([]string, len(records))
		missing := make([]bool, len(records))
		for i, rec := range records {
			if j < len(rec) {
				raw[i] = rec[j]
			}
			missing[i] = j >= len(rec) || isNAText(raw[i])
		}
		kind, values := parseColumn(raw, missing)
		cols[j] = &Column{Name: name, Kind: kind, Values: values}
	}
	for i, rec := range records {
		if len(rec) > len(names) {
			return nil, &RowWidthError{Row: i + 1, Got: len(rec), Want: len(names)}
		}
	}
	return build(cols, len(records)), nil
}

// RowWidthError reports a record wider than the header.
type RowWidthError struct {
	Row, Got, Want int
}

func (e *RowWidthError) Error() string {
	return "row " + strconv.Itoa(e.Row) + " has " + strconv.Itoa(e.Got) + " fields, header has " + strconv.Itoa(e.Want)
}

func parseColumn(raw []string, missing []bool) (Kind, []any) {
	values := make([]any, len(raw))
	allMissing := true
	for _, m := range missing {
		allMissing = allMissing && m
	}
	if allMissing && len(raw) > 0 {
		return KindNumeric, values
	}
	if vals, ok := parseAll(raw, missing, func(s string) (any, bool) {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return nil, false
		}
		return f, true
	}); ok {
		return KindNumeric, vals
	}
	if vals, ok := parseAll(raw, missing, func(s string) (any, bool) {
		switch strings.ToLower(s) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
		return nil, false
	}); ok {
		return KindBool, vals
	}
	if vals, ok := parseAll(raw, missing, func(s string) (any, bool) {
		t, ok := ParseTime(s)
		return t, ok
	}); ok {
		return KindDatetime, vals
	}
	for i, s := range raw {
		if !missing[i] {
			values[i] = s
		}
	}
	return KindString, values
}

// parseAll applies parse to every non-missing cell; it fails when any cell
// fails or when there is nothing to parse.
func parseAll(raw []string, missing []bool, parse func(string) (any, bool)) ([]any, bool) {
	out := make([]any, len(raw))
	found := false
	for i, s := range raw {
		if missing[i] {
			continue
		}
		v, ok := parse(strings.TrimSpace(s))
		if !ok {
			return nil, false
		}
		out[i] = v
		found = true
	}
	return out, found
}

// compareValues orders two non-null cells: numbers numerically, datetimes
// chronologically, booleans false first, everything else by text.
func compareValues(a, b any) int {
	switch x := a.(type) {
	case float64:
		if y, ok := b.(float64); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			}
			return 1
		}
	}
	return strings.Compare(FormatValue(a), FormatValue(b))
}

// equalValues reports cell equality; nulls never compare equal.
func equalValues(a, b any) bool {
	if IsNull(a) || IsNull(b) {
		return false
	}
	switch x := a.(type) {
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case float64:
		y, ok := b.(float64)
		return ok && x == y
	}
	return a == b
}

// coerceTo converts a filter operand to the column's kind. Text operands
// are parsed; a failed parse yields the text itself.
func coerceTo(v any, kind Kind) any {
	v = normalizeCell(v)
	s, isText := v.(string)
	if !isText {
		return v
	}
	trimmed := strings.TrimSpace(s)
	switch kind {
	case KindNumeric:
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return f
		}
	case KindBool:
		if b, err := strconv.ParseBool(trimmed); err == nil {
			return b
		}
	case KindDatetime:
		if t, ok := ParseTime(trimmed); ok {
			return t
		}
	}
	return s
}

// keyOf identifies a cell for grouping, keeping 1 and "1" apart.
func keyOf(v any) string {
	switch v.(type) {
	case float64:
		return "n:" + FormatValue(v)
	case bool:
		return "b:" + FormatValue(v)
	case time.Time:
		return "t:" + FormatValue(v)
	}
	return "s:" + FormatValue(v)
}
