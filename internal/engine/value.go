package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"mealplan-backend/internal/metadata"
)

// Value is a record field resolved to its declared type. Present is false for
// the absent outcome, which is distinct from "" or 0.
type Value struct {
	Type    metadata.FieldType
	Present bool
	Strings []string // string, enum and string[] fields; one element per leaf
	Number  float64
	Time    time.Time
}

// dateLayouts are tried in order when parsing date values and operands.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Resolve reads the field from the record and coerces it to the field's type.
// Values that cannot be coerced resolve as absent.
func Resolve(rec metadata.Record, field *metadata.Field) Value {
	out := Value{Type: field.Type}
	raw, ok := field.Get(rec)
	if !ok {
		return out
	}

	switch field.Type {
	case metadata.TypeNumber:
		out.Number, out.Present = toNumber(first(raw))
	case metadata.TypeDate:
		out.Time, out.Present = toTime(first(raw))
	default:
		out.Strings = toStrings(raw)
		out.Present = out.Strings != nil
	}
	return out
}

// first picks the first leaf of a multi-leaf result for scalar-typed fields.
func first(raw any) any {
	switch l := raw.(type) {
	case []any:
		if len(l) == 0 {
			return nil
		}
		return l[0]
	case []string:
		if len(l) == 0 {
			return nil
		}
		return l[0]
	}
	return raw
}

func toStrings(raw any) []string {
	switch v := raw.(type) {
	case string:
		return []string{v}
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			out = append(out, scalarString(item))
		}
		return out
	case nil:
		return nil
	default:
		return []string{scalarString(v)}
	}
}

func scalarString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case time.Time:
		return s.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		return parseNumber(n)
	default:
		return 0, false
	}
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		return parseDate(t)
	default:
		return time.Time{}, false
	}
}

func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
