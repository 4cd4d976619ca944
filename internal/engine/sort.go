package engine

import (
	"cmp"
	"slices"
	"strings"

	"mealplan-backend/internal/metadata"
)

type SortKey struct {
	Field      string
	Descending bool

	field *metadata.Field
}

// ParseSort parses sort=-calories,name into sort keys. Unknown fields and
// empty entries are skipped.
func ParseSort(spec string, schema *metadata.Schema) []SortKey {
	var keys []SortKey
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		desc := false
		if strings.HasPrefix(part, "-") {
			desc = true
			part = strings.TrimSpace(part[1:])
		}
		if part == "" {
			continue
		}
		field := schema.GetField(part)
		if field == nil {
			continue
		}
		keys = append(keys, SortKey{Field: part, Descending: desc, field: field})
	}
	return keys
}

// CompareBy returns a comparator evaluating keys left to right; the first
// non-equal comparison wins.
func CompareBy(keys []SortKey) func(a, b metadata.Record) int {
	return func(a, b metadata.Record) int {
		for _, k := range keys {
			if k.field == nil {
				continue
			}
			c := compareValues(Resolve(a, k.field), Resolve(b, k.field))
			if c == 0 {
				continue
			}
			if k.Descending {
				return -c
			}
			return c
		}
		return 0
	}
}

// SortRecords stable-sorts a copy of the records.
func SortRecords(records []metadata.Record, keys []SortKey) []metadata.Record {
	out := slices.Clone(records)
	if len(keys) == 0 {
		return out
	}
	slices.SortStableFunc(out, CompareBy(keys))
	return out
}

// compareValues orders two resolved values of the same field. Absent sorts
// before any present value.
func compareValues(a, b Value) int {
	switch {
	case !a.Present && !b.Present:
		return 0
	case !a.Present:
		return -1
	case !b.Present:
		return 1
	}

	switch a.Type {
	case metadata.TypeNumber:
		return cmp.Compare(a.Number, b.Number)
	case metadata.TypeDate:
		return a.Time.Compare(b.Time)
	default:
		return cmp.Compare(sortText(a.Strings), sortText(b.Strings))
	}
}

func sortText(values []string) string {
	return strings.ToLower(strings.Join(values, ","))
}
