package engine

import (
	"fmt"
	"slices"

	"mealplan-backend/internal/metadata"
)

// ValidateRecord checks the top-level stored fields of a write payload
// against the schema. Unknown keys and nulls are allowed; computed and nested
// fields are not checked because they are not stored under their own name.
func ValidateRecord(schema *metadata.Schema, body metadata.Record) []ErrorDetail {
	var errs []ErrorDetail
	for _, f := range schema.Fields {
		if f.Accessor != nil {
			continue
		}
		raw, ok := body[f.Name]
		if !ok || raw == nil {
			continue
		}
		if msg := checkValue(f, raw); msg != "" {
			errs = append(errs, ErrorDetail{Field: f.Name, Message: msg})
		}
	}
	return errs
}

func checkValue(f metadata.Field, raw any) string {
	switch f.Type {
	case metadata.TypeString:
		if _, ok := raw.(string); !ok {
			return "must be a string"
		}
	case metadata.TypeNumber:
		switch raw.(type) {
		case float64, float32, int, int64, int32:
		default:
			return "must be a number"
		}
	case metadata.TypeDate:
		s, ok := raw.(string)
		if !ok {
			return "must be a date string"
		}
		if _, ok := parseDate(s); !ok {
			return fmt.Sprintf("invalid date: %s", s)
		}
	case metadata.TypeEnum:
		s, ok := raw.(string)
		if !ok || !slices.Contains(f.Enum, s) {
			return fmt.Sprintf("must be one of %v", f.Enum)
		}
	case metadata.TypeStringList:
		list, ok := raw.([]any)
		if !ok {
			return "must be an array of strings"
		}
		for _, item := range list {
			if _, ok := item.(string); !ok {
				return "must be an array of strings"
			}
		}
	}
	return ""
}
