package engine

import (
	"strconv"
	"strings"

	"mealplan-backend/internal/metadata"
)

const (
	DefaultSkip  = 0
	DefaultLimit = 100
)

type Page struct {
	Items []metadata.Record `json:"items"`
	Total int               `json:"total"`
	Skip  int               `json:"skip"`
	Limit int               `json:"limit"`
}

// Paginate slices records after filtering and sorting. Total is the count
// before slicing. Negative skip or limit fall back to the defaults.
func Paginate(records []metadata.Record, skip, limit int) Page {
	if skip < 0 {
		skip = DefaultSkip
	}
	if limit < 0 {
		limit = DefaultLimit
	}

	page := Page{Total: len(records), Skip: skip, Limit: limit, Items: []metadata.Record{}}
	if skip >= len(records) {
		return page
	}
	end := len(records)
	if limit < end-skip {
		end = skip + limit
	}
	page.Items = records[skip:end]
	return page
}

// parseBound reads a skip/limit parameter. Missing, non-integer or negative
// values yield the default.
func parseBound(raw string, def int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}
