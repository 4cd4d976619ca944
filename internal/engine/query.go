package engine

import (
	"net/url"

	"mealplan-backend/internal/metadata"
)

type QueryPlan struct {
	Schema  *metadata.Schema
	Filters []FilterClause
	Sorts   []SortKey
	Skip    int
	Limit   int
}

// QueryDefaults holds pagination defaults applied when a request omits them.
type QueryDefaults struct {
	Skip  int
	Limit int
}

// Defaults returns skip=0, limit=100.
func Defaults() QueryDefaults {
	return QueryDefaults{Skip: DefaultSkip, Limit: DefaultLimit}
}

// ParseQueryParams builds a query plan from URL query parameters. Malformed
// input is normalized or dropped, never rejected.
func ParseQueryParams(params url.Values, schema *metadata.Schema, defaults QueryDefaults) *QueryPlan {
	if defaults.Skip < 0 {
		defaults.Skip = DefaultSkip
	}
	if defaults.Limit < 0 {
		defaults.Limit = DefaultLimit
	}

	plan := &QueryPlan{
		Schema:  schema,
		Filters: CompileFilters(params, schema),
		Skip:    parseBound(params.Get("skip"), defaults.Skip),
		Limit:   parseBound(params.Get("limit"), defaults.Limit),
	}
	if s := params.Get("sort"); s != "" {
		plan.Sorts = ParseSort(s, schema)
	}
	return plan
}

// Execute runs scope, filters, sort and pagination over a snapshot. The
// snapshot is only read.
func Execute(plan *QueryPlan, snapshot []metadata.Record, token ScopeToken) Page {
	scoped := ApplyScope(snapshot, plan.Schema, token)

	matched := make([]metadata.Record, 0, len(scoped))
	for _, rec := range scoped {
		if MatchAll(plan.Filters, rec) {
			matched = append(matched, rec)
		}
	}

	sorted := SortRecords(matched, plan.Sorts)
	return Paginate(sorted, plan.Skip, plan.Limit)
}

// Evaluate is ParseQueryParams followed by Execute.
func Evaluate(schema *metadata.Schema, snapshot []metadata.Record, token ScopeToken, params url.Values, defaults QueryDefaults) Page {
	return Execute(ParseQueryParams(params, schema, defaults), snapshot, token)
}
