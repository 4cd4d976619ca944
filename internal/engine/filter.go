package engine

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"mealplan-backend/internal/metadata"
)

// Operator names accepted in filter keys.
const (
	OpEq   = "eq"
	OpIn   = "in"
	OpLike = "like"
	OpGt   = "gt"
	OpLt   = "lt"
)

// reservedParams are query keys that never compile to filters.
var reservedParams = map[string]bool{
	"skip":  true,
	"limit": true,
	"sort":  true,
}

// FilterClause is one compiled field[op]=value(s) predicate. Operands keep the
// raw strings; numbers and times hold the parsed forms for number and date fields.
type FilterClause struct {
	Field    string
	Operator string
	Operands []string

	field   *metadata.Field
	numbers []float64
	times   []time.Time
	invalid bool // an operand did not parse to the field's type; matches nothing
}

// Invalid reports whether the clause was degraded to match nothing.
func (f FilterClause) Invalid() bool {
	return f.invalid
}

// CompileFilters turns query parameters into an ordered list of clauses that
// are ANDed together. Unknown fields, unknown operators and operators the
// field type does not support are ignored.
func CompileFilters(params url.Values, schema *metadata.Schema) []FilterClause {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var clauses []FilterClause
	for _, key := range keys {
		if reservedParams[key] {
			continue
		}
		name, op, ok := parseFilterKey(key)
		if !ok {
			continue
		}
		field := schema.GetField(name)
		if field == nil || !supports(field, op) {
			continue
		}
		for _, raw := range params[key] {
			clauses = append(clauses, compileClause(field, op, raw))
		}
	}
	return clauses
}

// parseFilterKey splits "calories[gt]" into ("calories", "gt") and "name" into
// ("name", "eq"). Malformed brackets are rejected.
func parseFilterKey(key string) (string, string, bool) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		if strings.ContainsAny(key, "]") || key == "" {
			return "", "", false
		}
		return key, OpEq, true
	}
	if open == 0 || !strings.HasSuffix(key, "]") {
		return "", "", false
	}
	op := key[open+1 : len(key)-1]
	if strings.ContainsAny(op, "[]") {
		return "", "", false
	}
	switch op {
	case OpEq, OpIn, OpLike, OpGt, OpLt:
		return key[:open], op, true
	default:
		return "", "", false
	}
}

var allOperators = []string{OpEq, OpIn, OpLike, OpGt, OpLt}

// OperatorsFor lists the operators a filter on the field accepts.
func OperatorsFor(field *metadata.Field) []string {
	var ops []string
	for _, op := range allOperators {
		if supports(field, op) {
			ops = append(ops, op)
		}
	}
	return ops
}

func supports(field *metadata.Field, op string) bool {
	switch op {
	case OpEq, OpIn:
		return true
	case OpLike:
		return field.IsTextual()
	case OpGt, OpLt:
		return field.IsOrdered()
	}
	return false
}

func compileClause(field *metadata.Field, op, raw string) FilterClause {
	c := FilterClause{Field: field.Name, Operator: op, field: field}
	if op == OpIn {
		c.Operands = splitOperands(raw)
		if len(c.Operands) == 0 {
			c.invalid = true
			return c
		}
	} else {
		c.Operands = []string{raw}
	}

	switch field.Type {
	case metadata.TypeNumber:
		for _, o := range c.Operands {
			if n, ok := parseNumber(o); ok {
				c.numbers = append(c.numbers, n)
			}
		}
		c.invalid = len(c.numbers) == 0
	case metadata.TypeDate:
		for _, o := range c.Operands {
			if t, ok := parseDate(o); ok {
				c.times = append(c.times, t)
			}
		}
		c.invalid = len(c.times) == 0
	}
	return c
}

// splitOperands splits a comma-separated operand list, dropping empty entries.
func splitOperands(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Matches evaluates the clause against a record.
func (f FilterClause) Matches(rec metadata.Record) bool {
	if f.invalid || f.field == nil {
		return false
	}
	return EvaluateOperator(Resolve(rec, f.field), f)
}

// MatchAll returns true if every clause matches the record.
func MatchAll(clauses []FilterClause, rec metadata.Record) bool {
	for _, c := range clauses {
		if !c.Matches(rec) {
			return false
		}
	}
	return true
}
