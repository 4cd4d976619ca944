package engine

import (
	"strings"
	"time"

	"mealplan-backend/internal/metadata"
)

// EvaluateOperator reports whether a resolved value satisfies the clause.
// Absent values never match, except that gt/lt compare an absent number as 0.
func EvaluateOperator(v Value, c FilterClause) bool {
	if c.invalid {
		return false
	}
	if !v.Present {
		if v.Type == metadata.TypeNumber && (c.Operator == OpGt || c.Operator == OpLt) {
			return compareNumbers(0, c)
		}
		return false
	}

	switch v.Type {
	case metadata.TypeNumber:
		return compareNumbers(v.Number, c)
	case metadata.TypeDate:
		return compareTimes(v.Time, c)
	default:
		return compareStrings(v.Strings, c)
	}
}

func compareNumbers(n float64, c FilterClause) bool {
	switch c.Operator {
	case OpEq, OpIn:
		for _, o := range c.numbers {
			if n == o {
				return true
			}
		}
	case OpGt:
		return n > c.numbers[0]
	case OpLt:
		return n < c.numbers[0]
	}
	return false
}

func compareTimes(t time.Time, c FilterClause) bool {
	switch c.Operator {
	case OpEq, OpIn:
		for _, o := range c.times {
			if t.Equal(o) {
				return true
			}
		}
	case OpGt:
		return t.After(c.times[0])
	case OpLt:
		return t.Before(c.times[0])
	}
	return false
}

func compareStrings(values []string, c FilterClause) bool {
	switch c.Operator {
	case OpEq, OpIn:
		for _, v := range values {
			for _, o := range c.Operands {
				if v == o {
					return true
				}
			}
		}
	case OpLike:
		needle := strings.ToLower(c.Operands[0])
		for _, v := range values {
			if strings.Contains(strings.ToLower(v), needle) {
				return true
			}
		}
	}
	return false
}
