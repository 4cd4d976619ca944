package metadata

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Accessor resolves a field on a record. The bool is false when nothing was
// found, which callers must keep distinct from a zero value.
type Accessor func(rec Record) (any, bool)

// Path returns an accessor for a dotted path such as "components.ingredients.name".
// Arrays met along the way are traversed and every leaf found is returned as a
// flat []any. Paths that never cross an array return the single leaf value.
func Path(path string) Accessor {
	parts := strings.Split(path, ".")
	return func(rec Record) (any, bool) {
		leaves, expanded := walk(rec, parts)
		if len(leaves) == 0 {
			return nil, false
		}
		if !expanded && len(leaves) == 1 {
			return leaves[0], true
		}
		return leaves, true
	}
}

func walk(node any, parts []string) ([]any, bool) {
	if node == nil {
		return nil, false
	}
	if len(parts) == 0 {
		if items, ok := asList(node); ok {
			var out []any
			for _, item := range items {
				if item != nil {
					leaves, _ := walk(item, nil)
					out = append(out, leaves...)
				}
			}
			return out, true
		}
		return []any{node}, false
	}

	if items, ok := asList(node); ok {
		var out []any
		for _, item := range items {
			leaves, _ := walk(item, parts)
			out = append(out, leaves...)
		}
		return out, true
	}

	m, ok := asMap(node)
	if !ok {
		return nil, false
	}
	child, ok := m[parts[0]]
	if !ok {
		return nil, false
	}
	return walk(child, parts[1:])
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(l))
		for i, m := range l {
			out[i] = m
		}
		return out, true
	}
	return nil, false
}

// Expr compiles an expr-lang expression evaluated with the record as its
// environment. Evaluation errors and nil results resolve as absent.
// Panics if the expression does not compile, schemas are static data.
func Expr(code string) Accessor {
	program, err := expr.Compile(code, expr.AllowUndefinedVariables())
	if err != nil {
		panic(fmt.Sprintf("compile accessor %q: %v", code, err))
	}
	return exprAccessor(program)
}

func exprAccessor(program *vm.Program) Accessor {
	return func(rec Record) (any, bool) {
		env := rec
		if env == nil {
			env = Record{}
		}
		out, err := expr.Run(program, env)
		if err != nil || out == nil {
			return nil, false
		}
		return out, true
	}
}
