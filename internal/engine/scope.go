package engine

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"mealplan-backend/internal/metadata"
)

// NoScope is the header value that explicitly selects unscoped records.
const NoScope = "none"

const maxScopeTokenLen = 128

var ErrInvalidScope = errors.New("invalid scope token")

// ScopeToken is the caller-supplied partition key, typically a household id.
// The zero value selects only unscoped records.
type ScopeToken struct {
	ID  string
	Set bool
}

// Scope returns a token for the given id.
func Scope(id string) ScopeToken {
	return ScopeToken{ID: id, Set: true}
}

// ParseScopeToken validates a raw token. Empty input and "none" give the unset
// token; anything else must be printable with no whitespace.
func ParseScopeToken(raw string) (ScopeToken, error) {
	if raw == "" || raw == NoScope {
		return ScopeToken{}, nil
	}
	if len(raw) > maxScopeTokenLen {
		return ScopeToken{}, fmt.Errorf("%w: longer than %d bytes", ErrInvalidScope, maxScopeTokenLen)
	}
	for _, r := range raw {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return ScopeToken{}, fmt.Errorf("%w: %q", ErrInvalidScope, raw)
		}
	}
	return Scope(raw), nil
}

// String renders the token the way it is sent in the scope header.
func (t ScopeToken) String() string {
	if !t.Set {
		return NoScope
	}
	return t.ID
}

// ApplyScope partitions records before any user filter runs. With a token set
// only records whose scope field equals it are kept; without one only records
// lacking a scope association are kept. Unscoped schemas pass through.
func ApplyScope(records []metadata.Record, schema *metadata.Schema, token ScopeToken) []metadata.Record {
	out := make([]metadata.Record, 0, len(records))
	for _, rec := range records {
		if InScope(rec, schema, token) {
			out = append(out, rec)
		}
	}
	return out
}

// InScope reports whether a single record belongs to the active scope.
func InScope(rec metadata.Record, schema *metadata.Schema, token ScopeToken) bool {
	if !schema.Scoped() {
		return true
	}
	owner, ok := scopeOf(rec, schema.ScopeField)
	if !token.Set {
		return !ok
	}
	return ok && owner == token.ID
}

func scopeOf(rec metadata.Record, field string) (string, bool) {
	raw, ok := rec[field]
	if !ok || raw == nil {
		return "", false
	}
	s := strings.TrimSpace(scalarString(raw))
	if s == "" {
		return "", false
	}
	return s, true
}
