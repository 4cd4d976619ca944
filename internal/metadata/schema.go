package metadata

import "fmt"

// Schema describes one resource type: its collection name, the field holding
// its scope association, and the filterable fields.
type Schema struct {
	Name       string  `json:"name"`
	ScopeField string  `json:"scope_field,omitempty"` // empty means the resource is never scoped
	Fields     []Field `json:"fields"`

	index map[string]int
}

// NewSchema builds a schema and indexes its fields. Duplicate names or
// unknown types are rejected.
func NewSchema(name, scopeField string, fields ...Field) (*Schema, error) {
	s := &Schema{
		Name:       name,
		ScopeField: scopeField,
		Fields:     fields,
		index:      make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if err := f.validate(); err != nil {
			return nil, fmt.Errorf("schema %s: %w", name, err)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("schema %s: duplicate field %s", name, f.Name)
		}
		s.index[f.Name] = i
	}
	return s, nil
}

// MustSchema is NewSchema for package-level schema declarations.
func MustSchema(name, scopeField string, fields ...Field) *Schema {
	s, err := NewSchema(name, scopeField, fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// GetField returns a pointer to the field with the given name, or nil.
func (s *Schema) GetField(name string) *Field {
	if s.index != nil {
		if i, ok := s.index[name]; ok {
			return &s.Fields[i]
		}
		return nil
	}
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			return &s.Fields[i]
		}
	}
	return nil
}

// HasField returns true if the schema declares a field with the given name.
func (s *Schema) HasField(name string) bool {
	return s.GetField(name) != nil
}

// FieldNames returns all field names in declaration order.
func (s *Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Scoped returns true if records of this resource carry a scope association.
func (s *Schema) Scoped() bool {
	return s.ScopeField != ""
}
