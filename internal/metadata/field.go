package metadata

import "fmt"

// FieldType is the declared type of a filterable field.
type FieldType string

const (
	TypeString     FieldType = "string"
	TypeNumber     FieldType = "number"
	TypeDate       FieldType = "date"
	TypeEnum       FieldType = "enum"
	TypeStringList FieldType = "string[]"
)

// Record is a single resource instance as stored in a collection.
type Record = map[string]any

type Field struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Enum     []string  `json:"enum,omitempty"`
	Accessor Accessor  `json:"-"`
}

// Get runs the field's accessor against the record. Fields declared without an
// accessor read the top-level key of the same name.
func (f Field) Get(rec Record) (any, bool) {
	if f.Accessor == nil {
		v, ok := rec[f.Name]
		if !ok || v == nil {
			return nil, false
		}
		return v, true
	}
	return f.Accessor(rec)
}

// IsTextual returns true for fields compared as strings.
func (f Field) IsTextual() bool {
	return f.Type == TypeString || f.Type == TypeEnum || f.Type == TypeStringList
}

// IsOrdered returns true for fields that support gt/lt.
func (f Field) IsOrdered() bool {
	return f.Type == TypeNumber || f.Type == TypeDate
}

func (f Field) validate() error {
	switch f.Type {
	case TypeString, TypeNumber, TypeDate, TypeStringList:
	case TypeEnum:
		if len(f.Enum) == 0 {
			return fmt.Errorf("field %s: enum without values", f.Name)
		}
	default:
		return fmt.Errorf("field %s: unknown type %q", f.Name, f.Type)
	}
	if f.Name == "" {
		return fmt.Errorf("field with empty name")
	}
	return nil
}
