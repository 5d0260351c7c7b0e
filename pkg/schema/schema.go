package schema

import (
	"fmt"
	"strings"

	jsonpool "github.com/ajitpratap0/jsoncol/pkg/json"
)

// Field describes one column.
type Field struct {
	Name     string      `json:"name"`
	Type     LogicalType `json:"type"`
	Nullable bool        `json:"nullable"`
}

func (f Field) String() string {
	if f.Nullable {
		return f.Name + ": " + f.Type.String() + " nullable"
	}
	return f.Name + ": " + f.Type.String() + " not null"
}

// Schema is an ordered list of uniquely named fields. A Schema is immutable
// once built and is shared by pointer for the whole conversion.
type Schema struct {
	fields []Field
	index  map[string]int
}

// New builds a schema, rejecting duplicate or empty field names and
// unknown types.
func New(fields []Field) (*Schema, error) {
	s := &Schema{
		fields: make([]Field, len(fields)),
		index:  make(map[string]int, len(fields)),
	}
	copy(s.fields, fields)
	for i, f := range s.fields {
		if !f.Type.Valid() {
			return nil, fmt.Errorf("field %q has invalid type %d", f.Name, uint8(f.Type))
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("duplicate field name %q", f.Name)
		}
		s.index[f.Name] = i
	}
	return s, nil
}

// MustNew is like New but panics on error. Intended for tests and literals.
func MustNew(fields ...Field) *Schema {
	s, err := New(fields)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	return len(s.fields)
}

// Field returns the i-th field.
func (s *Schema) Field(i int) Field {
	return s.fields[i]
}

// Fields returns a copy of the fields in order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Index returns the position of the named field.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Equal reports whether both schemas have the same fields in the same order.
func (s *Schema) Equal(o *Schema) bool {
	if s.Len() != o.Len() {
		return false
	}
	for i := range s.fields {
		if s.fields[i] != o.fields[i] {
			return false
		}
	}
	return true
}

// String renders the schema as {a: integer not null, b: string nullable}.
func (s *Schema) String() string {
	parts := make([]string, len(s.fields))
	for i, f := range s.fields {
		parts[i] = f.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

type schemaJSON struct {
	Fields []Field `json:"fields"`
}

// MarshalJSON implements json.Marshaler.
func (s *Schema) MarshalJSON() ([]byte, error) {
	return jsonpool.Marshal(schemaJSON{Fields: s.fields})
}

// UnmarshalJSON implements json.Unmarshaler and validates the result.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var raw schemaJSON
	if err := jsonpool.Unmarshal(data, &raw); err != nil {
		return err
	}
	built, err := New(raw.Fields)
	if err != nil {
		return err
	}
	*s = *built
	return nil
}

// Pretty returns the indented JSON form printed after inference.
func (s *Schema) Pretty() string {
	out, err := jsonpool.MarshalIndent(schemaJSON{Fields: s.fields}, "", "  ")
	if err != nil {
		return s.String()
	}
	return string(out)
}
