package columnar

import (
	"bytes"
	"math"
	"strconv"

	gojson "github.com/goccy/go-json"

	"github.com/ajitpratap0/jsoncol/pkg/schema"
)

// Value is one typed cell. Exactly one payload field is meaningful,
// selected by Type. The zero Value is null.
type Value struct {
	Type  schema.LogicalType
	Bool  bool
	Int   int64
	Float float64
	// Str holds the text of a string value, or the canonical JSON text of a
	// mixed value.
	Str string
}

// Row is one decoded record, aligned to schema field order.
type Row []Value

// Null returns the null value.
func Null() Value { return Value{} }

// BoolValue returns a boolean value.
func BoolValue(b bool) Value { return Value{Type: schema.TypeBoolean, Bool: b} }

// IntValue returns an integer value.
func IntValue(i int64) Value { return Value{Type: schema.TypeInteger, Int: i} }

// FloatValue returns a float value.
func FloatValue(f float64) Value { return Value{Type: schema.TypeFloat, Float: f} }

// StringValue returns a string value.
func StringValue(s string) Value { return Value{Type: schema.TypeString, Str: s} }

// MixedValue returns a mixed value from canonical JSON text.
func MixedValue(jsonText string) Value { return Value{Type: schema.TypeMixed, Str: jsonText} }

// IsNull reports whether v is null.
func (v Value) IsNull() bool {
	return v.Type == schema.TypeNull
}

// Interface converts v to the value a JSON encoder should emit: nil, bool,
// int64, float64, string, or json.RawMessage for mixed values.
func (v Value) Interface() interface{} {
	switch v.Type {
	case schema.TypeBoolean:
		return v.Bool
	case schema.TypeInteger:
		return v.Int
	case schema.TypeFloat:
		return v.Float
	case schema.TypeString:
		return v.Str
	case schema.TypeMixed:
		return gojson.RawMessage(v.Str)
	default:
		return nil
	}
}

func (v Value) String() string {
	switch v.Type {
	case schema.TypeBoolean:
		return strconv.FormatBool(v.Bool)
	case schema.TypeInteger:
		return strconv.FormatInt(v.Int, 10)
	case schema.TypeFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case schema.TypeString:
		return strconv.Quote(v.Str)
	case schema.TypeMixed:
		return v.Str
	default:
		return "null"
	}
}

// Equal reports whether two values have the same type and payload. Floats
// compare by bit pattern so that a round trip is checked exactly.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case schema.TypeBoolean:
		return v.Bool == o.Bool
	case schema.TypeInteger:
		return v.Int == o.Int
	case schema.TypeFloat:
		return math.Float64bits(v.Float) == math.Float64bits(o.Float)
	case schema.TypeString, schema.TypeMixed:
		return v.Str == o.Str
	default:
		return true
	}
}

// Compare orders two non-null values of the same type: -1, 0 or +1.
// false sorts before true; strings compare bytewise.
func (v Value) Compare(o Value) int {
	switch v.Type {
	case schema.TypeBoolean:
		switch {
		case v.Bool == o.Bool:
			return 0
		case !v.Bool:
			return -1
		default:
			return 1
		}
	case schema.TypeInteger:
		switch {
		case v.Int < o.Int:
			return -1
		case v.Int > o.Int:
			return 1
		}
		return 0
	case schema.TypeFloat:
		switch {
		case v.Float < o.Float:
			return -1
		case v.Float > o.Float:
			return 1
		}
		return 0
	default:
		return bytes.Compare([]byte(v.Str), []byte(o.Str))
	}
}
