// Package decoder turns raw JSON records into typed rows that follow a
// committed schema.
package decoder

import (
	"encoding/json"
	"math"
	"strconv"

	gojson "github.com/goccy/go-json"

	"github.com/ajitpratap0/jsoncol/pkg/colerrors"
	"github.com/ajitpratap0/jsoncol/pkg/columnar"
	"github.com/ajitpratap0/jsoncol/pkg/records"
	"github.com/ajitpratap0/jsoncol/pkg/schema"
)

// Decoder converts records to rows for one schema. It is not safe for
// concurrent use.
type Decoder struct {
	schema  *schema.Schema
	ignored int64
}

// NewDecoder returns a decoder for s.
func NewDecoder(s *schema.Schema) *Decoder {
	return &Decoder{schema: s}
}

// Schema returns the schema rows are decoded against.
func (d *Decoder) Schema() *schema.Schema {
	return d.schema
}

// IgnoredKeys returns how many keys outside the schema have been dropped
// from successfully decoded records so far.
func (d *Decoder) IgnoredKeys() int64 {
	return d.ignored
}

// Decode fills row with the values of rec in schema order and returns it.
// row is reused when it has enough capacity. A missing value, or a JSON
// null, in a non-nullable field fails with a missing_field error; a value
// that cannot be coerced to its field type fails with type_mismatch. Both
// are recoverable: the caller may skip the record and continue.
func (d *Decoder) Decode(rec *records.Record, row columnar.Row) (columnar.Row, error) {
	n := d.schema.Len()
	if cap(row) < n {
		row = make(columnar.Row, n)
	}
	row = row[:n]

	matched := 0
	for i := 0; i < n; i++ {
		field := d.schema.Field(i)
		raw, present := rec.Get(field.Name)
		if present {
			matched++
		}
		if raw == nil {
			if !field.Nullable {
				return row, missingField(field, rec, present)
			}
			row[i] = columnar.Null()
			continue
		}
		v, err := Coerce(field.Type, raw)
		if err != nil {
			return row, colerrors.Wrap(err, colerrors.ErrorTypeTypeMismatch,
				"cannot decode field "+strconv.Quote(field.Name)).
				WithDetail("field", field.Name).
				WithDetail("expected", field.Type.String()).
				WithDetail("record", rec.Position)
		}
		row[i] = v
	}
	d.ignored += int64(rec.Len() - matched)
	return row, nil
}

func missingField(field schema.Field, rec *records.Record, present bool) error {
	msg := "required field " + strconv.Quote(field.Name) + " is missing"
	if present {
		msg = "required field " + strconv.Quote(field.Name) + " is null"
	}
	return colerrors.New(colerrors.ErrorTypeMissingField, msg).
		WithDetail("field", field.Name).
		WithDetail("record", rec.Position)
}

// Coerce converts one non-null decoded JSON value to the given logical
// type.
func Coerce(t schema.LogicalType, raw interface{}) (columnar.Value, error) {
	switch t {
	case schema.TypeBoolean:
		if b, ok := raw.(bool); ok {
			return columnar.BoolValue(b), nil
		}
	case schema.TypeInteger:
		if i, ok := toInt(raw); ok {
			return columnar.IntValue(i), nil
		}
	case schema.TypeFloat:
		if f, ok := toFloat(raw); ok {
			return columnar.FloatValue(f), nil
		}
	case schema.TypeString:
		switch v := raw.(type) {
		case string:
			return columnar.StringValue(v), nil
		case json.Number:
			return columnar.StringValue(v.String()), nil
		case bool:
			return columnar.StringValue(strconv.FormatBool(v)), nil
		}
	case schema.TypeMixed:
		text, err := canonicalJSON(raw)
		if err != nil {
			return columnar.Value{}, err
		}
		return columnar.MixedValue(text), nil
	}
	return columnar.Value{}, colerrors.Newf(colerrors.ErrorTypeTypeMismatch,
		"%s value is not a valid %s", describe(raw), t)
}

// 2^63 as a float64; the first float past the int64 range.
const twoTo63 = float64(1 << 63)

func toInt(raw interface{}) (int64, bool) {
	var f float64
	switch v := raw.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(string(v), 10, 64); err == nil {
			return i, true
		}
		parsed, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case float64:
		f = v
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
	if f != math.Trunc(f) || f < -twoTo63 || f >= twoTo63 {
		return 0, false
	}
	return int64(f), true
}

func toFloat(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case json.Number:
		f, err := strconv.ParseFloat(string(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// canonicalJSON renders a decoded value as compact JSON. Object keys come
// out sorted, so equal values always produce equal text.
func canonicalJSON(raw interface{}) (string, error) {
	if n, ok := raw.(json.Number); ok {
		return n.String(), nil
	}
	b, err := gojson.Marshal(raw)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func describe(raw interface{}) string {
	switch raw.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case json.Number, float64, int64, int:
		return "number"
	case string:
		return "string"
	case []interface{}:
		return "array"
	case map[string]interface{}:
		return "object"
	default:
		return "unsupported"
	}
}
