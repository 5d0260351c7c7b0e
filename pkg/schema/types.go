// Package schema defines the column schema of a jsoncol file and infers it
// from a sample of JSON records.
package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// LogicalType is the closed set of column types.
type LogicalType uint8

const (
	// TypeNull is the type of a column that only ever held null.
	TypeNull LogicalType = iota
	// TypeBoolean holds true/false.
	TypeBoolean
	// TypeInteger holds signed 64-bit integers.
	TypeInteger
	// TypeFloat holds IEEE-754 doubles.
	TypeFloat
	// TypeString holds UTF-8 text.
	TypeString
	// TypeMixed holds any JSON value as its canonical JSON text. It is the
	// fallback when observed types have no common supertype.
	TypeMixed
)

var typeNames = [...]string{
	TypeNull:    "null",
	TypeBoolean: "boolean",
	TypeInteger: "integer",
	TypeFloat:   "float",
	TypeString:  "string",
	TypeMixed:   "mixed",
}

func (t LogicalType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "LogicalType(" + strconv.Itoa(int(t)) + ")"
}

// Valid reports whether t is one of the defined types.
func (t LogicalType) Valid() bool {
	return int(t) < len(typeNames)
}

// ParseLogicalType is the inverse of LogicalType.String.
func ParseLogicalType(s string) (LogicalType, error) {
	for i, name := range typeNames {
		if name == s {
			return LogicalType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown logical type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t LogicalType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid logical type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *LogicalType) UnmarshalText(text []byte) error {
	v, err := ParseLogicalType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Widen returns the narrowest type able to represent values of both a and b.
//
//	Widen(T, T)              = T
//	Widen(null, T)           = T
//	Widen(integer, float)    = float
//	anything else            = mixed
func Widen(a, b LogicalType) LogicalType {
	switch {
	case a == b:
		return a
	case a == TypeNull:
		return b
	case b == TypeNull:
		return a
	case (a == TypeInteger && b == TypeFloat) || (a == TypeFloat && b == TypeInteger):
		return TypeFloat
	default:
		return TypeMixed
	}
}

// Observe returns the logical type of a decoded JSON value. Objects and
// arrays are not shredded and observe as TypeMixed.
func Observe(v interface{}) LogicalType {
	switch n := v.(type) {
	case nil:
		return TypeNull
	case bool:
		return TypeBoolean
	case json.Number:
		if _, err := strconv.ParseInt(string(n), 10, 64); err == nil {
			return TypeInteger
		}
		if _, err := strconv.ParseFloat(string(n), 64); err != nil {
			// Outside the float64 range; kept as its literal text.
			return TypeMixed
		}
		return TypeFloat
	case float64, float32:
		return TypeFloat
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return TypeInteger
	case string:
		return TypeString
	default:
		return TypeMixed
	}
}
