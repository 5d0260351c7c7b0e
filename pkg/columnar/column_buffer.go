package columnar

import (
	"fmt"

	"github.com/ajitpratap0/jsoncol/pkg/colerrors"
	"github.com/ajitpratap0/jsoncol/pkg/schema"
)

// ColumnBuffer stores the values of one field for one row group. Only the
// typed slice matching the field type is used; null rows hold the zero
// value of that slice.
type ColumnBuffer struct {
	field    schema.Field
	validity Bitmap
	length   int
	nulls    int

	bools  []bool
	ints   []int64
	floats []float64
	strs   []string // string and mixed
}

// NewColumnBuffer creates an empty buffer for field with room for capacity
// rows.
func NewColumnBuffer(field schema.Field, capacity int) *ColumnBuffer {
	c := &ColumnBuffer{field: field}
	c.validity.bits = make([]byte, 0, (capacity+7)/8)
	switch field.Type {
	case schema.TypeBoolean:
		c.bools = make([]bool, 0, capacity)
	case schema.TypeInteger:
		c.ints = make([]int64, 0, capacity)
	case schema.TypeFloat:
		c.floats = make([]float64, 0, capacity)
	case schema.TypeString, schema.TypeMixed:
		c.strs = make([]string, 0, capacity)
	}
	return c
}

// Field returns the field this buffer holds.
func (c *ColumnBuffer) Field() schema.Field {
	return c.field
}

// Len returns the number of rows, nulls included.
func (c *ColumnBuffer) Len() int {
	return c.length
}

// NullCount returns the number of null rows.
func (c *ColumnBuffer) NullCount() int {
	return c.nulls
}

// Validity returns the validity bitmap; bit i is set when row i is not null.
func (c *ColumnBuffer) Validity() *Bitmap {
	return &c.validity
}

// IsNull reports whether row i is null.
func (c *ColumnBuffer) IsNull(i int) bool {
	return !c.validity.Get(i)
}

// Check reports whether v can be appended without breaking the buffer's
// type or nullability.
func (c *ColumnBuffer) Check(v Value) error {
	if v.IsNull() {
		if !c.field.Nullable {
			return colerrors.Newf(colerrors.ErrorTypeEncoding,
				"null value for non-nullable column %q", c.field.Name)
		}
		return nil
	}
	if v.Type != c.field.Type {
		return colerrors.Newf(colerrors.ErrorTypeEncoding,
			"%s value for %s column %q", v.Type, c.field.Type, c.field.Name).
			WithDetail("column", c.field.Name)
	}
	return nil
}

// Append adds one value. It fails with an encoding error, leaving the
// buffer unchanged, when Check rejects v.
func (c *ColumnBuffer) Append(v Value) error {
	if err := c.Check(v); err != nil {
		return err
	}
	c.appendUnchecked(v)
	return nil
}

func (c *ColumnBuffer) appendUnchecked(v Value) {
	null := v.IsNull()
	c.validity.Append(!null)
	if null {
		c.nulls++
	}
	c.length++

	switch c.field.Type {
	case schema.TypeBoolean:
		c.bools = append(c.bools, v.Bool)
	case schema.TypeInteger:
		c.ints = append(c.ints, v.Int)
	case schema.TypeFloat:
		c.floats = append(c.floats, v.Float)
	case schema.TypeString, schema.TypeMixed:
		c.strs = append(c.strs, v.Str)
	}
}

// Value returns row i as a Value.
func (c *ColumnBuffer) Value(i int) Value {
	if i < 0 || i >= c.length {
		panic(fmt.Sprintf("columnar: row %d out of range [0,%d)", i, c.length))
	}
	if c.IsNull(i) {
		return Null()
	}
	switch c.field.Type {
	case schema.TypeBoolean:
		return BoolValue(c.bools[i])
	case schema.TypeInteger:
		return IntValue(c.ints[i])
	case schema.TypeFloat:
		return FloatValue(c.floats[i])
	case schema.TypeString:
		return StringValue(c.strs[i])
	case schema.TypeMixed:
		return MixedValue(c.strs[i])
	default:
		return Null()
	}
}

// Bools returns the backing slice of a boolean column.
func (c *ColumnBuffer) Bools() []bool { return c.bools }

// Ints returns the backing slice of an integer column.
func (c *ColumnBuffer) Ints() []int64 { return c.ints }

// Floats returns the backing slice of a float column.
func (c *ColumnBuffer) Floats() []float64 { return c.floats }

// Strings returns the backing slice of a string or mixed column.
func (c *ColumnBuffer) Strings() []string { return c.strs }

// Reset empties the buffer, keeping its storage.
func (c *ColumnBuffer) Reset() {
	c.validity.Reset()
	c.length = 0
	c.nulls = 0
	c.bools = c.bools[:0]
	c.ints = c.ints[:0]
	c.floats = c.floats[:0]
	c.strs = c.strs[:0]
}
