package encoding

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/ajitpratap0/jsoncol/pkg/columnar"
	"github.com/ajitpratap0/jsoncol/pkg/schema"
)

var errTruncated = errors.New("page truncated")

// appendPlain appends the plain encoding of the non-null values among rows
// of col to dst.
func appendPlain(dst []byte, col *columnar.ColumnBuffer, rows []int) []byte {
	switch col.Field().Type {
	case schema.TypeBoolean:
		var packed columnar.Bitmap
		for _, i := range rows {
			packed.Append(col.Bools()[i])
		}
		return append(dst, packed.Bytes()...)
	case schema.TypeInteger:
		for _, i := range rows {
			dst = binary.LittleEndian.AppendUint64(dst, uint64(col.Ints()[i]))
		}
	case schema.TypeFloat:
		for _, i := range rows {
			dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(col.Floats()[i]))
		}
	case schema.TypeString, schema.TypeMixed:
		for _, i := range rows {
			s := col.Strings()[i]
			dst = binary.AppendUvarint(dst, uint64(len(s)))
			dst = append(dst, s...)
		}
	}
	return dst
}

// plainSize returns the plain encoded size of row i in bits.
func plainSize(col *columnar.ColumnBuffer, i int) int {
	switch col.Field().Type {
	case schema.TypeBoolean:
		return 1
	case schema.TypeInteger, schema.TypeFloat:
		return 64
	case schema.TypeString, schema.TypeMixed:
		n := len(col.Strings()[i])
		return 8 * (uvarintLen(uint64(n)) + n)
	default:
		return 0
	}
}

func uvarintLen(x uint64) int {
	n := 1
	for x >= 0x80 {
		x >>= 7
		n++
	}
	return n
}

// readPlain decodes n plain values of type t from src and returns them with
// the number of bytes consumed.
func readPlain(src []byte, t schema.LogicalType, n int) ([]columnar.Value, int, error) {
	if n < 0 || (t != schema.TypeNull && n > 8*len(src)) {
		return nil, 0, errTruncated
	}
	if t == schema.TypeNull && n != 0 {
		return nil, 0, errors.New("null column with non-null values")
	}
	out := make([]columnar.Value, n)
	switch t {
	case schema.TypeNull:
		return out, 0, nil
	case schema.TypeBoolean:
		need := (n + 7) / 8
		if len(src) < need {
			return nil, 0, errTruncated
		}
		packed := columnar.BitmapFromBytes(src[:need], n)
		for i := range out {
			out[i] = columnar.BoolValue(packed.Get(i))
		}
		return out, need, nil
	case schema.TypeInteger, schema.TypeFloat:
		need := 8 * n
		if len(src) < need {
			return nil, 0, errTruncated
		}
		for i := range out {
			bits := binary.LittleEndian.Uint64(src[8*i:])
			if t == schema.TypeInteger {
				out[i] = columnar.IntValue(int64(bits))
			} else {
				out[i] = columnar.FloatValue(math.Float64frombits(bits))
			}
		}
		return out, need, nil
	case schema.TypeString, schema.TypeMixed:
		off := 0
		for i := range out {
			l, k := binary.Uvarint(src[off:])
			if k <= 0 {
				return nil, 0, errTruncated
			}
			off += k
			if uint64(len(src)-off) < l {
				return nil, 0, errTruncated
			}
			s := string(src[off : off+int(l)])
			off += int(l)
			if t == schema.TypeString {
				out[i] = columnar.StringValue(s)
			} else {
				out[i] = columnar.MixedValue(s)
			}
		}
		return out, off, nil
	default:
		return nil, 0, errors.New("unknown column type")
	}
}
