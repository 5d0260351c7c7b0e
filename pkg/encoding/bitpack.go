package encoding

import (
	"errors"
	"math/bits"
)

var errShortCodes = errors.New("code stream too short")

// codeWidth returns the number of bits needed for codes in [0, n).
func codeWidth(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len32(uint32(n - 1))
}

// packCodes appends codes to dst, width bits each, least significant bit
// first.
func packCodes(dst []byte, codes []uint32, width int) []byte {
	if width == 0 {
		return dst
	}
	var acc uint64
	var nbits uint
	for _, c := range codes {
		acc |= uint64(c) << nbits
		nbits += uint(width)
		for nbits >= 8 {
			dst = append(dst, byte(acc))
			acc >>= 8
			nbits -= 8
		}
	}
	if nbits > 0 {
		dst = append(dst, byte(acc))
	}
	return dst
}

// unpackCodes reads n codes of width bits from src and returns them with
// the number of bytes consumed.
func unpackCodes(src []byte, n, width int) ([]uint32, int, error) {
	out := make([]uint32, n)
	if width == 0 {
		return out, 0, nil
	}
	need := (n*width + 7) / 8
	if len(src) < need {
		return nil, 0, errShortCodes
	}
	mask := uint64(1)<<uint(width) - 1
	var acc uint64
	var nbits uint
	pos := 0
	for i := range out {
		for nbits < uint(width) {
			acc |= uint64(src[pos]) << nbits
			pos++
			nbits += 8
		}
		out[i] = uint32(acc & mask)
		acc >>= uint(width)
		nbits -= uint(width)
	}
	return out, need, nil
}
