package columnar

import "math/bits"

// Bitmap is an append-only bit vector, least significant bit first. In a
// ColumnBuffer a set bit marks a valid (non-null) row.
type Bitmap struct {
	bits []byte
	n    int
}

// BitmapFromBytes copies n bits out of data. data must hold at least
// (n+7)/8 bytes.
func BitmapFromBytes(data []byte, n int) Bitmap {
	out := Bitmap{bits: make([]byte, (n+7)/8), n: n}
	copy(out.bits, data)
	if rem := n % 8; rem != 0 {
		out.bits[len(out.bits)-1] &= byte(1<<uint(rem)) - 1
	}
	return out
}

// Append adds one bit.
func (b *Bitmap) Append(set bool) {
	if b.n%8 == 0 {
		b.bits = append(b.bits, 0)
	}
	if set {
		b.bits[b.n/8] |= 1 << (uint(b.n) % 8)
	}
	b.n++
}

// Get returns bit i.
func (b *Bitmap) Get(i int) bool {
	return b.bits[i/8]&(1<<(uint(i)%8)) != 0
}

// Len returns the number of bits.
func (b *Bitmap) Len() int {
	return b.n
}

// Count returns the number of set bits.
func (b *Bitmap) Count() int {
	c := 0
	for _, w := range b.bits {
		c += bits.OnesCount8(w)
	}
	return c
}

// Bytes returns the packed bits. Unused high bits of the last byte are zero.
func (b *Bitmap) Bytes() []byte {
	return b.bits
}

// Slice copies bits [from, to) into a new bitmap.
func (b *Bitmap) Slice(from, to int) Bitmap {
	var out Bitmap
	out.bits = make([]byte, 0, (to-from+7)/8)
	for i := from; i < to; i++ {
		out.Append(b.Get(i))
	}
	return out
}

// Reset empties the bitmap, keeping its storage.
func (b *Bitmap) Reset() {
	b.bits = b.bits[:0]
	b.n = 0
}
