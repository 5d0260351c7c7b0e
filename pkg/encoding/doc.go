// Package encoding turns one column buffer into an encoded, paged and
// compressed block, and back.
//
// # Page layout
//
// A plain data page holds the validity bitmap of its rows (one bit per
// row, least significant bit first, set for non-null) followed by the
// non-null values:
//
//   - boolean: bit-packed, least significant bit first
//   - integer: int64 little endian
//   - float: IEEE-754 float64 little endian
//   - string, mixed: uvarint length followed by the bytes
//   - null: no values, the page is the bitmap alone
//
// A dictionary-encoded block starts with one dictionary page, holding the
// distinct values in first-seen order with the plain value layout and no
// bitmap. Its data pages hold the bitmap, one byte giving the code bit
// width, and the bit-packed codes of the non-null rows.
//
// Every page is compressed on its own with the encoder's codec. Page
// boundaries, value counts and lengths live outside the pages, in the
// block metadata the file writer stores in the footer.
package encoding
