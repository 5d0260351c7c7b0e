// Package colfile writes and reads jsoncol files.
//
// A file is the concatenation of its row groups' column blocks, each block
// the concatenation of its compressed pages, followed by a JSON footer and
// a fixed 20 byte trailer:
//
//	[row group 0 blocks] ... [row group N-1 blocks] [footer JSON] [trailer]
//
// The trailer holds the footer offset and length as little endian uint64
// values and the magic "JCOL". All page, block and row-group boundaries are
// recorded in the footer; the data section carries no framing.
package colfile

import (
	"fmt"

	"github.com/ajitpratap0/jsoncol/pkg/compression"
	"github.com/ajitpratap0/jsoncol/pkg/encoding"
	"github.com/ajitpratap0/jsoncol/pkg/schema"
)

const (
	// Magic closes every file.
	Magic = "JCOL"
	// FormatVersion is the footer layout version written by this package.
	FormatVersion = 1
	// TrailerSize is the length of the fixed trailer.
	TrailerSize = 20
)

// Footer is the file metadata.
type Footer struct {
	Version     int                   `json:"version"`
	CreatedBy   string                `json:"created_by,omitempty"`
	Compression compression.Algorithm `json:"compression"`
	Schema      *schema.Schema        `json:"schema"`
	NumRows     int64                 `json:"num_rows"`
	RowGroups   []RowGroupMeta        `json:"row_groups"`
	// Columns aggregates every row group, in schema order.
	Columns []ColumnSummary `json:"columns"`
}

// RowGroupMeta locates one row group.
type RowGroupMeta struct {
	Offset  int64             `json:"offset"`
	Length  int64             `json:"length"`
	NumRows int               `json:"num_rows"`
	Columns []ColumnChunkMeta `json:"columns"`
}

// ColumnChunkMeta describes one encoded block inside a row group.
type ColumnChunkMeta struct {
	Column          string              `json:"column"`
	Encoding        encoding.Kind       `json:"encoding"`
	Offset          int64               `json:"offset"`
	CompressedLen   int64               `json:"compressed_length"`
	UncompressedLen int64               `json:"uncompressed_length"`
	Pages           []PageMeta          `json:"pages"`
	Stats           encoding.Statistics `json:"stats"`
}

// PageMeta locates one page.
type PageMeta struct {
	Kind            encoding.PageKind `json:"kind"`
	Offset          int64             `json:"offset"`
	NumValues       int               `json:"num_values"`
	CompressedLen   int               `json:"compressed_length"`
	UncompressedLen int               `json:"uncompressed_length"`
}

// ColumnSummary is the file-wide view of one column.
type ColumnSummary struct {
	Column          string                `json:"column"`
	CompressedLen   int64                 `json:"compressed_length"`
	UncompressedLen int64                 `json:"uncompressed_length"`
	Encodings       map[encoding.Kind]int `json:"encodings"`
	Stats           encoding.Statistics   `json:"stats"`
}

// DataLength returns the size of the data section, which is where the
// footer starts.
func (f *Footer) DataLength() int64 {
	if len(f.RowGroups) == 0 {
		return 0
	}
	last := f.RowGroups[len(f.RowGroups)-1]
	return last.Offset + last.Length
}

// Validate checks that the footer is self-consistent and that all data it
// points at lies in [0, dataEnd).
func (f *Footer) Validate(dataEnd int64) error {
	if f.Version != FormatVersion {
		return fmt.Errorf("unsupported format version %d", f.Version)
	}
	if f.Schema == nil {
		return fmt.Errorf("footer has no schema")
	}
	if !f.Compression.Valid() {
		return fmt.Errorf("unknown compression %q", f.Compression)
	}
	if len(f.Columns) != f.Schema.Len() {
		return fmt.Errorf("footer summarises %d columns, schema has %d", len(f.Columns), f.Schema.Len())
	}

	var rows, next int64
	for i, rg := range f.RowGroups {
		if rg.Offset != next || rg.Length < 0 || rg.NumRows < 0 {
			return fmt.Errorf("row group %d: bad extent offset=%d length=%d", i, rg.Offset, rg.Length)
		}
		if len(rg.Columns) != f.Schema.Len() {
			return fmt.Errorf("row group %d has %d columns, schema has %d", i, len(rg.Columns), f.Schema.Len())
		}
		pos := rg.Offset
		for c, chunk := range rg.Columns {
			if name := f.Schema.Field(c).Name; chunk.Column != name {
				return fmt.Errorf("row group %d column %d is %q, schema has %q", i, c, chunk.Column, name)
			}
			if chunk.Offset != pos {
				return fmt.Errorf("row group %d column %q starts at %d, expected %d", i, chunk.Column, chunk.Offset, pos)
			}
			rowsLeft := rg.NumRows
			for _, p := range chunk.Pages {
				if p.Offset != pos || p.CompressedLen < 0 || p.UncompressedLen < 0 || p.NumValues < 0 {
					return fmt.Errorf("row group %d column %q: bad page at %d", i, chunk.Column, p.Offset)
				}
				if p.Kind == encoding.DataPage {
					// Every row costs one validity bit.
					if (p.NumValues+7)/8 > p.UncompressedLen || p.NumValues > rowsLeft {
						return fmt.Errorf("row group %d column %q: page at %d claims %d rows in %d bytes",
							i, chunk.Column, p.Offset, p.NumValues, p.UncompressedLen)
					}
					rowsLeft -= p.NumValues
				}
				pos += int64(p.CompressedLen)
			}
			if rowsLeft != 0 {
				return fmt.Errorf("row group %d column %q: pages hold %d rows, group has %d",
					i, chunk.Column, rg.NumRows-rowsLeft, rg.NumRows)
			}
			if pos-chunk.Offset != chunk.CompressedLen {
				return fmt.Errorf("row group %d column %q: pages hold %d bytes, chunk says %d",
					i, chunk.Column, pos-chunk.Offset, chunk.CompressedLen)
			}
		}
		if pos != rg.Offset+rg.Length {
			return fmt.Errorf("row group %d: columns end at %d, group ends at %d", i, pos, rg.Offset+rg.Length)
		}
		next = pos
		rows += int64(rg.NumRows)
	}
	if next != dataEnd {
		return fmt.Errorf("data section ends at %d, footer starts at %d", next, dataEnd)
	}
	if rows != f.NumRows {
		return fmt.Errorf("row groups hold %d rows, footer says %d", rows, f.NumRows)
	}
	return nil
}
