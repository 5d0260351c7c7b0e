package encoding

import (
	"fmt"

	"github.com/ajitpratap0/jsoncol/pkg/colerrors"
	"github.com/ajitpratap0/jsoncol/pkg/columnar"
	"github.com/ajitpratap0/jsoncol/pkg/compression"
	"github.com/ajitpratap0/jsoncol/pkg/schema"
)

// maxCapacityHint bounds the buffer preallocated from untrusted row counts.
const maxCapacityHint = 1 << 16

// DecodeBlock rebuilds the column buffer of an encoded block.
func DecodeBlock(b *EncodedBlock, codec compression.Compressor) (*columnar.ColumnBuffer, error) {
	return Decode(b.Field, b.Encoding, b.NumRows, b.Pages, codec)
}

// Decode rebuilds a column buffer of numRows rows from the compressed pages
// of one block. Any inconsistency between the pages and their metadata is
// reported as an encoding error.
func Decode(field schema.Field, kind Kind, numRows int, pages []Page, codec compression.Compressor) (*columnar.ColumnBuffer, error) {
	if !kind.Valid() {
		return nil, corrupt(field, "unknown encoding %q", kind)
	}

	var dict []columnar.Value
	if kind == Dictionary {
		if len(pages) == 0 || pages[0].Kind != DictionaryPage {
			return nil, corrupt(field, "dictionary block without dictionary page")
		}
		raw, err := decompress(field, pages[0], codec)
		if err != nil {
			return nil, err
		}
		values, used, err := readPlain(raw, field.Type, pages[0].NumValues)
		if err != nil || used != len(raw) {
			return nil, corrupt(field, "bad dictionary page: %v", errOrTrailing(err, len(raw)-used))
		}
		dict = values
		pages = pages[1:]
	}

	total, budget := 0, 0
	for _, p := range pages {
		if p.NumValues < 0 || p.NumValues > numRows-total {
			return nil, corrupt(field, "page row count %d does not fit a block of %d rows", p.NumValues, numRows)
		}
		total += p.NumValues
		budget += 8 * len(p.Data)
	}
	if total != numRows {
		return nil, corrupt(field, "pages hold %d rows, block has %d", total, numRows)
	}

	col := columnar.NewColumnBuffer(field, min(numRows, budget, maxCapacityHint))
	for pi, p := range pages {
		if p.Kind != DataPage {
			return nil, corrupt(field, "page %d: unexpected %s page", pi, p.Kind)
		}
		raw, err := decompress(field, p, codec)
		if err != nil {
			return nil, err
		}
		values, validity, err := decodeDataPage(field, raw, p.NumValues, dict, kind == Dictionary)
		if err != nil {
			return nil, corrupt(field, "page %d: %v", pi, err)
		}
		j := 0
		for i := 0; i < p.NumValues; i++ {
			v := columnar.Null()
			if validity.Get(i) {
				v = values[j]
				j++
			}
			if err := col.Append(v); err != nil {
				return nil, corrupt(field, "page %d row %d: %v", pi, i, err)
			}
		}
	}
	return col, nil
}

func decodeDataPage(field schema.Field, raw []byte, n int, dict []columnar.Value, dictionary bool) ([]columnar.Value, columnar.Bitmap, error) {
	bm := (n + 7) / 8
	if len(raw) < bm {
		return nil, columnar.Bitmap{}, errTruncated
	}
	validity := columnar.BitmapFromBytes(raw[:bm], n)
	k := validity.Count()
	body := raw[bm:]

	if !dictionary {
		values, used, err := readPlain(body, field.Type, k)
		if err != nil {
			return nil, validity, err
		}
		if used != len(body) {
			return nil, validity, errOrTrailing(nil, len(body)-used)
		}
		return values, validity, nil
	}

	if len(body) < 1 {
		return nil, validity, errTruncated
	}
	width := int(body[0])
	if width > 32 {
		return nil, validity, fmt.Errorf("code width %d out of range", width)
	}
	codes, used, err := unpackCodes(body[1:], k, width)
	if err != nil {
		return nil, validity, err
	}
	if used+1 != len(body) {
		return nil, validity, errOrTrailing(nil, len(body)-used-1)
	}
	values := make([]columnar.Value, k)
	for j, c := range codes {
		if int(c) >= len(dict) {
			return nil, validity, fmt.Errorf("code %d outside dictionary of %d", c, len(dict))
		}
		values[j] = dict[c]
	}
	return values, validity, nil
}

func decompress(field schema.Field, p Page, codec compression.Compressor) ([]byte, error) {
	raw, err := codec.Decompress(p.Data)
	if err != nil {
		return nil, colerrors.Wrap(err, colerrors.ErrorTypeEncoding, "decompress page").
			WithDetail("column", field.Name)
	}
	if len(raw) != p.UncompressedLen {
		return nil, corrupt(field, "page decompressed to %d bytes, expected %d", len(raw), p.UncompressedLen)
	}
	return raw, nil
}

func errOrTrailing(err error, trailing int) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("%d trailing bytes", trailing)
}

func corrupt(field schema.Field, format string, args ...interface{}) error {
	return colerrors.Newf(colerrors.ErrorTypeEncoding, format, args...).
		WithDetail("column", field.Name)
}
