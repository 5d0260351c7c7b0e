package colfile

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/ajitpratap0/jsoncol/pkg/colerrors"
	"github.com/ajitpratap0/jsoncol/pkg/columnar"
	"github.com/ajitpratap0/jsoncol/pkg/compression"
	"github.com/ajitpratap0/jsoncol/pkg/encoding"
	jsonpool "github.com/ajitpratap0/jsoncol/pkg/json"
	"github.com/ajitpratap0/jsoncol/pkg/mmap"
	"github.com/ajitpratap0/jsoncol/pkg/schema"
)

// Reader gives random access to the row groups of a file.
type Reader struct {
	r      io.ReaderAt
	size   int64
	footer *Footer
	codec  compression.Compressor
	closer io.Closer
}

// Open reads and validates the trailer and footer of the size bytes
// available through r.
func Open(r io.ReaderAt, size int64) (*Reader, error) {
	if size < TrailerSize {
		return nil, colerrors.Newf(colerrors.ErrorTypeIO, "file of %d bytes is too small", size)
	}
	var trailer [TrailerSize]byte
	if err := readAt(r, trailer[:], size-TrailerSize); err != nil {
		return nil, colerrors.Wrap(err, colerrors.ErrorTypeIO, "read trailer")
	}
	if !bytes.Equal(trailer[16:], []byte(Magic)) {
		return nil, colerrors.Newf(colerrors.ErrorTypeIO, "bad magic %q, not a jsoncol file", trailer[16:])
	}
	footerOffset := binary.LittleEndian.Uint64(trailer[0:8])
	footerLen := binary.LittleEndian.Uint64(trailer[8:16])
	if footerOffset > uint64(size) || footerLen != uint64(size-TrailerSize)-footerOffset {
		return nil, colerrors.Newf(colerrors.ErrorTypeIO,
			"trailer points at footer [%d,+%d) in a %d byte file", footerOffset, footerLen, size)
	}

	data := make([]byte, footerLen)
	if err := readAt(r, data, int64(footerOffset)); err != nil {
		return nil, colerrors.Wrap(err, colerrors.ErrorTypeIO, "read footer")
	}
	footer := &Footer{}
	if err := jsonpool.Unmarshal(data, footer); err != nil {
		return nil, colerrors.Wrap(err, colerrors.ErrorTypeEncoding, "decode footer")
	}
	if err := footer.Validate(int64(footerOffset)); err != nil {
		return nil, colerrors.Wrap(err, colerrors.ErrorTypeEncoding, "invalid footer")
	}

	codec, err := compression.NewCompressor(&compression.Config{
		Algorithm: footer.Compression,
		Level:     compression.Default,
	})
	if err != nil {
		return nil, colerrors.Wrap(err, colerrors.ErrorTypeEncoding, "footer compression")
	}
	return &Reader{r: r, size: size, footer: footer, codec: codec}, nil
}

// OpenFile memory-maps the file at path. Close releases it.
func OpenFile(path string) (*Reader, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, colerrors.Wrap(err, colerrors.ErrorTypeIO, "open file").WithDetail("path", path)
	}
	rd, err := Open(m, m.Len())
	if err != nil {
		_ = m.Close()
		return nil, err
	}
	rd.closer = m
	return rd, nil
}

// Close releases the file opened by OpenFile.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Footer returns the file metadata.
func (r *Reader) Footer() *Footer {
	return r.footer
}

// Schema returns the file schema.
func (r *Reader) Schema() *schema.Schema {
	return r.footer.Schema
}

// Size returns the file size in bytes.
func (r *Reader) Size() int64 {
	return r.size
}

// NumRowGroups returns the number of row groups.
func (r *Reader) NumRowGroups() int {
	return len(r.footer.RowGroups)
}

// ReadRowGroup reads and decodes row group i.
func (r *Reader) ReadRowGroup(i int) (*columnar.RowGroup, error) {
	if i < 0 || i >= len(r.footer.RowGroups) {
		return nil, colerrors.Newf(colerrors.ErrorTypeIO, "row group %d out of range [0,%d)", i, len(r.footer.RowGroups))
	}
	meta := r.footer.RowGroups[i]
	data := make([]byte, meta.Length)
	if err := readAt(r.r, data, meta.Offset); err != nil {
		return nil, colerrors.Wrap(err, colerrors.ErrorTypeIO, "read row group").WithDetail("row_group", i)
	}

	s := r.footer.Schema
	cols := make([]*columnar.ColumnBuffer, len(meta.Columns))
	for c, chunk := range meta.Columns {
		pages := make([]encoding.Page, len(chunk.Pages))
		for p, pm := range chunk.Pages {
			start := pm.Offset - meta.Offset
			pages[p] = encoding.Page{
				Kind:            pm.Kind,
				NumValues:       pm.NumValues,
				UncompressedLen: pm.UncompressedLen,
				Data:            data[start : start+int64(pm.CompressedLen)],
			}
		}
		col, err := encoding.Decode(s.Field(c), chunk.Encoding, meta.NumRows, pages, r.codec)
		if err != nil {
			return nil, colerrors.Wrap(err, colerrors.ErrorTypeEncoding, "decode column").
				WithDetail("row_group", i).
				WithDetail("column", chunk.Column)
		}
		cols[c] = col
	}
	rg, err := columnar.AssembleRowGroup(s, i, cols, meta.NumRows)
	if err != nil {
		return nil, colerrors.Wrap(err, colerrors.ErrorTypeEncoding, "assemble row group").WithDetail("row_group", i)
	}
	return rg, nil
}

// Rows calls fn for every row of the file in order, one row group in
// memory at a time. The row passed to fn is only valid during the call.
// Iteration stops at the first error fn returns.
func (r *Reader) Rows(fn func(columnar.Row) error) error {
	for i := range r.footer.RowGroups {
		rg, err := r.ReadRowGroup(i)
		if err != nil {
			return err
		}
		for j := 0; j < rg.NumRows(); j++ {
			if err := fn(rg.Row(j)); err != nil {
				return err
			}
		}
	}
	return nil
}

// readAt fills p, tolerating the io.EOF a ReaderAt may return alongside a
// full read at the end of the input.
func readAt(r io.ReaderAt, p []byte, off int64) error {
	n, err := r.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}
