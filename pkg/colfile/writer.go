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
	"github.com/ajitpratap0/jsoncol/pkg/schema"
)

// WriterOptions configure a Writer.
type WriterOptions struct {
	// Compression is recorded in the footer; it must match the codec the
	// blocks were encoded with.
	Compression compression.Algorithm
	// CreatedBy identifies the producing program.
	CreatedBy string
}

// Writer appends row groups to an io.Writer and finishes the file with the
// footer and trailer. After any write failure the writer is unusable.
type Writer struct {
	w      io.Writer
	footer Footer
	offset int64
	closed bool
	err    error
}

// NewWriter returns a writer for files of schema s. Nothing is written
// until the first row group.
func NewWriter(w io.Writer, s *schema.Schema, opts WriterOptions) *Writer {
	algo := opts.Compression
	if algo == "" {
		algo = compression.None
	}
	wr := &Writer{
		w: w,
		footer: Footer{
			Version:     FormatVersion,
			CreatedBy:   opts.CreatedBy,
			Compression: algo,
			Schema:      s,
			RowGroups:   []RowGroupMeta{},
			Columns:     make([]ColumnSummary, s.Len()),
		},
	}
	for i := range wr.footer.Columns {
		wr.footer.Columns[i] = ColumnSummary{
			Column:    s.Field(i).Name,
			Encodings: map[encoding.Kind]int{},
		}
	}
	return wr
}

// Offset returns the number of bytes written so far.
func (w *Writer) Offset() int64 {
	return w.offset
}

// NumRowGroups returns the number of row groups written.
func (w *Writer) NumRowGroups() int {
	return len(w.footer.RowGroups)
}

// NumRows returns the number of rows written.
func (w *Writer) NumRows() int64 {
	return w.footer.NumRows
}

// WriteRowGroup writes the blocks of rg, one per schema field in schema
// order. Blocks that do not line up with the schema or the group are
// rejected with an encoding error before anything is written.
func (w *Writer) WriteRowGroup(rg *columnar.RowGroup, blocks []*encoding.EncodedBlock) error {
	if err := w.usable(); err != nil {
		return err
	}
	s := w.footer.Schema
	if len(blocks) != s.Len() {
		return colerrors.Newf(colerrors.ErrorTypeEncoding,
			"row group %d has %d blocks, schema has %d fields", rg.Index, len(blocks), s.Len())
	}
	for i, b := range blocks {
		if b.Field != s.Field(i) || b.NumRows != rg.NumRows() {
			return colerrors.Newf(colerrors.ErrorTypeEncoding,
				"block %d (%s, %d rows) does not match field %s of a %d row group",
				i, b.Field, b.NumRows, s.Field(i), rg.NumRows()).
				WithDetail("column", s.Field(i).Name)
		}
	}

	meta := RowGroupMeta{
		Offset:  w.offset,
		NumRows: rg.NumRows(),
		Columns: make([]ColumnChunkMeta, len(blocks)),
	}
	for i, b := range blocks {
		chunk := ColumnChunkMeta{
			Column:          b.Field.Name,
			Encoding:        b.Encoding,
			Offset:          w.offset,
			CompressedLen:   b.CompressedLen(),
			UncompressedLen: b.UncompressedLen(),
			Pages:           make([]PageMeta, len(b.Pages)),
			Stats:           b.Stats,
		}
		for p, page := range b.Pages {
			chunk.Pages[p] = PageMeta{
				Kind:            page.Kind,
				Offset:          w.offset,
				NumValues:       page.NumValues,
				CompressedLen:   len(page.Data),
				UncompressedLen: page.UncompressedLen,
			}
			if err := w.write(page.Data); err != nil {
				return err
			}
		}
		meta.Columns[i] = chunk
	}
	meta.Length = w.offset - meta.Offset

	first := len(w.footer.RowGroups) == 0
	for i, chunk := range meta.Columns {
		sum := &w.footer.Columns[i]
		sum.CompressedLen += chunk.CompressedLen
		sum.UncompressedLen += chunk.UncompressedLen
		sum.Encodings[chunk.Encoding]++
		if first {
			sum.Stats = chunk.Stats
		} else {
			sum.Stats.Merge(chunk.Stats)
		}
	}
	w.footer.RowGroups = append(w.footer.RowGroups, meta)
	w.footer.NumRows += int64(rg.NumRows())
	return nil
}

// Close writes the footer and trailer and returns the footer. It does not
// close the underlying writer.
func (w *Writer) Close() (*Footer, error) {
	if err := w.usable(); err != nil {
		return nil, err
	}
	w.closed = true

	if len(w.footer.RowGroups) == 0 {
		for i := range w.footer.Columns {
			w.footer.Columns[i].Stats = encoding.Statistics{
				Type:          w.footer.Schema.Field(i).Type,
				DistinctCount: -1,
			}
		}
	}

	buf := jsonpool.GetBuffer()
	defer jsonpool.PutBuffer(buf)
	if err := jsonpool.NewEncoder(buf).Encode(&w.footer); err != nil {
		w.err = colerrors.Wrap(err, colerrors.ErrorTypeInternal, "encode footer")
		return nil, w.err
	}
	data := bytes.TrimSuffix(buf.Bytes(), []byte{'\n'})
	footerOffset := w.offset
	if err := w.write(data); err != nil {
		return nil, err
	}

	var trailer [TrailerSize]byte
	binary.LittleEndian.PutUint64(trailer[0:8], uint64(footerOffset))
	binary.LittleEndian.PutUint64(trailer[8:16], uint64(len(data)))
	copy(trailer[16:], Magic)
	if err := w.write(trailer[:]); err != nil {
		return nil, err
	}
	return &w.footer, nil
}

func (w *Writer) usable() error {
	if w.err != nil {
		return w.err
	}
	if w.closed {
		return colerrors.New(colerrors.ErrorTypeIO, "writer is closed")
	}
	return nil
}

func (w *Writer) write(p []byte) error {
	n, err := w.w.Write(p)
	w.offset += int64(n)
	if err == nil && n != len(p) {
		err = io.ErrShortWrite
	}
	if err != nil {
		w.err = colerrors.Wrap(err, colerrors.ErrorTypeIO, "write output").
			WithDetail("offset", w.offset)
		return w.err
	}
	return nil
}
