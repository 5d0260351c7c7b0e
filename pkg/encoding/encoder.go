package encoding

import (
	"math"

	"github.com/ajitpratap0/jsoncol/pkg/colerrors"
	"github.com/ajitpratap0/jsoncol/pkg/columnar"
	"github.com/ajitpratap0/jsoncol/pkg/compression"
	"github.com/ajitpratap0/jsoncol/pkg/schema"
)

// Encoder encodes column buffers into blocks. It holds no per-column state
// and is safe for concurrent use when its codec is.
type Encoder struct {
	opts  Options
	codec compression.Compressor
}

// NewEncoder validates opts and returns an Encoder.
func NewEncoder(opts Options) (*Encoder, error) {
	if err := opts.Validate(); err != nil {
		return nil, colerrors.Wrap(err, colerrors.ErrorTypeConfig, "invalid encoder options")
	}
	codec := opts.Codec
	if codec == nil {
		var err error
		if codec, err = compression.NewCompressor(compression.DefaultConfig()); err != nil {
			return nil, colerrors.Wrap(err, colerrors.ErrorTypeInternal, "create codec")
		}
	}
	return &Encoder{opts: opts, codec: codec}, nil
}

// Codec returns the page codec.
func (e *Encoder) Codec() compression.Compressor {
	return e.codec
}

// EncodeAs encodes col after checking that it was built for field.
func (e *Encoder) EncodeAs(field schema.Field, col *columnar.ColumnBuffer) (*EncodedBlock, error) {
	if got := col.Field(); got != field {
		return nil, colerrors.Newf(colerrors.ErrorTypeEncoding,
			"column buffer holds %s, schema expects %s", got, field).
			WithDetail("column", field.Name)
	}
	return e.Encode(col)
}

// Encode produces the block for one column buffer.
func (e *Encoder) Encode(col *columnar.ColumnBuffer) (*EncodedBlock, error) {
	field := col.Field()
	if err := checkBuffer(col); err != nil {
		return nil, err
	}

	n := col.Len()
	block := &EncodedBlock{
		Field:    field,
		Encoding: Plain,
		NumRows:  n,
		Stats:    statistics(col),
	}

	var dict *dictionary
	if nonNull := n - col.NullCount(); e.opts.EnableDictionary && dictionaryEligible(field.Type) && nonNull > 0 {
		d := analyze(col)
		block.Stats.DistinctCount = int64(len(d.entries))
		if float64(len(d.entries))/float64(nonNull) < e.opts.DictionaryRatio {
			raw := appendPlain(nil, col, d.entries)
			if len(raw) <= e.opts.DictPageSize {
				page, err := e.page(field, DictionaryPage, len(d.entries), raw)
				if err != nil {
					return nil, err
				}
				block.Encoding = Dictionary
				block.Pages = append(block.Pages, page)
				dict = d
			}
		}
	}

	width := 0
	if dict != nil {
		width = codeWidth(len(dict.entries))
	}
	limit := 8 * e.opts.PageSize
	from, size := 0, 0
	for i := 0; i < n; i++ {
		if !col.IsNull(i) {
			if dict != nil {
				size += width
			} else {
				size += plainSize(col, i)
			}
		}
		if size < limit && i < n-1 {
			continue
		}
		page, err := e.page(field, DataPage, i+1-from, dataPage(col, from, i+1, dict, width))
		if err != nil {
			return nil, err
		}
		block.Pages = append(block.Pages, page)
		from, size = i+1, 0
	}
	return block, nil
}

func (e *Encoder) page(field schema.Field, kind PageKind, numValues int, raw []byte) (Page, error) {
	data, err := e.codec.Compress(raw)
	if err != nil {
		return Page{}, colerrors.Wrap(err, colerrors.ErrorTypeEncoding, "compress page").
			WithDetail("column", field.Name)
	}
	return Page{
		Kind:            kind,
		NumValues:       numValues,
		UncompressedLen: len(raw),
		Data:            data,
	}, nil
}

// dataPage encodes rows [from, to).
func dataPage(col *columnar.ColumnBuffer, from, to int, dict *dictionary, width int) []byte {
	validity := col.Validity().Slice(from, to)
	buf := append([]byte(nil), validity.Bytes()...)

	rows := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		if !col.IsNull(i) {
			rows = append(rows, i)
		}
	}
	if dict == nil {
		return appendPlain(buf, col, rows)
	}
	codes := make([]uint32, len(rows))
	for j, i := range rows {
		codes[j] = dict.codes[i]
	}
	buf = append(buf, byte(width))
	return packCodes(buf, codes, width)
}

func checkBuffer(col *columnar.ColumnBuffer) error {
	field := col.Field()
	var values int
	switch field.Type {
	case schema.TypeNull:
		values = col.Len()
		if col.NullCount() != col.Len() {
			values = -1
		}
	case schema.TypeBoolean:
		values = len(col.Bools())
	case schema.TypeInteger:
		values = len(col.Ints())
	case schema.TypeFloat:
		values = len(col.Floats())
	case schema.TypeString, schema.TypeMixed:
		values = len(col.Strings())
	default:
		return colerrors.Newf(colerrors.ErrorTypeEncoding, "column %q has unknown type %d", field.Name, field.Type)
	}
	if values != col.Len() || col.Validity().Len() != col.Len() {
		return colerrors.Newf(colerrors.ErrorTypeEncoding,
			"column %q does not hold %s values for all %d rows", field.Name, field.Type, col.Len()).
			WithDetail("column", field.Name)
	}
	return nil
}

func statistics(col *columnar.ColumnBuffer) Statistics {
	t := col.Field().Type
	st := Statistics{Type: t, NullCount: int64(col.NullCount()), DistinctCount: -1}
	if t == schema.TypeMixed || t == schema.TypeNull {
		return st
	}
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			continue
		}
		v := col.Value(i)
		if st.Min.IsNull() || v.Compare(st.Min) < 0 {
			st.Min = v
		}
		if st.Max.IsNull() || v.Compare(st.Max) > 0 {
			st.Max = v
		}
	}
	return st
}

func dictionaryEligible(t schema.LogicalType) bool {
	switch t {
	case schema.TypeInteger, schema.TypeFloat, schema.TypeString, schema.TypeMixed:
		return true
	default:
		return false
	}
}

// dictionary maps the distinct values of a column to dense codes.
type dictionary struct {
	// entries holds the row of the first occurrence of each value; code c
	// stands for the value at row entries[c].
	entries []int
	// codes holds the code of every non-null row.
	codes []uint32
}

func analyze(col *columnar.ColumnBuffer) *dictionary {
	switch col.Field().Type {
	case schema.TypeInteger:
		ints := col.Ints()
		return buildDictionary(col, func(i int) int64 { return ints[i] })
	case schema.TypeFloat:
		floats := col.Floats()
		return buildDictionary(col, func(i int) uint64 { return math.Float64bits(floats[i]) })
	default:
		strs := col.Strings()
		return buildDictionary(col, func(i int) string { return strs[i] })
	}
}

func buildDictionary[K comparable](col *columnar.ColumnBuffer, key func(int) K) *dictionary {
	d := &dictionary{codes: make([]uint32, col.Len())}
	seen := make(map[K]uint32)
	for i := 0; i < col.Len(); i++ {
		if col.IsNull(i) {
			continue
		}
		k := key(i)
		c, ok := seen[k]
		if !ok {
			c = uint32(len(d.entries))
			seen[k] = c
			d.entries = append(d.entries, i)
		}
		d.codes[i] = c
	}
	return d
}
