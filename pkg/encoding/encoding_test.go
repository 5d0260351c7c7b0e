package encoding

import (
	"fmt"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/jsoncol/pkg/colerrors"
	"github.com/ajitpratap0/jsoncol/pkg/columnar"
	"github.com/ajitpratap0/jsoncol/pkg/compression"
	"github.com/ajitpratap0/jsoncol/pkg/schema"
)

func buffer(t *testing.T, field schema.Field, values ...columnar.Value) *columnar.ColumnBuffer {
	t.Helper()
	col := columnar.NewColumnBuffer(field, len(values))
	for _, v := range values {
		require.NoError(t, col.Append(v))
	}
	return col
}

func newEncoder(t *testing.T, algo compression.Algorithm, dict bool, pageSize int) *Encoder {
	t.Helper()
	codec, err := compression.NewCompressor(&compression.Config{Algorithm: algo, Level: compression.Default})
	require.NoError(t, err)
	opts := DefaultOptions()
	opts.Codec = codec
	opts.EnableDictionary = dict
	if pageSize > 0 {
		opts.PageSize = pageSize
	}
	enc, err := NewEncoder(opts)
	require.NoError(t, err)
	return enc
}

func requireRoundTrip(t *testing.T, enc *Encoder, col *columnar.ColumnBuffer) *EncodedBlock {
	t.Helper()
	block, err := enc.Encode(col)
	require.NoError(t, err)
	back, err := DecodeBlock(block, enc.Codec())
	require.NoError(t, err)
	require.Equal(t, col.Len(), back.Len())
	for i := 0; i < col.Len(); i++ {
		require.True(t, col.Value(i).Equal(back.Value(i)), "row %d: %v != %v", i, col.Value(i), back.Value(i))
	}
	return block
}

func sampleColumns(t *testing.T) []*columnar.ColumnBuffer {
	repeated := func(f schema.Field, n int, gen func(i int) columnar.Value) *columnar.ColumnBuffer {
		vals := make([]columnar.Value, n)
		for i := range vals {
			if i%5 == 3 && f.Nullable {
				continue
			}
			vals[i] = gen(i)
		}
		return buffer(t, f, vals...)
	}
	return []*columnar.ColumnBuffer{
		repeated(schema.Field{Name: "b", Type: schema.TypeBoolean, Nullable: true}, 37,
			func(i int) columnar.Value { return columnar.BoolValue(i%3 == 0) }),
		repeated(schema.Field{Name: "i", Type: schema.TypeInteger, Nullable: true}, 100,
			func(i int) columnar.Value { return columnar.IntValue(int64(i%4) - 2) }),
		repeated(schema.Field{Name: "u", Type: schema.TypeInteger}, 50,
			func(i int) columnar.Value { return columnar.IntValue(int64(i) * 1000003) }),
		repeated(schema.Field{Name: "f", Type: schema.TypeFloat, Nullable: true}, 64,
			func(i int) columnar.Value { return columnar.FloatValue(float64(i%3) / 7) }),
		repeated(schema.Field{Name: "s", Type: schema.TypeString, Nullable: true}, 90,
			func(i int) columnar.Value { return columnar.StringValue(fmt.Sprintf("v%d", i%6)) }),
		repeated(schema.Field{Name: "m", Type: schema.TypeMixed, Nullable: true}, 20,
			func(i int) columnar.Value { return columnar.MixedValue(fmt.Sprintf(`{"k":%d}`, i%2)) }),
		repeated(schema.Field{Name: "n", Type: schema.TypeNull, Nullable: true}, 9,
			func(int) columnar.Value { return columnar.Null() }),
	}
}

func TestRoundTrip(t *testing.T) {
	algorithms := []compression.Algorithm{
		compression.None, compression.Snappy, compression.Gzip, compression.LZ4,
		compression.Zstd, compression.Brotli, compression.S2, compression.Deflate,
	}
	for _, algo := range algorithms {
		for _, dict := range []bool{false, true} {
			for _, pageSize := range []int{0, 7} {
				name := fmt.Sprintf("%s/dict=%v/page=%d", algo, dict, pageSize)
				t.Run(name, func(t *testing.T) {
					enc := newEncoder(t, algo, dict, pageSize)
					for _, col := range sampleColumns(t) {
						requireRoundTrip(t, enc, col)
					}
				})
			}
		}
	}
}

func TestEncode_ChoosesDictionary(t *testing.T) {
	enc := newEncoder(t, compression.None, true, 0)
	cols := sampleColumns(t)

	tests := []struct {
		col     *columnar.ColumnBuffer
		want    Kind
		entries int
	}{
		{cols[0], Plain, 0},      // booleans are never dictionary encoded
		{cols[1], Dictionary, 4}, // 4 distinct of 80
		{cols[2], Plain, 0},      // all distinct
		{cols[4], Dictionary, 6},
		{cols[6], Plain, 0}, // no non-null values
	}
	for _, tt := range tests {
		t.Run(tt.col.Field().Name, func(t *testing.T) {
			block := requireRoundTrip(t, enc, tt.col)
			assert.Equal(t, tt.want, block.Encoding)
			if tt.want == Dictionary {
				require.NotEmpty(t, block.Pages)
				assert.Equal(t, DictionaryPage, block.Pages[0].Kind)
				assert.Equal(t, tt.entries, block.Pages[0].NumValues)
			}
		})
	}

	plainOnly := newEncoder(t, compression.None, false, 0)
	block, err := plainOnly.Encode(cols[1])
	require.NoError(t, err)
	assert.Equal(t, Plain, block.Encoding)
	assert.Equal(t, int64(-1), block.Stats.DistinctCount)
}

func TestEncode_DictionaryPageLimit(t *testing.T) {
	opts := DefaultOptions()
	opts.EnableDictionary = true
	opts.DictPageSize = 4
	enc, err := NewEncoder(opts)
	require.NoError(t, err)

	col := buffer(t, schema.Field{Name: "s", Type: schema.TypeString},
		columnar.StringValue("long-value"), columnar.StringValue("long-value"),
		columnar.StringValue("long-value"))
	block, err := enc.Encode(col)
	require.NoError(t, err)
	assert.Equal(t, Plain, block.Encoding)
	assert.Equal(t, int64(1), block.Stats.DistinctCount)
}

func TestEncode_UncompressedSizeIsPlainSize(t *testing.T) {
	enc := newEncoder(t, compression.None, false, 0)
	col := buffer(t, schema.Field{Name: "a", Type: schema.TypeInteger, Nullable: true},
		columnar.IntValue(1), columnar.Null(), columnar.IntValue(3))

	block, err := enc.Encode(col)
	require.NoError(t, err)
	require.Len(t, block.Pages, 1)
	// one bitmap byte plus two int64 values
	assert.Equal(t, int64(1+2*8), block.CompressedLen())
	assert.Equal(t, block.UncompressedLen(), block.CompressedLen())
	assert.Equal(t, []byte{0b101}, block.Pages[0].Data[:1])
}

func TestEncode_PagesHoldAtLeastOneRow(t *testing.T) {
	enc := newEncoder(t, compression.None, false, 1)
	col := buffer(t, schema.Field{Name: "a", Type: schema.TypeInteger},
		columnar.IntValue(1), columnar.IntValue(2), columnar.IntValue(3))
	block := requireRoundTrip(t, enc, col)
	require.Len(t, block.Pages, 3)
	for _, p := range block.Pages {
		assert.Equal(t, 1, p.NumValues)
	}
}

func TestEncode_Statistics(t *testing.T) {
	enc := newEncoder(t, compression.None, true, 0)

	ints := buffer(t, schema.Field{Name: "a", Type: schema.TypeInteger},
		columnar.IntValue(2), columnar.IntValue(1), columnar.IntValue(3))
	block, err := enc.Encode(ints)
	require.NoError(t, err)
	assert.Equal(t, columnar.IntValue(1), block.Stats.Min)
	assert.Equal(t, columnar.IntValue(3), block.Stats.Max)
	assert.Equal(t, int64(0), block.Stats.NullCount)
	assert.Equal(t, int64(3), block.Stats.DistinctCount)

	strs := buffer(t, schema.Field{Name: "b", Type: schema.TypeString, Nullable: true},
		columnar.StringValue("x"), columnar.Null(), columnar.StringValue("y"))
	block, err = enc.Encode(strs)
	require.NoError(t, err)
	assert.Equal(t, columnar.StringValue("x"), block.Stats.Min)
	assert.Equal(t, columnar.StringValue("y"), block.Stats.Max)
	assert.Equal(t, int64(1), block.Stats.NullCount)

	mixed := buffer(t, schema.Field{Name: "m", Type: schema.TypeMixed},
		columnar.MixedValue("[1]"), columnar.MixedValue(`"z"`))
	block, err = enc.Encode(mixed)
	require.NoError(t, err)
	assert.False(t, block.Stats.HasMinMax())
}

func TestStatistics_JSON(t *testing.T) {
	tests := []Statistics{
		{Type: schema.TypeInteger, Min: columnar.IntValue(-4), Max: columnar.IntValue(9), NullCount: 2, DistinctCount: 5},
		{Type: schema.TypeFloat, Min: columnar.FloatValue(2), Max: columnar.FloatValue(2.5), DistinctCount: -1},
		{Type: schema.TypeString, Min: columnar.StringValue("a"), Max: columnar.StringValue("b\n"), DistinctCount: -1},
		{Type: schema.TypeBoolean, Min: columnar.BoolValue(false), Max: columnar.BoolValue(true), DistinctCount: -1},
		{Type: schema.TypeMixed, NullCount: 1, DistinctCount: -1},
	}
	for _, st := range tests {
		data, err := gojson.Marshal(st)
		require.NoError(t, err)
		var back Statistics
		require.NoError(t, gojson.Unmarshal(data, &back), string(data))
		assert.Equal(t, st, back, string(data))
	}
}

func TestStatistics_Merge(t *testing.T) {
	st := Statistics{Type: schema.TypeInteger, Min: columnar.IntValue(1), Max: columnar.IntValue(2), DistinctCount: 2}
	st.Merge(Statistics{Type: schema.TypeInteger, Min: columnar.IntValue(3), Max: columnar.IntValue(3), NullCount: 1})
	assert.Equal(t, columnar.IntValue(1), st.Min)
	assert.Equal(t, columnar.IntValue(3), st.Max)
	assert.Equal(t, int64(1), st.NullCount)
	assert.Equal(t, int64(-1), st.DistinctCount)

	st.Merge(Statistics{Type: schema.TypeInteger, NullCount: 4})
	assert.Equal(t, columnar.IntValue(1), st.Min)
	assert.Equal(t, int64(5), st.NullCount)
}

func TestEncodeAs_FieldMismatch(t *testing.T) {
	enc := newEncoder(t, compression.None, false, 0)
	col := buffer(t, schema.Field{Name: "a", Type: schema.TypeInteger}, columnar.IntValue(1))

	_, err := enc.EncodeAs(schema.Field{Name: "a", Type: schema.TypeString}, col)
	require.Error(t, err)
	assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeEncoding))

	_, err = enc.EncodeAs(col.Field(), col)
	assert.NoError(t, err)
}

func TestDecode_RejectsCorruptPages(t *testing.T) {
	enc := newEncoder(t, compression.None, true, 0)
	col := buffer(t, schema.Field{Name: "s", Type: schema.TypeString},
		columnar.StringValue("x"), columnar.StringValue("x"), columnar.StringValue("x"))
	block, err := enc.Encode(col)
	require.NoError(t, err)
	require.Equal(t, Dictionary, block.Encoding)

	_, err = Decode(block.Field, block.Encoding, block.NumRows+1, block.Pages, enc.Codec())
	assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeEncoding))

	_, err = Decode(block.Field, Plain, block.NumRows, block.Pages, enc.Codec())
	assert.Error(t, err)

	truncated := append([]Page(nil), block.Pages...)
	truncated[1].Data = truncated[1].Data[:1]
	_, err = Decode(block.Field, block.Encoding, block.NumRows, truncated, enc.Codec())
	assert.Error(t, err)
}

func TestDecode_HugeRowCounts(t *testing.T) {
	enc := newEncoder(t, compression.Zstd, false, 0)
	col := buffer(t, schema.Field{Name: "n", Type: schema.TypeInteger, Nullable: true},
		columnar.IntValue(1), columnar.Null())
	block, err := enc.Encode(col)
	require.NoError(t, err)

	const huge = 1 << 62
	pages := append([]Page(nil), block.Pages...)
	pages[len(pages)-1].NumValues = huge
	assert.NotPanics(t, func() {
		_, err = Decode(block.Field, block.Encoding, huge, pages, enc.Codec())
	})
	assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeEncoding), "got %v", err)

	assert.NotPanics(t, func() {
		_, err = Decode(block.Field, block.Encoding, block.NumRows, pages, enc.Codec())
	})
	assert.True(t, colerrors.IsType(err, colerrors.ErrorTypeEncoding), "got %v", err)

	_, _, err = readPlain(nil, schema.TypeNull, huge)
	assert.Error(t, err)
}

func TestOptions_Validate(t *testing.T) {
	opts := DefaultOptions()
	require.NoError(t, opts.Validate())

	bad := []func(o *Options){
		func(o *Options) { o.PageSize = 0 },
		func(o *Options) { o.DictPageSize = -1 },
		func(o *Options) { o.DictionaryRatio = 0 },
		func(o *Options) { o.DictionaryRatio = 1.5 },
	}
	for i, mutate := range bad {
		o := DefaultOptions()
		mutate(&o)
		_, err := NewEncoder(o)
		assert.Error(t, err, "case %d", i)
	}
}

func TestBitPacking(t *testing.T) {
	for width := 0; width <= 32; width++ {
		codes := make([]uint32, 29)
		if width > 0 {
			mask := uint32(1<<uint(width) - 1)
			for i := range codes {
				codes[i] = uint32(i*2654435761) & mask
			}
		}
		packed := packCodes(nil, codes, width)
		assert.Len(t, packed, (len(codes)*width+7)/8)
		back, used, err := unpackCodes(packed, len(codes), width)
		require.NoError(t, err)
		assert.Equal(t, len(packed), used)
		assert.Equal(t, codes, back)
	}
	assert.Equal(t, 0, codeWidth(1))
	assert.Equal(t, 1, codeWidth(2))
	assert.Equal(t, 2, codeWidth(4))
	assert.Equal(t, 3, codeWidth(5))
}
