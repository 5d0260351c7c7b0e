package compression

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressors_RoundTrip(t *testing.T) {
	original := bytes.Repeat([]byte("column page payload with repetitive content content content. "), 64)

	for _, alg := range []Algorithm{None, Gzip, Snappy, LZ4, Zstd, S2, Deflate, Brotli} {
		for _, level := range []Level{Fastest, Default, Best} {
			alg, level := alg, level
			t.Run(string(alg), func(t *testing.T) {
				comp, err := NewCompressor(&Config{Algorithm: alg, Level: level})
				require.NoError(t, err)
				assert.Equal(t, alg, comp.Algorithm())
				assert.Equal(t, level, comp.Level())

				compressed, err := comp.Compress(original)
				require.NoError(t, err)
				if alg != None {
					assert.Less(t, len(compressed), len(original))
				}

				decompressed, err := comp.Decompress(compressed)
				require.NoError(t, err)
				assert.Equal(t, original, decompressed)
			})
		}
	}
}

func TestNoneCompressor_IsIdentity(t *testing.T) {
	comp, err := NewCompressor(nil)
	require.NoError(t, err)
	assert.Equal(t, None, comp.Algorithm())

	data := []byte{0x01, 0x02, 0x03}
	out, err := comp.Compress(data)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name    string
		want    Config
		wantErr bool
	}{
		{name: "", want: Config{Algorithm: None, Level: Default}},
		{name: "UNCOMPRESSED", want: Config{Algorithm: None, Level: Default}},
		{name: "Snappy", want: Config{Algorithm: Snappy, Level: Default}},
		{name: "zstd", want: Config{Algorithm: Zstd, Level: Default}},
		{name: "brotli", want: Config{Algorithm: Brotli, Level: Default}},
		{name: "fast", want: Config{Algorithm: Snappy, Level: Fastest}},
		{name: "balanced", want: Config{Algorithm: Gzip, Level: Default}},
		{name: "high-ratio", want: Config{Algorithm: Zstd, Level: Best}},
		{name: "lzo", wantErr: true},
		{name: "rar", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseConfig(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *cfg)
		})
	}
}

func TestNewCompressor_Unsupported(t *testing.T) {
	_, err := NewCompressor(&Config{Algorithm: "lzo"})
	assert.Error(t, err)
}
