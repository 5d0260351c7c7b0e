package json

import (
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferPool(t *testing.T) {
	buf := GetBuffer()
	buf.WriteString("stale")
	PutBuffer(buf)

	again := GetBuffer()
	assert.Equal(t, 0, again.Len())
	PutBuffer(again)
}

func TestNewEncoder_KeepsHTML(t *testing.T) {
	buf := GetBuffer()
	defer PutBuffer(buf)
	require.NoError(t, NewEncoder(buf).Encode(map[string]string{"q": "a<b"}))
	assert.Equal(t, "{\"q\":\"a<b\"}\n", buf.String())
}

func TestUnmarshal_KeepsNumbers(t *testing.T) {
	var v map[string]interface{}
	require.NoError(t, Unmarshal([]byte(`{"n":12345678901234567890,"f":1.5}`), &v))
	assert.Equal(t, gojson.Number("12345678901234567890"), v["n"])
	assert.Equal(t, gojson.Number("1.5"), v["f"])
}

func TestAppendObject(t *testing.T) {
	out, err := AppendObject([]byte("x"), []string{"b", "a"}, []interface{}{nil, gojson.RawMessage(`[1]`)})
	require.NoError(t, err)
	assert.Equal(t, `x{"b":null,"a":[1]}`, string(out))
}

func TestValid(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{`{"a":1}`, true},
		{` {"a":[1e400,-0.5E+2]} `, true},
		{`"text"`, true},
		{`{"a":1} {"b":2}`, false},
		{`{"a":1} ,`, false},
		{`{"a":1}]`, false},
		{`{"a":}`, false},
		{`{"a":01}`, false},
		{`{"a":1.}`, false},
		{``, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid([]byte(tt.input)))
		})
	}
}

func TestIsNumber(t *testing.T) {
	for _, s := range []string{"0", "-0", "12", "1.5", "1e400", "2E-3", "-9.75e+10"} {
		assert.True(t, IsNumber(s), s)
	}
	for _, s := range []string{"", "-", "01", "+1", "1.", ".5", "1e", "1.2.3", "0x10", "Inf", "NaN"} {
		assert.False(t, IsNumber(s), s)
	}
}
