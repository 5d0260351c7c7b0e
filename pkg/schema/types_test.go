package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWiden(t *testing.T) {
	all := []LogicalType{TypeNull, TypeBoolean, TypeInteger, TypeFloat, TypeString, TypeMixed}

	tests := []struct {
		a, b LogicalType
		want LogicalType
	}{
		{TypeInteger, TypeInteger, TypeInteger},
		{TypeNull, TypeString, TypeString},
		{TypeBoolean, TypeNull, TypeBoolean},
		{TypeInteger, TypeFloat, TypeFloat},
		{TypeFloat, TypeInteger, TypeFloat},
		{TypeInteger, TypeString, TypeMixed},
		{TypeBoolean, TypeInteger, TypeMixed},
		{TypeMixed, TypeNull, TypeMixed},
		{TypeString, TypeMixed, TypeMixed},
	}
	for _, tt := range tests {
		t.Run(tt.a.String()+"+"+tt.b.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Widen(tt.a, tt.b))
		})
	}

	t.Run("commutative", func(t *testing.T) {
		for _, a := range all {
			for _, b := range all {
				assert.Equal(t, Widen(a, b), Widen(b, a), "%s/%s", a, b)
			}
		}
	})

	t.Run("associative", func(t *testing.T) {
		for _, a := range all {
			for _, b := range all {
				for _, c := range all {
					assert.Equal(t, Widen(Widen(a, b), c), Widen(a, Widen(b, c)), "%s/%s/%s", a, b, c)
				}
			}
		}
	})
}

func TestObserve(t *testing.T) {
	assert.Equal(t, TypeNull, Observe(nil))
	assert.Equal(t, TypeBoolean, Observe(true))
	assert.Equal(t, TypeInteger, Observe(json.Number("-42")))
	assert.Equal(t, TypeFloat, Observe(json.Number("4.2")))
	assert.Equal(t, TypeFloat, Observe(json.Number("1e3")))
	assert.Equal(t, TypeMixed, Observe(json.Number("1e400")))
	// beyond int64
	assert.Equal(t, TypeFloat, Observe(json.Number("18446744073709551616")))
	assert.Equal(t, TypeString, Observe("x"))
	assert.Equal(t, TypeMixed, Observe([]interface{}{1}))
	assert.Equal(t, TypeMixed, Observe(map[string]interface{}{}))
}

func TestLogicalType_Text(t *testing.T) {
	for _, lt := range []LogicalType{TypeNull, TypeBoolean, TypeInteger, TypeFloat, TypeString, TypeMixed} {
		text, err := lt.MarshalText()
		require.NoError(t, err)
		var back LogicalType
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, lt, back)
	}
	_, err := LogicalType(99).MarshalText()
	assert.Error(t, err)
	assert.Error(t, new(LogicalType).UnmarshalText([]byte("decimal")))
}

func TestNew_RejectsDuplicates(t *testing.T) {
	_, err := New([]Field{{Name: "a", Type: TypeInteger}, {Name: "a", Type: TypeString}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestSchema_JSON(t *testing.T) {
	s := MustNew(
		Field{Name: "a", Type: TypeInteger},
		Field{Name: "b", Type: TypeString, Nullable: true},
	)
	assert.Equal(t, "{a: integer not null, b: string nullable}", s.String())

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"fields":[{"name":"a","type":"integer","nullable":false},{"name":"b","type":"string","nullable":true}]}`, string(data))

	var back Schema
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, s.Equal(&back))
	i, ok := back.Index("b")
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	assert.Contains(t, s.Pretty(), "\n  \"fields\"")
}
