package colerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_StackCapture(t *testing.T) {
	t.Run("structural errors carry a stack", func(t *testing.T) {
		err := New(ErrorTypeEncoding, "column type drifted")
		require.NotEmpty(t, err.Stack)
		assert.Contains(t, err.Stack[0].Function, "TestNew_StackCapture")
	})

	t.Run("per-record errors skip the stack", func(t *testing.T) {
		err := New(ErrorTypeTypeMismatch, "object where integer expected")
		assert.Empty(t, err.Stack)
	})
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeIO, "nothing"))

	inner := New(ErrorTypeEncoding, "bad dictionary")
	outer := Wrap(inner, ErrorTypeIO, "flush failed")
	assert.Equal(t, inner.Stack, outer.Stack)
	assert.True(t, errors.Is(outer, inner))
	assert.True(t, IsType(outer, ErrorTypeIO))

	plain := fmt.Errorf("disk full")
	wrapped := Wrap(plain, ErrorTypeIO, "write")
	assert.ErrorIs(t, wrapped, plain)
}

func TestIsRecoverable(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    bool
	}{
		{ErrorTypeParse, true},
		{ErrorTypeMissingField, true},
		{ErrorTypeTypeMismatch, true},
		{ErrorTypeSchemaInference, false},
		{ErrorTypeEncoding, false},
		{ErrorTypeIO, false},
		{ErrorTypeConfig, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.errType), func(t *testing.T) {
			assert.Equal(t, tt.want, IsRecoverable(New(tt.errType, "x")))
		})
	}
	assert.False(t, IsRecoverable(errors.New("plain")))
}

func TestWithDetail(t *testing.T) {
	err := New(ErrorTypeParse, "bad line").WithDetail("line", 12)
	v, ok := err.Detail("line")
	require.True(t, ok)
	assert.Equal(t, 12, v)

	_, ok = err.Detail("missing")
	assert.False(t, ok)
}
