package testutil

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinesAndArray(t *testing.T) {
	rec := func(i int) string { return `{"n":` + string(rune('0'+i)) + `}` }
	assert.Equal(t, "{\"n\":0}\n{\"n\":1}\n", Lines(2, rec))
	assert.Equal(t, `[{"n":0},{"n":1}]`, Array(2, rec))
	assert.Equal(t, "[]", Array(0, rec))
}

func TestEvent(t *testing.T) {
	assert.Equal(t, `{"id":2,"city":"pune","score":0.5,"ok":true}`, Event(2))
}

func TestWriteFile(t *testing.T) {
	path := WriteFile(t, "in.json", []byte("{}"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
	assert.True(t, strings.HasSuffix(path, "in.json"))
}

func TestContextIsBounded(t *testing.T) {
	ctx := TestContext(t)
	_, ok := ctx.Deadline()
	assert.True(t, ok)
	TestLogger(t).Debug("not shown")
}
