package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestReaderAt(t *testing.T) {
	r, err := Open(writeTemp(t, []byte("hello, mapped world")))
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, int64(19), r.Len())

	buf := make([]byte, 6)
	n, err := r.ReadAt(buf, 7)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, "mapped", string(buf))

	n, err = r.ReadAt(buf, 16)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, "rld", string(buf[:n]))

	_, err = r.ReadAt(buf, 19)
	assert.Equal(t, io.EOF, err)

	_, err = r.ReadAt(buf, -1)
	assert.Error(t, err)
}

func TestReaderAt_EmptyFile(t *testing.T) {
	r, err := Open(writeTemp(t, nil))
	require.NoError(t, err)
	assert.Zero(t, r.Len())

	_, err = r.ReadAt(make([]byte, 1), 0)
	assert.Equal(t, io.EOF, err)
	assert.NoError(t, r.Close())
}

func TestReaderAt_Close(t *testing.T) {
	r, err := Open(writeTemp(t, []byte("abc")))
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	_, err = r.ReadAt(make([]byte, 1), 0)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"))
	assert.True(t, os.IsNotExist(err))
}
