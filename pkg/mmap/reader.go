// Package mmap provides read-only memory-mapped files.
//
// A mapped file is exposed as an io.ReaderAt so that readers needing random
// access, such as the columnar file reader, avoid a system call per read.
// Platforms without mmap support fall back to reading the file into memory.
package mmap

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"
)

// ErrClosed is returned by reads after Close.
var ErrClosed = errors.New("mmap: reader is closed")

// ReaderAt reads from a memory-mapped file. It is safe for concurrent use.
type ReaderAt struct {
	mu     sync.RWMutex
	data   []byte
	unmap  func([]byte) error
	closed bool
}

// Open maps the file at path.
func Open(path string) (*ReaderAt, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the caller
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	size := info.Size()
	if size > math.MaxInt {
		return nil, fmt.Errorf("file of %d bytes is too large to map", size)
	}

	r := &ReaderAt{unmap: func([]byte) error { return nil }}
	if size == 0 {
		return r, nil
	}
	data, unmap, err := mapFile(f, int(size))
	if err != nil {
		return nil, fmt.Errorf("failed to mmap file: %w", err)
	}
	r.data = data
	r.unmap = unmap
	return r, nil
}

// Mapped reports whether files are memory mapped on this platform.
func Mapped() bool {
	return mapped
}

// Len returns the size of the file.
func (r *ReaderAt) Len() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.data))
}

// ReadAt implements io.ReaderAt.
func (r *ReaderAt) ReadAt(p []byte, off int64) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, fmt.Errorf("mmap: negative offset %d", off)
	}
	if off >= int64(len(r.data)) {
		return 0, io.EOF
	}
	n := copy(p, r.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Close unmaps the file. Further reads fail with ErrClosed.
func (r *ReaderAt) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	data := r.data
	r.data = nil
	if data == nil {
		return nil
	}
	return r.unmap(data)
}
