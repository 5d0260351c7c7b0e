//go:build !linux && !darwin

package mmap

import (
	"io"
	"os"
)

const mapped = false

// mapFile reads the whole file where memory mapping is not available.
func mapFile(f *os.File, size int) ([]byte, func([]byte) error, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, nil, err
	}
	return data, func([]byte) error { return nil }, nil
}
