// Package testutil provides testing utilities for jsoncol
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// TestLogger creates a test logger that writes to the test output.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))
}

// TestContext creates a test context with a 30-second timeout that is
// cancelled when the test completes.
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// WriteFile writes content to name inside a fresh temporary directory and
// returns its path.
func WriteFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// Lines builds newline-delimited JSON with n records produced by record.
func Lines(n int, record func(i int) string) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteString(record(i))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Array builds a JSON array with n records produced by record.
func Array(n int, record func(i int) string) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(record(i))
	}
	sb.WriteByte(']')
	return sb.String()
}

// Event returns a small record with repeating and unique values, useful for
// exercising both dictionary and plain encodings.
func Event(i int) string {
	cities := []string{"oslo", "lima", "pune"}
	return `{"id":` + strconv.Itoa(i) +
		`,"city":"` + cities[i%len(cities)] +
		`","score":` + strconv.FormatFloat(float64(i)/4, 'f', -1, 64) +
		`,"ok":` + strconv.FormatBool(i%2 == 0) + `}`
}
