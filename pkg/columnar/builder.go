package columnar

import (
	"fmt"

	"github.com/ajitpratap0/jsoncol/pkg/schema"
)

// Builder accumulates rows into row groups of at most blockSize rows.
// It is not safe for concurrent use.
type Builder struct {
	schema    *schema.Schema
	blockSize int
	current   *RowGroup
	emitted   int
}

// NewBuilder creates a builder. blockSize must be positive.
func NewBuilder(s *schema.Schema, blockSize int) (*Builder, error) {
	if blockSize < 1 {
		return nil, fmt.Errorf("block size must be positive, got %d", blockSize)
	}
	return &Builder{schema: s, blockSize: blockSize}, nil
}

// Append adds a row to the active group. When the group reaches the block
// size it is returned and a new one is started on the next call.
func (b *Builder) Append(row Row) (*RowGroup, error) {
	if b.current == nil {
		b.current = NewRowGroup(b.schema, b.emitted, b.blockSize)
	}
	if err := b.current.Append(row); err != nil {
		return nil, err
	}
	if b.current.NumRows() < b.blockSize {
		return nil, nil
	}
	return b.take(), nil
}

// Flush returns the active, possibly short, group or nil when no rows are
// pending.
func (b *Builder) Flush() *RowGroup {
	if b.current == nil || b.current.NumRows() == 0 {
		return nil
	}
	return b.take()
}

// Pending returns the number of rows in the active group.
func (b *Builder) Pending() int {
	if b.current == nil {
		return 0
	}
	return b.current.NumRows()
}

// Emitted returns the number of groups handed out so far.
func (b *Builder) Emitted() int {
	return b.emitted
}

func (b *Builder) take() *RowGroup {
	rg := b.current
	b.current = nil
	b.emitted++
	return rg
}
