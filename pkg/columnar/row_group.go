package columnar

import (
	"fmt"

	"github.com/ajitpratap0/jsoncol/pkg/colerrors"
	"github.com/ajitpratap0/jsoncol/pkg/schema"
)

// RowGroup is a batch of rows stored column by column.
type RowGroup struct {
	// Index is the 0-based position of the group in the file.
	Index   int
	Schema  *schema.Schema
	Columns []*ColumnBuffer

	rows int
}

// NewRowGroup creates an empty group with one buffer per schema field.
func NewRowGroup(s *schema.Schema, index, capacity int) *RowGroup {
	rg := &RowGroup{
		Index:   index,
		Schema:  s,
		Columns: make([]*ColumnBuffer, s.Len()),
	}
	for i := range rg.Columns {
		rg.Columns[i] = NewColumnBuffer(s.Field(i), capacity)
	}
	return rg
}

// AssembleRowGroup wraps already filled buffers, as produced by a reader,
// into a group of numRows rows.
func AssembleRowGroup(s *schema.Schema, index int, cols []*ColumnBuffer, numRows int) (*RowGroup, error) {
	rg := &RowGroup{Index: index, Schema: s, Columns: cols, rows: numRows}
	if len(cols) != s.Len() {
		return nil, fmt.Errorf("row group has %d columns, schema has %d fields", len(cols), s.Len())
	}
	if err := rg.Validate(); err != nil {
		return nil, err
	}
	return rg, nil
}

// NumRows returns the number of rows in the group.
func (rg *RowGroup) NumRows() int {
	return rg.rows
}

// Append adds one row. Either every column receives its value or, on error,
// none does.
func (rg *RowGroup) Append(row Row) error {
	if len(row) != len(rg.Columns) {
		return colerrors.Newf(colerrors.ErrorTypeEncoding,
			"row has %d values, schema has %d fields", len(row), len(rg.Columns))
	}
	for i, col := range rg.Columns {
		if err := col.Check(row[i]); err != nil {
			return err
		}
	}
	for i, col := range rg.Columns {
		col.appendUnchecked(row[i])
	}
	rg.rows++
	return nil
}

// Row reconstructs row i.
func (rg *RowGroup) Row(i int) Row {
	row := make(Row, len(rg.Columns))
	for c, col := range rg.Columns {
		row[c] = col.Value(i)
	}
	return row
}

// Validate checks the positional alignment of all buffers.
func (rg *RowGroup) Validate() error {
	n := rg.NumRows()
	for _, col := range rg.Columns {
		if col.Len() != n || col.validity.Len() != n {
			return fmt.Errorf("column %q has %d rows, row group has %d", col.field.Name, col.Len(), n)
		}
	}
	return nil
}
