// Package columnar holds decoded rows in column-major buffers and batches
// them into row groups.
//
// # Overview
//
// A ColumnBuffer stores the values of one field as a typed slice plus a
// validity bitmap. Null rows still occupy a slot in the typed slice, so the
// i-th value of every buffer in a RowGroup belongs to the i-th row:
//
//	len(values) == validity.Len() == RowGroup.NumRows()
//
// The Builder appends decoded rows to the buffers of the active RowGroup
// and hands out a completed group once it holds block-size rows:
//
//	b, err := columnar.NewBuilder(s, 128)
//	for _, row := range rows {
//	    rg, err := b.Append(row)
//	    if err != nil {
//	        return err
//	    }
//	    if rg != nil {
//	        encode(rg)
//	    }
//	}
//	if rg := b.Flush(); rg != nil {
//	    encode(rg)
//	}
//
// Nothing in this package performs I/O.
package columnar
