// Package block groups named typed columns into row-count-consistent
// blocks, the unit of columnar transfer to and from the backing store.
package block

import (
	"github.com/colbuf/colbuf/pkg/column"
	"github.com/colbuf/colbuf/pkg/xerrors"
)

// Block is an ordered collection of named columns. Column order is
// positional and preserved through encoding and materialization; names are
// unique within a block.
//
// The producer (the wire decoder or the ingesting caller) establishes the
// equal-row-count invariant across columns; Block does not enforce it at
// construction. The materializer surfaces a RowCountMismatch error if the
// invariant is violated, rather than producing short rows.
//
// A Block handed to the materializer is treated as immutable.
type Block struct {
	names  []string
	cols   []column.Column
	byName map[string]int
}

// New creates an empty block.
func New() *Block {
	return &Block{
		byName: make(map[string]int),
	}
}

// AppendColumn adds a named column at the next position. Duplicate names
// fail with kind Config and leave the block unchanged.
func (b *Block) AppendColumn(name string, col column.Column) error {
	if _, exists := b.byName[name]; exists {
		return xerrors.Newf(xerrors.KindConfig, "duplicate column name %q", name).
			WithDetail("column", name)
	}
	b.byName[name] = len(b.cols)
	b.names = append(b.names, name)
	b.cols = append(b.cols, col)
	return nil
}

// ColumnCount returns the number of columns.
func (b *Block) ColumnCount() int {
	return len(b.cols)
}

// RowCount returns the row count established by the producer: the length
// of the first column, or zero for an empty block.
func (b *Block) RowCount() int {
	if len(b.cols) == 0 {
		return 0
	}
	return b.cols[0].Len()
}

// Name returns the name of the column at position i.
func (b *Block) Name(i int) string {
	return b.names[i]
}

// Column returns the column at position i.
func (b *Block) Column(i int) column.Column {
	return b.cols[i]
}

// ColumnByName looks a column up by name.
func (b *Block) ColumnByName(name string) (column.Column, bool) {
	i, ok := b.byName[name]
	if !ok {
		return nil, false
	}
	return b.cols[i], true
}

// MemoryUsage returns the approximate heap bytes held by the block's
// columns.
func (b *Block) MemoryUsage() int64 {
	var total int64
	for i, col := range b.cols {
		total += int64(len(b.names[i]))
		total += col.MemoryUsage()
	}
	return total
}

// Reset clears every column for reuse, keeping the schema and column
// capacity.
func (b *Block) Reset() {
	for _, col := range b.cols {
		col.Reset()
	}
}
