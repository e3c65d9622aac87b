package materialize

import (
	"github.com/colbuf/colbuf/pkg/pool"
)

// Row is one reconstructed row: a mapping from column name to a scalar
// value. Values are owned copies; a Row never aliases block storage, so
// blocks may be reset or released immediately after materialization.
//
// Value representations by column kind: unsigned integer kinds (including
// the raw Date day count and DateTime seconds) carry uint64; signed
// integer kinds carry int64; float kinds carry float64 (Float32 widened
// without added precision); String carries []byte.
type Row map[string]interface{}

// Release returns a pooled row to the row pool. Rows produced by the
// streaming path with pooling enabled should be released by the sink once
// consumed; releasing a non-pooled row is harmless.
func (r Row) Release() {
	pool.PutRow(r)
}

// RowSink receives rows as they are produced, enabling streaming
// consumption without materializing a whole result in memory. WriteRow
// takes ownership of the row.
type RowSink interface {
	WriteRow(row Row) error
}

// SinkFunc adapts a function to the RowSink interface.
type SinkFunc func(row Row) error

// WriteRow implements RowSink.
func (f SinkFunc) WriteRow(row Row) error {
	return f(row)
}
