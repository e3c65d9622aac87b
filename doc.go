// Package colbuf provides typed column buffers and a column-to-row
// materializer for columnar result sets.
//
// Data lives in strongly typed, append-only columns identified by a closed
// set of scalar kinds (unsigned and signed integers, floats, strings,
// dates and date-times). Columns are grouped into named blocks, blocks are
// serialized as compressed frames, and frames are materialized back into
// row-major records keyed by column name.
//
// # Quick Start
//
// Build a block and materialize it:
//
//	import (
//	    "github.com/colbuf/colbuf/pkg/block"
//	    "github.com/colbuf/colbuf/pkg/column"
//	    "github.com/colbuf/colbuf/pkg/materialize"
//	)
//
//	ids, _ := column.New("UInt64")
//	_ = ids.AppendBulk([]uint64{1, 2, 3})
//
//	names, _ := column.New("String")
//	_ = names.AppendBulk([]string{"a", "b", "c"})
//
//	b := block.New()
//	_ = b.AppendColumn("id", ids)
//	_ = b.AppendColumn("name", names)
//
//	rows, err := materialize.New().MaterializeBlock(b)
//
// # Key Packages
//
//	pkg/column      - Typed append-only columns and the type-name factory
//	pkg/block       - Named column groups and the compressed frame codec
//	pkg/materialize - Column-major to row-major conversion
//	pkg/compression - Pluggable frame compression (gzip, snappy, lz4, zstd, s2)
//	pkg/jsonenc     - JSON rendering of materialized rows
//	pkg/config      - YAML configuration with environment substitution
//	pkg/xerrors     - Structured errors with kinds and stack capture
//	pkg/logger      - Structured logging
//	pkg/metrics     - Prometheus metrics
//
// # Error Handling
//
// Failures carry an xerrors.Kind. Appends reject unconvertible values with
// TypeMismatch; bulk appends are all-or-nothing and report the failing
// element index under BulkAppendFailed; the materializer aborts whole
// blocks on RowCountMismatch or UnsupportedColumnType rather than emit
// partial rows.
//
// Environment variables are supported in configuration files with
// ${VAR_NAME} syntax.
package colbuf
