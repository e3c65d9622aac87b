// Package ingest builds column blocks from CSV input.
//
// Rows are buffered into per-column typed carriers and flushed with one
// bulk append per column per batch, so column growth and validation cost
// is paid per batch rather than per cell.
package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/colbuf/colbuf/pkg/block"
	"github.com/colbuf/colbuf/pkg/column"
	"github.com/colbuf/colbuf/pkg/metrics"
	"github.com/colbuf/colbuf/pkg/xerrors"
)

// Field is one column of a schema: a name and a column type name.
type Field struct {
	Name string
	Type string
}

// Schema describes the columns of an ingested block.
type Schema []Field

// ParseSchema parses a schema string of the form
// "id:UInt64,name:String,score:Float64".
func ParseSchema(s string) (Schema, error) {
	if strings.TrimSpace(s) == "" {
		return nil, xerrors.New(xerrors.KindConfig, "empty schema")
	}

	parts := strings.Split(s, ",")
	schema := make(Schema, 0, len(parts))
	seen := make(map[string]bool, len(parts))

	for _, part := range parts {
		name, typeName, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok || name == "" || typeName == "" {
			return nil, xerrors.Newf(xerrors.KindConfig, "invalid schema field %q, want name:Type", part)
		}
		if seen[name] {
			return nil, xerrors.Newf(xerrors.KindConfig, "duplicate schema field %q", name)
		}
		seen[name] = true
		schema = append(schema, Field{Name: name, Type: typeName})
	}

	return schema, nil
}

// Ingester reads CSV rows into blocks.
type Ingester struct {
	schema    Schema
	opts      column.Options
	batchSize int
	logger    *zap.Logger
}

// Option configures an Ingester.
type Option func(*Ingester)

// WithBatchSize sets the number of rows buffered per bulk append.
func WithBatchSize(n int) Option {
	return func(ing *Ingester) {
		if n > 0 {
			ing.batchSize = n
		}
	}
}

// WithColumnOptions sets the options for created columns.
func WithColumnOptions(opts column.Options) Option {
	return func(ing *Ingester) {
		ing.opts = opts
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(ing *Ingester) {
		ing.logger = logger
	}
}

// New creates an Ingester for the given schema. The schema's type names
// are validated up front so a bad schema fails before any input is read.
func New(schema Schema, opts ...Option) (*Ingester, error) {
	ing := &Ingester{
		schema:    schema,
		opts:      column.DefaultOptions(),
		batchSize: 10000,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(ing)
	}

	for _, f := range schema {
		if _, err := column.NewWithOptions(f.Type, ing.opts); err != nil {
			return nil, err
		}
	}

	return ing, nil
}

// carrier buffers parsed cell values for one column between flushes.
type carrier struct {
	kind    column.Kind
	uints   []uint64
	ints    []int64
	floats  []float64
	strings []string
}

func newCarrier(kind column.Kind, batchSize int) *carrier {
	c := &carrier{kind: kind}
	switch {
	case kind == column.KindString:
		c.strings = make([]string, 0, batchSize)
	case kind.IsFloat():
		c.floats = make([]float64, 0, batchSize)
	case kind.IsSigned():
		c.ints = make([]int64, 0, batchSize)
	default:
		c.uints = make([]uint64, 0, batchSize)
	}
	return c
}

func (c *carrier) parse(cell string, row int) error {
	switch {
	case c.kind == column.KindString:
		// CSV reader reuses the record buffer, cells must be copied
		c.strings = append(c.strings, strings.Clone(cell))
	case c.kind.IsFloat():
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return badCell(err, c.kind, cell, row)
		}
		c.floats = append(c.floats, v)
	case c.kind.IsSigned():
		v, err := strconv.ParseInt(cell, 10, 64)
		if err != nil {
			return badCell(err, c.kind, cell, row)
		}
		c.ints = append(c.ints, v)
	default:
		v, err := strconv.ParseUint(cell, 10, 64)
		if err != nil {
			return badCell(err, c.kind, cell, row)
		}
		c.uints = append(c.uints, v)
	}
	return nil
}

func (c *carrier) len() int {
	switch {
	case c.kind == column.KindString:
		return len(c.strings)
	case c.kind.IsFloat():
		return len(c.floats)
	case c.kind.IsSigned():
		return len(c.ints)
	default:
		return len(c.uints)
	}
}

func (c *carrier) flush(col column.Column) error {
	var err error
	switch {
	case c.kind == column.KindString:
		err = col.AppendBulk(c.strings)
		c.strings = c.strings[:0]
	case c.kind.IsFloat():
		err = col.AppendBulk(c.floats)
		c.floats = c.floats[:0]
	case c.kind.IsSigned():
		err = col.AppendBulk(c.ints)
		c.ints = c.ints[:0]
	default:
		err = col.AppendBulk(c.uints)
		c.uints = c.uints[:0]
	}
	return err
}

func badCell(err error, kind column.Kind, cell string, row int) error {
	return xerrors.Wrap(err, xerrors.KindTypeMismatch, "cannot parse cell").
		WithDetail("kind", kind.String()).
		WithDetail("cell", cell).
		WithDetail("row", row)
}

// ReadCSV reads all CSV rows from r into one block. A header row is
// expected and must match the schema's field names in order. The context
// is checked between batches.
func (ing *Ingester) ReadCSV(ctx context.Context, r io.Reader) (*block.Block, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(ing.schema)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, xerrors.New(xerrors.KindConfig, "empty input, expected header row")
	}
	if err != nil {
		return nil, xerrors.Wrap(err, xerrors.KindConfig, "cannot read header row")
	}
	for i, f := range ing.schema {
		if header[i] != f.Name {
			return nil, xerrors.Newf(xerrors.KindConfig, "header column %d is %q, schema says %q", i, header[i], f.Name)
		}
	}

	b := block.New()
	cols := make([]column.Column, len(ing.schema))
	carriers := make([]*carrier, len(ing.schema))
	for i, f := range ing.schema {
		col, err := column.NewWithOptions(f.Type, ing.opts)
		if err != nil {
			return nil, err
		}
		if err := b.AppendColumn(f.Name, col); err != nil {
			return nil, err
		}
		cols[i] = col
		carriers[i] = newCarrier(col.Kind(), ing.batchSize)
	}

	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, xerrors.Wrap(err, xerrors.KindConfig, "cannot read CSV row").
				WithDetail("row", row)
		}

		for i, cell := range record {
			if err := carriers[i].parse(cell, row); err != nil {
				return nil, err
			}
		}
		row++

		if carriers[0].len() >= ing.batchSize {
			if err := ing.flush(cols, carriers); err != nil {
				return nil, err
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}

	if carriers[0].len() > 0 {
		if err := ing.flush(cols, carriers); err != nil {
			return nil, err
		}
	}

	ing.logger.Debug("ingested block",
		zap.Int("columns", b.ColumnCount()),
		zap.Int("rows", b.RowCount()))
	return b, nil
}

func (ing *Ingester) flush(cols []column.Column, carriers []*carrier) error {
	for i, col := range cols {
		n := carriers[i].len()
		if err := carriers[i].flush(col); err != nil {
			return err
		}
		kind := col.Kind().String()
		metrics.ValuesAppended.WithLabelValues(kind).Add(float64(n))
		metrics.BulkBatches.WithLabelValues(kind).Inc()
	}
	return nil
}
