package materialize

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colbuf/colbuf/pkg/block"
	"github.com/colbuf/colbuf/pkg/column"
	"github.com/colbuf/colbuf/pkg/xerrors"
)

func mustColumn(t *testing.T, typeName string, values interface{}) column.Column {
	t.Helper()
	col, err := column.New(typeName)
	require.NoError(t, err)
	require.NoError(t, col.AppendBulk(values))
	return col
}

func mustBlock(t *testing.T, cols map[string]column.Column, order []string) *block.Block {
	t.Helper()
	b := block.New()
	for _, name := range order {
		require.NoError(t, b.AppendColumn(name, cols[name]))
	}
	return b
}

func TestMaterializeValueRepresentations(t *testing.T) {
	b := block.New()
	require.NoError(t, b.AppendColumn("u8", mustColumn(t, "UInt8", []uint64{255})))
	require.NoError(t, b.AppendColumn("u64", mustColumn(t, "UInt64", []uint64{1 << 63})))
	require.NoError(t, b.AppendColumn("i8", mustColumn(t, "Int8", []int64{-7})))
	require.NoError(t, b.AppendColumn("i64", mustColumn(t, "Int64", []int64{-(1 << 50)})))
	require.NoError(t, b.AppendColumn("f32", mustColumn(t, "Float32", []float32{1.5})))
	require.NoError(t, b.AppendColumn("f64", mustColumn(t, "Float64", []float64{2.25})))
	require.NoError(t, b.AppendColumn("s", mustColumn(t, "String", []string{"hi"})))
	require.NoError(t, b.AppendColumn("d", mustColumn(t, "Date", []uint64{19000})))
	require.NoError(t, b.AppendColumn("dt", mustColumn(t, "DateTime", []uint64{1700000000})))

	rows, err := New().MaterializeBlock(b)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, uint64(255), row["u8"])
	assert.Equal(t, uint64(1<<63), row["u64"])
	assert.Equal(t, int64(-7), row["i8"])
	assert.Equal(t, int64(-(1 << 50)), row["i64"])
	assert.Equal(t, float64(1.5), row["f32"])
	assert.Equal(t, 2.25, row["f64"])
	assert.Equal(t, []byte("hi"), row["s"])
	assert.Equal(t, uint64(19000), row["d"])
	assert.Equal(t, uint64(1700000000), row["dt"])
}

func TestMaterializeRowOrder(t *testing.T) {
	b := mustBlock(t, map[string]column.Column{
		"id":   mustColumn(t, "UInt64", []uint64{1, 2, 3}),
		"name": mustColumn(t, "String", []string{"a", "b", "c"}),
	}, []string{"id", "name"})

	rows, err := New().MaterializeBlock(b)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	for i, row := range rows {
		assert.Equal(t, uint64(i+1), row["id"])
		assert.Equal(t, []byte{byte('a' + i)}, row["name"])
	}
}

func TestMaterializeFloat32Widening(t *testing.T) {
	b := mustBlock(t, map[string]column.Column{
		"f": mustColumn(t, "Float32", []float32{0.1}),
	}, []string{"f"})

	rows, err := New().MaterializeBlock(b)
	require.NoError(t, err)

	// exactly the float64 value of the float32 bit pattern
	assert.Equal(t, float64(float32(0.1)), rows[0]["f"])
}

func TestMaterializeStringRowsAreOwnedCopies(t *testing.T) {
	col := mustColumn(t, "String", []string{"abc"})
	b := mustBlock(t, map[string]column.Column{"s": col}, []string{"s"})

	rows, err := New().MaterializeBlock(b)
	require.NoError(t, err)

	got := rows[0]["s"].([]byte)
	got[0] = 'X'
	assert.Equal(t, []byte("abc"), col.(*column.Bytes).At(0))
}

func TestMaterializeZeroRowBlock(t *testing.T) {
	b := mustBlock(t, map[string]column.Column{
		"id": mustColumn(t, "UInt64", []uint64{}),
	}, []string{"id"})

	rows, err := New().MaterializeBlock(b)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestMaterializeEmptyBlock(t *testing.T) {
	rows, err := New().MaterializeBlock(block.New())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

// stubColumn satisfies column.Column with an arbitrary kind tag, standing
// in for a caller-provided implementation outside the closed kind set.
type stubColumn struct {
	kind column.Kind
	len  int
}

func (c stubColumn) Kind() column.Kind             { return c.kind }
func (c stubColumn) Len() int                      { return c.len }
func (c stubColumn) Append(interface{}) error      { return nil }
func (c stubColumn) AppendBulk(interface{}) error  { return nil }
func (c stubColumn) Reset()                        {}
func (c stubColumn) MemoryUsage() int64            { return 0 }

func TestMaterializeUnsupportedColumnKind(t *testing.T) {
	b := block.New()
	require.NoError(t, b.AppendColumn("id", mustColumn(t, "UInt64", []uint64{1})))
	require.NoError(t, b.AppendColumn("x", stubColumn{kind: column.Kind(200), len: 1}))

	rows, err := New().MaterializeBlock(b)
	require.Error(t, err)
	assert.True(t, xerrors.IsKind(err, xerrors.KindUnsupportedColumnType))
	assert.Nil(t, rows)

	// streaming sees the same abort before any row reaches the sink
	emitted := 0
	err = New().Stream(b, SinkFunc(func(row Row) error {
		emitted++
		return nil
	}))
	assert.True(t, xerrors.IsKind(err, xerrors.KindUnsupportedColumnType))
	assert.Equal(t, 0, emitted)
}

func TestMaterializeForeignColumnStorage(t *testing.T) {
	// a known kind tag over storage the extractor cannot read is equally
	// unsupported, never a panic
	b := block.New()
	require.NoError(t, b.AppendColumn("u", stubColumn{kind: column.KindUInt8, len: 1}))

	rows, err := New().MaterializeBlock(b)
	require.Error(t, err)
	assert.True(t, xerrors.IsKind(err, xerrors.KindUnsupportedColumnType))
	assert.Nil(t, rows)
}

func TestMaterializeRowCountMismatch(t *testing.T) {
	b := mustBlock(t, map[string]column.Column{
		"id":   mustColumn(t, "UInt64", []uint64{1, 2, 3}),
		"name": mustColumn(t, "String", []string{"a", "b", "c", "d"}),
	}, []string{"id", "name"})

	rows, err := New().MaterializeBlock(b)
	require.Error(t, err)
	assert.True(t, xerrors.IsKind(err, xerrors.KindRowCountMismatch))
	assert.Nil(t, rows)
}

func TestMaterializeAllConcatenatesInArrivalOrder(t *testing.T) {
	first := mustBlock(t, map[string]column.Column{
		"id": mustColumn(t, "UInt64", []uint64{1, 2}),
	}, []string{"id"})
	second := mustBlock(t, map[string]column.Column{
		"id": mustColumn(t, "UInt64", []uint64{3}),
	}, []string{"id"})

	rows, err := New().MaterializeAll([]*block.Block{first, second})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for i, row := range rows {
		assert.Equal(t, uint64(i+1), row["id"])
	}

	// swapped arrival swaps row order
	rows, err = New().MaterializeAll([]*block.Block{second, first})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, uint64(3), rows[0]["id"])
	assert.Equal(t, uint64(1), rows[1]["id"])
	assert.Equal(t, uint64(2), rows[2]["id"])
}

func TestMaterializeAllAbortsOnBadBlock(t *testing.T) {
	good := mustBlock(t, map[string]column.Column{
		"id": mustColumn(t, "UInt64", []uint64{1}),
	}, []string{"id"})
	bad := mustBlock(t, map[string]column.Column{
		"id":   mustColumn(t, "UInt64", []uint64{1}),
		"name": mustColumn(t, "String", []string{"a", "b"}),
	}, []string{"id", "name"})

	rows, err := New().MaterializeAll([]*block.Block{good, bad})
	require.Error(t, err)
	assert.True(t, xerrors.IsKind(err, xerrors.KindRowCountMismatch))
	assert.Nil(t, rows)
}

func TestStream(t *testing.T) {
	b := mustBlock(t, map[string]column.Column{
		"id": mustColumn(t, "UInt64", []uint64{1, 2, 3}),
	}, []string{"id"})

	var got []uint64
	err := New().Stream(b, SinkFunc(func(row Row) error {
		got = append(got, row["id"].(uint64))
		return nil
	}))
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, got)
}

func TestStreamSinkErrorStops(t *testing.T) {
	b := mustBlock(t, map[string]column.Column{
		"id": mustColumn(t, "UInt64", []uint64{1, 2, 3}),
	}, []string{"id"})

	boom := errors.New("sink full")
	seen := 0
	err := New().Stream(b, SinkFunc(func(row Row) error {
		seen++
		if seen == 2 {
			return boom
		}
		return nil
	}))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, seen)
}

func TestStreamPooledRows(t *testing.T) {
	b := mustBlock(t, map[string]column.Column{
		"id": mustColumn(t, "UInt64", []uint64{1, 2}),
	}, []string{"id"})

	var got []uint64
	m := New(WithPooledRows())
	err := m.Stream(b, SinkFunc(func(row Row) error {
		got = append(got, row["id"].(uint64))
		row.Release()
		return nil
	}))
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, got)
}

func TestStreamAllOrder(t *testing.T) {
	first := mustBlock(t, map[string]column.Column{
		"id": mustColumn(t, "UInt64", []uint64{1}),
	}, []string{"id"})
	second := mustBlock(t, map[string]column.Column{
		"id": mustColumn(t, "UInt64", []uint64{2}),
	}, []string{"id"})

	var got []uint64
	err := New().StreamAll([]*block.Block{first, second}, SinkFunc(func(row Row) error {
		got = append(got, row["id"].(uint64))
		return nil
	}))
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2}, got)
}

func BenchmarkMaterializeBlock(b *testing.B) {
	const rows = 10000

	ids := make([]uint64, rows)
	scores := make([]float64, rows)
	names := make([]string, rows)
	for i := 0; i < rows; i++ {
		ids[i] = uint64(i)
		scores[i] = float64(i) * 0.5
		names[i] = "user"
	}

	idCol, _ := column.New("UInt64")
	_ = idCol.AppendBulk(ids)
	scoreCol, _ := column.New("Float64")
	_ = scoreCol.AppendBulk(scores)
	nameCol, _ := column.New("String")
	_ = nameCol.AppendBulk(names)

	blk := block.New()
	_ = blk.AppendColumn("id", idCol)
	_ = blk.AppendColumn("score", scoreCol)
	_ = blk.AppendColumn("name", nameCol)

	m := New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := m.MaterializeBlock(blk); err != nil {
			b.Fatal(err)
		}
	}
}
