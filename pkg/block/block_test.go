package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colbuf/colbuf/pkg/column"
	"github.com/colbuf/colbuf/pkg/xerrors"
)

func TestBlockAppendColumn(t *testing.T) {
	b := New()
	assert.Equal(t, 0, b.ColumnCount())
	assert.Equal(t, 0, b.RowCount())

	ids, err := column.New("UInt64")
	require.NoError(t, err)
	require.NoError(t, ids.AppendBulk([]uint64{1, 2, 3}))
	require.NoError(t, b.AppendColumn("id", ids))

	names, err := column.New("String")
	require.NoError(t, err)
	require.NoError(t, names.AppendBulk([]string{"a", "b", "c"}))
	require.NoError(t, b.AppendColumn("name", names))

	assert.Equal(t, 2, b.ColumnCount())
	assert.Equal(t, 3, b.RowCount())
	assert.Equal(t, "id", b.Name(0))
	assert.Equal(t, "name", b.Name(1))
	assert.Same(t, ids, b.Column(0))

	got, ok := b.ColumnByName("name")
	require.True(t, ok)
	assert.Same(t, names, got)

	_, ok = b.ColumnByName("missing")
	assert.False(t, ok)
}

func TestBlockDuplicateColumnName(t *testing.T) {
	b := New()

	first, err := column.New("UInt8")
	require.NoError(t, err)
	require.NoError(t, b.AppendColumn("x", first))

	second, err := column.New("UInt8")
	require.NoError(t, err)
	err = b.AppendColumn("x", second)
	assert.True(t, xerrors.IsKind(err, xerrors.KindConfig))
	assert.Equal(t, 1, b.ColumnCount())
}

func TestBlockReset(t *testing.T) {
	b := New()
	col, err := column.New("Int32")
	require.NoError(t, err)
	require.NoError(t, col.AppendBulk([]int64{1, 2}))
	require.NoError(t, b.AppendColumn("v", col))

	b.Reset()
	assert.Equal(t, 0, b.RowCount())
	assert.Equal(t, 1, b.ColumnCount())
}
