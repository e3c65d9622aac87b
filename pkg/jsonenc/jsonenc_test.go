package jsonenc

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colbuf/colbuf/pkg/block"
	"github.com/colbuf/colbuf/pkg/column"
	"github.com/colbuf/colbuf/pkg/materialize"
)

func TestMarshalRowRendersBytesAsStrings(t *testing.T) {
	row := materialize.Row{
		"id":   uint64(7),
		"name": []byte("alice"),
	}

	data, err := MarshalRow(row)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, Unmarshal(data, &got))
	assert.Equal(t, "alice", got["name"])
	assert.Equal(t, float64(7), got["id"])
}

func TestMarshalRows(t *testing.T) {
	rows := []materialize.Row{
		{"id": uint64(1)},
		{"id": uint64(2)},
	}

	data, err := MarshalRows(rows)
	require.NoError(t, err)

	var got []map[string]interface{}
	require.NoError(t, Unmarshal(data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, float64(1), got[0]["id"])
	assert.Equal(t, float64(2), got[1]["id"])
}

func TestMarshalRowsEmpty(t *testing.T) {
	data, err := MarshalRows(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestRowWriterStreamsNDJSON(t *testing.T) {
	ids, err := column.New("UInt64")
	require.NoError(t, err)
	require.NoError(t, ids.AppendBulk([]uint64{1, 2, 3}))
	names, err := column.New("String")
	require.NoError(t, err)
	require.NoError(t, names.AppendBulk([]string{"a", "b", "c"}))

	b := block.New()
	require.NoError(t, b.AppendColumn("id", ids))
	require.NoError(t, b.AppendColumn("name", names))

	var buf bytes.Buffer
	m := materialize.New(materialize.WithPooledRows())
	require.NoError(t, m.Stream(b, NewRowWriter(&buf)))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)

	for i, line := range lines {
		var got map[string]interface{}
		require.NoError(t, Unmarshal([]byte(line), &got))
		assert.Equal(t, float64(i+1), got["id"])
		assert.Equal(t, string(rune('a'+i)), got["name"])
	}
}

func TestBufferPool(t *testing.T) {
	buf := GetBuffer()
	buf.WriteString("x")
	PutBuffer(buf)

	buf = GetBuffer()
	assert.Equal(t, 0, buf.Len())
	PutBuffer(buf)
}
