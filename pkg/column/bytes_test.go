package column

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colbuf/colbuf/pkg/xerrors"
)

func TestBytesAppend(t *testing.T) {
	col, err := New("String")
	require.NoError(t, err)

	require.NoError(t, col.Append("hello"))
	require.NoError(t, col.Append([]byte{0x00, 0xFF}))
	require.NoError(t, col.Append(""))
	assert.Equal(t, 3, col.Len())

	b := col.(*Bytes)
	assert.Equal(t, []byte("hello"), b.At(0))
	assert.Equal(t, []byte{0x00, 0xFF}, b.At(1))
	assert.Empty(t, b.At(2))
}

func TestBytesAppendCopiesCallerBuffer(t *testing.T) {
	col, err := New("String")
	require.NoError(t, err)

	buf := []byte("mutable")
	require.NoError(t, col.Append(buf))
	buf[0] = 'X'

	assert.Equal(t, []byte("mutable"), col.(*Bytes).At(0))
}

func TestBytesAtReturnsOwnedCopy(t *testing.T) {
	col, err := New("String")
	require.NoError(t, err)
	require.NoError(t, col.Append("abc"))

	b := col.(*Bytes)
	got := b.At(0)
	got[0] = 'X'
	assert.Equal(t, []byte("abc"), b.At(0))
}

func TestBytesAppendRejectsNonString(t *testing.T) {
	col, err := New("String")
	require.NoError(t, err)

	err = col.Append(42)
	assert.True(t, xerrors.IsKind(err, xerrors.KindTypeMismatch))
	assert.Equal(t, 0, col.Len())
}

func TestBytesAppendBulk(t *testing.T) {
	col, err := New("String")
	require.NoError(t, err)

	require.NoError(t, col.AppendBulk([]string{"a", "b"}))
	require.NoError(t, col.AppendBulk([][]byte{[]byte("c")}))
	require.NoError(t, col.AppendBulk([]interface{}{"d", []byte("e")}))
	assert.Equal(t, 5, col.Len())

	b := col.(*Bytes)
	for i, want := range []string{"a", "b", "c", "d", "e"} {
		assert.Equal(t, []byte(want), b.At(i))
	}
}

func TestBytesBulkAllOrNothing(t *testing.T) {
	col, err := New("String")
	require.NoError(t, err)
	require.NoError(t, col.Append("kept"))

	err = col.AppendBulk([]interface{}{"ok", 3.14, "unreached"})
	require.Error(t, err)
	assert.True(t, xerrors.IsKind(err, xerrors.KindBulkAppendFailed))

	idx, ok := xerrors.BulkIndex(err)
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, 1, col.Len())
}

func TestBytesDictionarySwitchPreservesValues(t *testing.T) {
	col, err := NewWithOptions("String", Options{DictionaryThreshold: 0.5})
	require.NoError(t, err)

	// 3 distinct values over 150 rows, well under the threshold
	want := make([]string, 150)
	for i := range want {
		want[i] = fmt.Sprintf("value-%d", i%3)
	}
	require.NoError(t, col.AppendBulk(want))

	b := col.(*Bytes)
	assert.True(t, b.dictMode)
	assert.Equal(t, 150, b.Len())
	for i, w := range want {
		assert.Equal(t, []byte(w), b.At(i), i)
	}

	// appends after the switch still round-trip
	require.NoError(t, b.Append("value-0"))
	require.NoError(t, b.Append("fresh"))
	assert.Equal(t, []byte("value-0"), b.At(150))
	assert.Equal(t, []byte("fresh"), b.At(151))
}

func TestBytesHighCardinalityStaysRaw(t *testing.T) {
	col, err := NewWithOptions("String", Options{DictionaryThreshold: 0.5})
	require.NoError(t, err)

	for i := 0; i < 150; i++ {
		require.NoError(t, col.Append(fmt.Sprintf("unique-%d", i)))
	}

	b := col.(*Bytes)
	assert.False(t, b.dictMode)
	assert.Equal(t, []byte("unique-149"), b.At(149))
}

func TestBytesZeroThresholdDisablesDictionary(t *testing.T) {
	col, err := NewWithOptions("String", Options{DictionaryThreshold: 0})
	require.NoError(t, err)

	for i := 0; i < 150; i++ {
		require.NoError(t, col.Append("same"))
	}
	assert.False(t, col.(*Bytes).dictMode)
}

func TestBytesReset(t *testing.T) {
	col, err := NewWithOptions("String", Options{DictionaryThreshold: 0.5})
	require.NoError(t, err)

	for i := 0; i < 120; i++ {
		require.NoError(t, col.Append("dup"))
	}
	require.True(t, col.(*Bytes).dictMode)

	col.Reset()
	assert.Equal(t, 0, col.Len())
	assert.False(t, col.(*Bytes).dictMode)

	require.NoError(t, col.Append("after"))
	assert.Equal(t, []byte("after"), col.(*Bytes).At(0))
}
