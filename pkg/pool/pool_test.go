package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolGetPut(t *testing.T) {
	p := New(
		func() []int { return make([]int, 0, 8) },
		func(s []int) {},
	)

	s := p.Get()
	assert.NotNil(t, s)
	p.Put(s)

	allocated, gets := p.Stats()
	assert.Equal(t, int64(1), allocated)
	assert.Equal(t, int64(1), gets)
}

func TestPoolResetRuns(t *testing.T) {
	resets := 0
	p := New(
		func() *int { v := 0; return &v },
		func(v *int) { resets++; *v = 0 },
	)

	v := p.Get()
	*v = 42
	p.Put(v)
	assert.Equal(t, 1, resets)
}

func TestRowPoolClearsRows(t *testing.T) {
	row := GetRow()
	require.NotNil(t, row)
	row["id"] = uint64(1)
	row["name"] = []byte("x")
	PutRow(row)

	got := GetRow()
	assert.Empty(t, got)
	PutRow(got)
}

func TestPutRowNil(t *testing.T) {
	PutRow(nil) // must not panic
}
