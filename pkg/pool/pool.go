// Package pool provides typed object pooling for colbuf. It wraps
// sync.Pool with reset-on-return semantics and usage statistics, and hosts
// the global row pool the materializer's streaming path recycles row maps
// through.
//
//	row := pool.GetRow()
//	defer pool.PutRow(row)
package pool

import (
	"sync"
	"sync/atomic"
)

// Pool is a generic object pool. Safe for concurrent use.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(T)
	stats struct {
		allocated int64
		hits      int64
	}
}

// New creates a typed pool. The new function is called when the pool is
// empty; reset, if non-nil, runs before an object is returned to the pool.
func New[T any](newFunc func() T, reset func(T)) *Pool[T] {
	p := &Pool[T]{
		reset: reset,
	}
	p.pool.New = func() interface{} {
		atomic.AddInt64(&p.stats.allocated, 1)
		return newFunc()
	}
	return p
}

// Get retrieves an object from the pool, creating one if the pool is empty.
func (p *Pool[T]) Get() T {
	obj := p.pool.Get().(T)
	atomic.AddInt64(&p.stats.hits, 1)
	return obj
}

// Put returns an object to the pool after resetting it.
func (p *Pool[T]) Put(obj T) {
	if p.reset != nil {
		p.reset(obj)
	}
	p.pool.Put(obj)
}

// Stats returns the pool's allocation count and get count.
func (p *Pool[T]) Stats() (allocated, gets int64) {
	return atomic.LoadInt64(&p.stats.allocated), atomic.LoadInt64(&p.stats.hits)
}

// rowPool recycles the name-to-value maps the materializer emits as rows.
var rowPool = New(
	func() map[string]interface{} {
		return make(map[string]interface{}, 16)
	},
	func(m map[string]interface{}) {
		for k := range m {
			delete(m, k)
		}
	},
)

// GetRow retrieves a cleared row map from the global row pool.
func GetRow() map[string]interface{} {
	return rowPool.Get()
}

// PutRow returns a row map to the global row pool. The caller must not
// keep references to the map or its values afterwards.
func PutRow(m map[string]interface{}) {
	if m == nil {
		return
	}
	rowPool.Put(m)
}
