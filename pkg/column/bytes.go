package column

import (
	"github.com/colbuf/colbuf/pkg/strpool"
	"github.com/colbuf/colbuf/pkg/xerrors"
)

// dictProbeLen is the number of values buffered before deciding whether
// the column repeats enough to switch to dictionary encoding.
const dictProbeLen = 100

// Bytes stores String column values as immutable byte sequences. No
// encoding validation is performed; values are raw bytes.
//
// When the fraction of distinct values drops below the configured
// threshold the column transparently switches to dictionary encoding:
// distinct values live once in a pool and rows become uint32 codes.
// Append and extraction semantics are unchanged by the switch.
type Bytes struct {
	raw [][]byte

	pool      [][]byte
	index     map[string]uint32
	codes     []uint32
	dictMode  bool
	threshold float64
}

func newBytes(opts Options) *Bytes {
	capacity := opts.InitialCapacity
	if capacity <= 0 {
		capacity = defaultInitialCapacity
	}
	return &Bytes{
		raw:       make([][]byte, 0, capacity),
		threshold: opts.DictionaryThreshold,
	}
}

// Kind returns KindString.
func (c *Bytes) Kind() Kind { return KindString }

// Len returns the number of appended values.
func (c *Bytes) Len() int {
	if c.dictMode {
		return len(c.codes)
	}
	return len(c.raw)
}

// Raw returns the value at index i without copying. The returned slice
// aliases column storage: it must not be modified and is only valid until
// Reset. Callers that outlive the column use At.
func (c *Bytes) Raw(i int) []byte {
	if c.dictMode {
		return c.pool[c.codes[i]]
	}
	return c.raw[i]
}

// At returns an owned copy of the value at index i.
func (c *Bytes) At(i int) []byte {
	return strpool.CloneBytes(c.Raw(i))
}

// Append appends one value. Accepts string and []byte; the bytes are
// copied, so the caller keeps ownership of its buffer.
func (c *Bytes) Append(value interface{}) error {
	b, err := coerceBytes(value)
	if err != nil {
		return err
	}
	c.appendOwned(b)
	return nil
}

// AppendBulk appends a slice of values in order. Accepts []string,
// [][]byte and []interface{}. All-or-nothing: conversion happens before
// the column mutates.
func (c *Bytes) AppendBulk(values interface{}) error {
	if values == nil {
		return nil
	}

	var owned [][]byte

	switch vs := values.(type) {
	case []string:
		owned = make([][]byte, len(vs))
		for i, s := range vs {
			owned[i] = []byte(s)
		}
	case [][]byte:
		owned = make([][]byte, len(vs))
		for i, b := range vs {
			owned[i] = strpool.CloneBytes(b)
		}
	case []interface{}:
		owned = make([][]byte, len(vs))
		for i, v := range vs {
			b, err := coerceBytes(v)
			if err != nil {
				return xerrors.Wrap(err, xerrors.KindBulkAppendFailed, "bulk append element conversion failed").
					WithDetail(xerrors.DetailIndex, i).
					WithDetail("kind", KindString.String())
			}
			owned[i] = b
		}
	default:
		return xerrors.Newf(xerrors.KindBulkAppendFailed, "unsupported bulk slice type %T for String column", values).
			WithDetail(xerrors.DetailIndex, 0).
			WithDetail("kind", KindString.String())
	}

	for _, b := range owned {
		c.appendOwned(b)
	}
	return nil
}

// appendOwned appends a value the column now owns.
func (c *Bytes) appendOwned(b []byte) {
	if c.dictMode {
		c.codes = append(c.codes, c.code(b))
		return
	}

	c.raw = append(c.raw, b)

	if c.threshold > 0 && len(c.raw) == dictProbeLen && c.shouldUseDictionary() {
		c.convertToDictionary()
	}
}

// code returns the dictionary code for b, registering it if new.
func (c *Bytes) code(b []byte) uint32 {
	if code, ok := c.index[strpool.BytesToString(b)]; ok {
		return code
	}
	code := uint32(len(c.pool))
	c.pool = append(c.pool, b)
	c.index[string(b)] = code
	return code
}

func (c *Bytes) shouldUseDictionary() bool {
	unique := make(map[string]struct{}, len(c.raw))
	for _, b := range c.raw {
		unique[string(b)] = struct{}{}
	}
	ratio := float64(len(unique)) / float64(len(c.raw))
	return ratio < c.threshold
}

func (c *Bytes) convertToDictionary() {
	c.dictMode = true
	c.pool = c.pool[:0]
	c.index = make(map[string]uint32)
	c.codes = make([]uint32, 0, len(c.raw))

	for _, b := range c.raw {
		c.codes = append(c.codes, c.code(b))
	}

	c.raw = nil
}

// Reset clears the column for reuse keeping capacity, dropping dictionary
// state.
func (c *Bytes) Reset() {
	if c.raw == nil {
		c.raw = make([][]byte, 0, len(c.codes))
	} else {
		c.raw = c.raw[:0]
	}
	c.pool = nil
	c.index = nil
	c.codes = nil
	c.dictMode = false
}

// MemoryUsage returns the approximate heap bytes held by the column.
func (c *Bytes) MemoryUsage() int64 {
	var total int64

	if c.dictMode {
		for _, b := range c.pool {
			total += int64(len(b)) + 24 // slice header
		}
		total += int64(len(c.codes) * 4)
		return total
	}

	for _, b := range c.raw {
		total += int64(len(b)) + 24
	}
	return total
}

func coerceBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return strpool.CloneBytes(v), nil
	default:
		return nil, typeMismatch(KindString, value)
	}
}
