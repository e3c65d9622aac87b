// Package column provides typed, append-only columnar buffers for bulk
// ingestion into a columnar store and for decoding its query results.
//
// # Overview
//
// A Column is a homogeneously-typed growable array whose element kind is
// fixed at construction time. Columns are created dynamically from a
// runtime type name (the schema the backing store reports), so callers do
// not need compile-time knowledge of every kind:
//
//	col, err := column.New("UInt64")
//	if err != nil {
//	    return err
//	}
//	if err := col.Append(uint64(42)); err != nil {
//	    return err
//	}
//	_ = col.AppendBulk([]uint64{1, 2, 3})
//
// # Append semantics
//
// Scalar Append exists for compatibility; AppendBulk is the throughput
// path, amortizing per-call overhead over a whole slice. Bulk appends are
// all-or-nothing: every element is converted before the column mutates, so
// a failed call leaves Len unchanged and the error carries the failing
// element's index.
//
// Narrowing from 64-bit carrier slices keeps the low-order bits of the
// value (bit truncation, not saturation). Feeding 0x1FF into a UInt8
// column stores 0xFF. This matches the wire behavior bulk producers rely
// on and is pinned by tests.
package column

// Kind identifies the element type of a column. The closed set below is
// the full type surface of the buffer; extraction and codec logic dispatch
// over it exactly once per column.
//
// Kind values are encoded into block frames; their numeric order is part
// of the codec format and must not be reordered.
type Kind uint8

const (
	KindUInt8 Kind = iota
	KindUInt16
	KindUInt32
	KindUInt64
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindString
	// KindDate stores days since the Unix epoch as uint16.
	KindDate
	// KindDateTime stores seconds since the Unix epoch as uint64.
	KindDateTime

	kindCount
)

var kindNames = [...]string{
	KindUInt8:    "UInt8",
	KindUInt16:   "UInt16",
	KindUInt32:   "UInt32",
	KindUInt64:   "UInt64",
	KindInt8:     "Int8",
	KindInt16:    "Int16",
	KindInt32:    "Int32",
	KindInt64:    "Int64",
	KindFloat32:  "Float32",
	KindFloat64:  "Float64",
	KindString:   "String",
	KindDate:     "Date",
	KindDateTime: "DateTime",
}

// String returns the type name of the kind as the backing store spells it.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Valid reports whether k is a member of the closed kind set.
func (k Kind) Valid() bool {
	return k < kindCount
}

// IsUnsigned reports whether the kind stores an unsigned integer
// representation. Date and DateTime are raw unsigned day/second counts.
func (k Kind) IsUnsigned() bool {
	switch k {
	case KindUInt8, KindUInt16, KindUInt32, KindUInt64, KindDate, KindDateTime:
		return true
	case KindInt8, KindInt16, KindInt32, KindInt64, KindFloat32, KindFloat64, KindString:
		return false
	default:
		return false
	}
}

// IsSigned reports whether the kind stores a signed integer representation.
func (k Kind) IsSigned() bool {
	switch k {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return true
	default:
		return false
	}
}

// IsFloat reports whether the kind stores a floating point representation.
func (k Kind) IsFloat() bool {
	return k == KindFloat32 || k == KindFloat64
}
