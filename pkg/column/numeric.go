package column

import (
	"unsafe"

	"github.com/colbuf/colbuf/pkg/xerrors"
)

// numericValue is the set of element representations numeric columns store.
type numericValue interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~int8 | ~int16 | ~int32 | ~int64 | ~float32 | ~float64
}

// Numeric is the storage for every fixed-width numeric kind. The kind tag
// distinguishes instantiations that share a representation (Date is stored
// as uint16, DateTime as uint64).
type Numeric[T numericValue] struct {
	kind   Kind
	values []T
}

func newNumeric[T numericValue](kind Kind, capacity int) *Numeric[T] {
	return &Numeric[T]{
		kind:   kind,
		values: make([]T, 0, capacity),
	}
}

// Kind returns the column's element kind.
func (c *Numeric[T]) Kind() Kind { return c.kind }

// Len returns the number of appended values.
func (c *Numeric[T]) Len() int { return len(c.values) }

// At returns the value at index i.
func (c *Numeric[T]) At(i int) T { return c.values[i] }

// Data returns the backing slice. The caller must not modify it; it is
// valid until the next Append or Reset.
func (c *Numeric[T]) Data() []T { return c.values }

// Append appends one value, converting from the carrier types the wire
// uses. Narrowing from a 64-bit carrier keeps the low-order bits.
func (c *Numeric[T]) Append(value interface{}) error {
	v, err := convertNumeric[T](c.kind, value)
	if err != nil {
		return err
	}
	c.values = append(c.values, v)
	return nil
}

// AppendBulk appends a slice of values. See Column.AppendBulk for the
// accepted slice forms and the all-or-nothing guarantee.
func (c *Numeric[T]) AppendBulk(values interface{}) error {
	if values == nil {
		return nil
	}

	if exact, ok := values.([]T); ok {
		c.values = append(c.values, exact...)
		return nil
	}

	switch vs := values.(type) {
	case []uint64:
		if !c.kind.IsUnsigned() {
			return bulkCarrierMismatch(c.kind, "[]uint64")
		}
		converted := make([]T, len(vs))
		for i, v := range vs {
			converted[i] = T(v) // low-order bits kept on narrowing
		}
		c.values = append(c.values, converted...)
		return nil

	case []int64:
		if !c.kind.IsSigned() {
			return bulkCarrierMismatch(c.kind, "[]int64")
		}
		converted := make([]T, len(vs))
		for i, v := range vs {
			converted[i] = T(v) // low-order bits kept on narrowing
		}
		c.values = append(c.values, converted...)
		return nil

	case []float64:
		if !c.kind.IsFloat() {
			return bulkCarrierMismatch(c.kind, "[]float64")
		}
		converted := make([]T, len(vs))
		for i, v := range vs {
			converted[i] = T(v)
		}
		c.values = append(c.values, converted...)
		return nil

	case []interface{}:
		converted := make([]T, len(vs))
		for i, v := range vs {
			t, err := convertNumeric[T](c.kind, v)
			if err != nil {
				return xerrors.Wrap(err, xerrors.KindBulkAppendFailed, "bulk append element conversion failed").
					WithDetail(xerrors.DetailIndex, i).
					WithDetail("kind", c.kind.String())
			}
			converted[i] = t
		}
		c.values = append(c.values, converted...)
		return nil

	default:
		return xerrors.Newf(xerrors.KindBulkAppendFailed, "unsupported bulk slice type %T for %s column", values, c.kind).
			WithDetail(xerrors.DetailIndex, 0).
			WithDetail("kind", c.kind.String())
	}
}

// Reset clears the column keeping capacity.
func (c *Numeric[T]) Reset() {
	c.values = c.values[:0]
}

// MemoryUsage returns the approximate heap bytes held by the column.
func (c *Numeric[T]) MemoryUsage() int64 {
	var zero T
	return int64(len(c.values)) * int64(unsafe.Sizeof(zero))
}

// DataOf returns the backing slice of a numeric column whose
// representation is T. The second return value is false when the column
// does not store T; callers must treat that as a failed conversion, never
// assume the representation. The slice must not be modified and is valid
// until the next Append or Reset.
func DataOf[T numericValue](col Column) ([]T, bool) {
	c, ok := col.(*Numeric[T])
	if !ok {
		return nil, false
	}
	return c.values, true
}

// convertNumeric coerces one value to the column representation. The exact
// element type passes through; carrier types narrow by keeping the
// low-order bits of the two's-complement representation. Values outside
// the kind's sign domain (a negative integer into an unsigned kind) are a
// caller contract violation, not a truncation case.
func convertNumeric[T numericValue](kind Kind, value interface{}) (T, error) {
	if v, ok := value.(T); ok {
		return v, nil
	}

	switch {
	case kind.IsUnsigned():
		switch v := value.(type) {
		case uint64:
			return T(v), nil
		case uint:
			return T(uint64(v)), nil
		case int64:
			if v < 0 {
				return 0, typeMismatch(kind, value)
			}
			return T(uint64(v)), nil
		case int:
			if v < 0 {
				return 0, typeMismatch(kind, value)
			}
			return T(uint64(v)), nil
		}

	case kind.IsSigned():
		switch v := value.(type) {
		case int64:
			return T(v), nil
		case int:
			return T(int64(v)), nil
		}

	case kind.IsFloat():
		switch v := value.(type) {
		case float64:
			return T(v), nil
		case float32:
			return T(v), nil
		}
	}

	return 0, typeMismatch(kind, value)
}

func typeMismatch(kind Kind, value interface{}) *xerrors.Error {
	return xerrors.Newf(xerrors.KindTypeMismatch, "value of type %T is not representable in %s column", value, kind).
		WithDetail("kind", kind.String())
}

func bulkCarrierMismatch(kind Kind, carrier string) *xerrors.Error {
	return xerrors.Newf(xerrors.KindBulkAppendFailed, "carrier slice %s does not feed %s columns", carrier, kind).
		WithDetail(xerrors.DetailIndex, 0).
		WithDetail("kind", kind.String())
}
