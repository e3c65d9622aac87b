package column

// Column is the handle every typed column variant implements. The concrete
// storage behind a Column is selected at construction time and never
// changes; all operations stay type-safe behind this interface because
// conversion happens at the append boundary, not inside storage.
//
// Columns are not safe for concurrent mutation. Callers ingesting from
// multiple goroutines must assign disjoint columns to disjoint goroutines
// or serialize access externally.
type Column interface {
	// Kind returns the element kind fixed at construction.
	Kind() Kind

	// Len returns the number of appended values. After a failed bulk
	// append Len reflects exactly the durably appended elements (bulk
	// appends are all-or-nothing, so it is unchanged by the failure).
	Len() int

	// Append appends one value. The value must be representable in the
	// column's kind; otherwise the column is unchanged and the error has
	// kind TypeMismatch.
	Append(value interface{}) error

	// AppendBulk appends every element of a slice in order. It accepts
	// the column's exact element slice, the wide carrier slice forms the
	// wire producers use ([]uint64 for unsigned kinds, []int64 for signed
	// kinds, []float64 for float kinds) and []interface{}. Conversion of
	// every element happens before the column mutates: on failure the
	// column is unchanged and the error has kind BulkAppendFailed with
	// the failing element's index in its details.
	AppendBulk(values interface{}) error

	// Reset clears the column for reuse, keeping allocated capacity.
	Reset()

	// MemoryUsage returns the approximate heap bytes held by the column.
	MemoryUsage() int64
}
