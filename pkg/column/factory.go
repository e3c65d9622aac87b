package column

import (
	"github.com/colbuf/colbuf/pkg/xerrors"
)

const (
	defaultInitialCapacity     = 1024
	defaultDictionaryThreshold = 0.5
)

// Options tunes column construction.
type Options struct {
	// InitialCapacity is the value capacity columns preallocate.
	InitialCapacity int
	// DictionaryThreshold is the distinct-value ratio below which String
	// columns switch to dictionary encoding. Zero disables the switch.
	DictionaryThreshold float64
}

// DefaultOptions returns the construction defaults.
func DefaultOptions() Options {
	return Options{
		InitialCapacity:     defaultInitialCapacity,
		DictionaryThreshold: defaultDictionaryThreshold,
	}
}

// kindByName is the static table driving type-name construction. Extend it
// only by adding a new kind; never relax conversion checks elsewhere.
var kindByName = map[string]Kind{
	"UInt8":    KindUInt8,
	"UInt16":   KindUInt16,
	"UInt32":   KindUInt32,
	"UInt64":   KindUInt64,
	"Int8":     KindInt8,
	"Int16":    KindInt16,
	"Int32":    KindInt32,
	"Int64":    KindInt64,
	"Float32":  KindFloat32,
	"Float64":  KindFloat64,
	"String":   KindString,
	"Date":     KindDate,
	"DateTime": KindDateTime,
}

// New creates an empty column from a runtime type name with default
// options. Type names match the backing store's spelling exactly
// (case-sensitive); unknown names, including parametrized forms such as
// "Nullable(UInt8)", fail with kind UnknownType and construct nothing.
func New(typeName string) (Column, error) {
	return NewWithOptions(typeName, DefaultOptions())
}

// NewWithOptions creates an empty column from a runtime type name.
func NewWithOptions(typeName string, opts Options) (Column, error) {
	kind, ok := kindByName[typeName]
	if !ok {
		return nil, xerrors.Newf(xerrors.KindUnknownType, "unsupported column type name %q", typeName).
			WithDetail("type_name", typeName)
	}
	return NewOfKind(kind, opts)
}

// NewOfKind creates an empty column of a known kind. It fails with kind
// UnknownType when the tag is outside the closed kind set (a corrupt
// frame on the decode path).
func NewOfKind(kind Kind, opts Options) (Column, error) {
	capacity := opts.InitialCapacity
	if capacity <= 0 {
		capacity = defaultInitialCapacity
	}

	switch kind {
	case KindUInt8:
		return newNumeric[uint8](kind, capacity), nil
	case KindUInt16:
		return newNumeric[uint16](kind, capacity), nil
	case KindUInt32:
		return newNumeric[uint32](kind, capacity), nil
	case KindUInt64:
		return newNumeric[uint64](kind, capacity), nil
	case KindInt8:
		return newNumeric[int8](kind, capacity), nil
	case KindInt16:
		return newNumeric[int16](kind, capacity), nil
	case KindInt32:
		return newNumeric[int32](kind, capacity), nil
	case KindInt64:
		return newNumeric[int64](kind, capacity), nil
	case KindFloat32:
		return newNumeric[float32](kind, capacity), nil
	case KindFloat64:
		return newNumeric[float64](kind, capacity), nil
	case KindString:
		return newBytes(opts), nil
	case KindDate:
		return newNumeric[uint16](kind, capacity), nil
	case KindDateTime:
		return newNumeric[uint64](kind, capacity), nil
	default:
		return nil, xerrors.Newf(xerrors.KindUnknownType, "unknown column kind tag %d", uint8(kind)).
			WithDetail("kind_tag", uint8(kind))
	}
}

// TypeNames returns the supported type names in kind order. Useful for
// error messages and CLI help.
func TypeNames() []string {
	names := make([]string, 0, len(kindByName))
	for k := Kind(0); k < kindCount; k++ {
		names = append(names, k.String())
	}
	return names
}
