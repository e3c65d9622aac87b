// Package xerrors provides structured error handling for colbuf with rich
// context, stack traces, and error categorization. Every failure the library
// can report carries a Kind, so callers can decide whether to abort a whole
// operation (row-count mismatch, unsupported column type) or report a
// narrower fault (a single bad value in a bulk append).
//
// # Basic Usage
//
//	// Create a new error
//	err := xerrors.New(xerrors.KindUnknownType, "unsupported column type name")
//
//	// Add context
//	err = err.WithDetail("type_name", typeName)
//
//	// Wrap existing errors
//	if err := codec.Decode(frame); err != nil {
//	    return xerrors.Wrap(err, xerrors.KindCodec, "block decode failed").
//	        WithDetail("frame_size", len(frame))
//	}
//
// # Error Kinds
//
// Kinds map one-to-one onto the failure modes of the column buffer and
// materializer: UnknownType, TypeMismatch, BulkAppendFailed,
// RowCountMismatch, UnsupportedColumnType, plus the ambient Codec, Config
// and Internal kinds. Use IsKind to branch on them.
//
// # Thread Safety
//
// Error instances are not safe for concurrent modification. Finish all
// WithDetail calls before sharing an error across goroutines.
package xerrors

import (
	"errors"
	"runtime"

	"github.com/colbuf/colbuf/pkg/strpool"
)

// Kind categorizes an error for handling strategies and reporting.
type Kind string

const (
	// KindUnknownType reports a type name the column factory does not recognize.
	KindUnknownType Kind = "unknown_type"
	// KindTypeMismatch reports a scalar append whose value cannot be coerced
	// to the column's kind.
	KindTypeMismatch Kind = "type_mismatch"
	// KindBulkAppendFailed reports a bulk append with at least one
	// unconvertible element. The failing element's position is stored under
	// the "index" detail; use BulkIndex to retrieve it.
	KindBulkAppendFailed Kind = "bulk_append_failed"
	// KindRowCountMismatch reports a block whose columns disagree on row count.
	KindRowCountMismatch Kind = "row_count_mismatch"
	// KindUnsupportedColumnType reports a column kind the materializer cannot extract.
	KindUnsupportedColumnType Kind = "unsupported_column_type"
	// KindCodec reports a block encode/decode failure.
	KindCodec Kind = "codec"
	// KindConfig reports invalid configuration.
	KindConfig Kind = "config"
	// KindInternal reports internal invariant violations.
	KindInternal Kind = "internal"
)

// DetailIndex is the detail key carrying the failing element position of a
// bulk append.
const DetailIndex = "index"

// Error is a structured error with a kind, free-form details and the call
// stack captured at the creation point.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame is a single frame of the call stack captured at error creation.
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return strpool.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return strpool.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error, enabling errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error. It returns the receiver
// so calls can be chained.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates an error of the given kind, capturing the call stack.
func New(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: strpool.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with a kind and message, preserving the
// original as the cause. If err is already a structured Error its stack is
// kept. Returns nil if err is nil.
func Wrap(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}

	var existing *Error
	if errors.As(err, &existing) {
		return &Error{
			Kind:    kind,
			Message: message,
			Cause:   err,
			Stack:   existing.Stack,
		}
	}

	return &Error{
		Kind:    kind,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsKind reports whether err (or any error it wraps) is a structured Error
// of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// BulkIndex returns the zero-based failing element index carried by a
// KindBulkAppendFailed error. The second return value is false when err is
// not a bulk append failure or carries no index detail.
func BulkIndex(err error) (int, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return 0, false
	}
	if e.Kind != KindBulkAppendFailed {
		return 0, false
	}
	idx, ok := e.Details[DetailIndex].(int)
	return idx, ok
}

// captureStack records up to maxFrames stack frames, skipping the given
// number of frames from the top.
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
