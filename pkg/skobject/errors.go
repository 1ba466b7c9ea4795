package skobject

import (
	"errors"
	"fmt"
)

// Sentinel errors wrapped by ConversionError.
var (
	ErrNoHandle     = errors.New("daemon returned no handle")
	ErrKindMismatch = errors.New("value does not convert to a request object")
	ErrInternFailed = errors.New("failed to intern UID")
	ErrReleased     = errors.New("object already released")
)

// maxValueLen bounds the rendering of offending values in error messages.
const maxValueLen = 80

// ConversionError reports a value that could not be turned into a request
// object.
type ConversionError struct {
	Value string // rendering of the offending value
	Err   error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("failed to create sourcekitd object from %s: %v", e.Value, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

func failedToCreate(v any) error {
	return &ConversionError{Value: render(v), Err: ErrNoHandle}
}

func kindMismatch(v any, format string, args ...any) error {
	return &ConversionError{
		Value: render(v),
		Err:   fmt.Errorf("%w: %s", ErrKindMismatch, fmt.Sprintf(format, args...)),
	}
}

func render(v any) string {
	if v == nil {
		return "<nil>"
	}
	s := fmt.Sprintf("%T(%v)", v, v)
	if r := []rune(s); len(r) > maxValueLen {
		return string(r[:maxValueLen-3]) + "..."
	}
	return s
}
