// Package errors provides structured error handling for csvconf.
//
// Errors carry an ErrorType so callers can tell structural failures (a missing
// table, an unknown column) from per-cell diagnostics without matching on
// message text:
//
//	idx, err := tbl.IndexOf("Name")
//	if errors.IsType(err, errors.ErrorTypeNotFound) {
//	    // column absent
//	}
//
// Stack traces are captured where an error is created. Error instances are
// not safe for concurrent modification; finish WithDetail calls before
// sharing an error across goroutines.
package errors

import (
	"errors"
	"runtime"

	stringpool "github.com/ajitpratap0/csvconf/pkg/strings"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeInternal represents internal system errors
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeMalformedTable means the text has fewer rows than the header layout requires
	ErrorTypeMalformedTable ErrorType = "malformed_table"
	// ErrorTypeUnknownField means a table header has no matching schema field
	ErrorTypeUnknownField ErrorType = "unknown_field"
	// ErrorTypeUnknownColumn means a projected column name is not in the header row
	ErrorTypeUnknownColumn ErrorType = "unknown_column"
	// ErrorTypeUnsupportedType means a descriptor or Go type is outside the conversion grammar
	ErrorTypeUnsupportedType ErrorType = "unsupported_type"
	// ErrorTypeEnumParse means enum text matched neither an ordinal nor a member name
	ErrorTypeEnumParse ErrorType = "enum_parse"
	// ErrorTypeIndexOutOfRange means a column index exceeds the table width
	ErrorTypeIndexOutOfRange ErrorType = "index_out_of_range"
	// ErrorTypeNotFound represents resource not found errors
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeFile represents file operation errors
	ErrorTypeFile ErrorType = "file"
	// ErrorTypeConnection represents connection errors
	ErrorTypeConnection ErrorType = "connection"
	// ErrorTypeData represents data processing errors
	ErrorTypeData ErrorType = "data"
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return stringpool.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return stringpool.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: stringpool.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsType checks if the error is of the given type
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// TypeOf returns the ErrorType of err, or ErrorTypeInternal for foreign errors.
func TypeOf(err error) ErrorType {
	var e *Error
	if !errors.As(err, &e) {
		return ErrorTypeInternal
	}
	return e.Type
}

// IsStructural reports whether err aborts an operation (as opposed to a
// per-cell diagnostic that was recovered with a default value).
func IsStructural(err error) bool {
	switch TypeOf(err) {
	case ErrorTypeMalformedTable, ErrorTypeUnknownColumn, ErrorTypeIndexOutOfRange, ErrorTypeUnsupportedType:
		return true
	default:
		return false
	}
}

// captureStack captures the current call stack
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
