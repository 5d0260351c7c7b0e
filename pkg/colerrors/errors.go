// Package colerrors provides structured error handling for jsoncol with
// error categorization, key-value context and stack traces.
//
// # Overview
//
// Every failure surfaced by the conversion pipeline is a *Error whose Type
// tells the caller how to react:
//   - Recoverable, per-record kinds (parse, missing_field, type_mismatch):
//     the record is skipped, counted and the run continues.
//   - Structural kinds (schema_inference, corrupt_input, encoding, io,
//     config, internal):
//     the run aborts and the output file is discarded.
//
// # Basic Usage
//
//	err := colerrors.New(colerrors.ErrorTypeMissingField, "required field is absent").
//	    WithDetail("field", "user_id").
//	    WithDetail("record", 42)
//
//	if colerrors.IsRecoverable(err) {
//	    skipped++
//	}
//
// # Stack Traces
//
// Stack traces are captured for structural errors only. Per-record errors
// are created once per bad row and are kept cheap.
package colerrors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error.
type ErrorType string

const (
	// ErrorTypeSchemaInference means no schema could be inferred from the input.
	ErrorTypeSchemaInference ErrorType = "schema_inference"
	// ErrorTypeParse represents a malformed input record
	ErrorTypeParse ErrorType = "parse"
	// ErrorTypeCorruptInput represents input that cannot be resynchronised
	// after a syntax error, such as a broken top-level array
	ErrorTypeCorruptInput ErrorType = "corrupt_input"
	// ErrorTypeMissingField represents a required field absent from a record
	ErrorTypeMissingField ErrorType = "missing_field"
	// ErrorTypeTypeMismatch represents a value that cannot be coerced to its column type
	ErrorTypeTypeMismatch ErrorType = "type_mismatch"
	// ErrorTypeEncoding represents an internal invariant violation while encoding
	ErrorTypeEncoding ErrorType = "encoding"
	// ErrorTypeIO represents read or write failures
	ErrorTypeIO ErrorType = "io"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeInternal represents internal system errors
	ErrorTypeInternal ErrorType = "internal"
)

// Error represents a structured error with context.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack.
type StackFrame struct {
	Function string // Fully qualified function name
	File     string // Source file path
	Line     int    // Line number in source file
}

// Error implements the error interface, returning a formatted error message
// that includes the error type, message, and cause (if present).
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error. It can be chained.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Detail returns a detail value previously attached with WithDetail.
func (e *Error) Detail(key string) (interface{}, bool) {
	v, ok := e.Details[key]
	return v, ok
}

// New creates a new error with the given type and message.
func New(errType ErrorType, message string) *Error {
	e := &Error{
		Type:    errType,
		Message: message,
	}
	if !isRecoverableType(errType) {
		e.Stack = captureStack(2)
	}
	return e
}

// Newf creates a new error with a formatted message.
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	e := &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
	}
	if !isRecoverableType(errType) {
		e.Stack = captureStack(2)
	}
	return e
}

// Wrap wraps an existing error with additional context, preserving the original
// error as the cause. If the error is already a structured Error, its stack
// trace is preserved. Returns nil if the input error is nil.
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

	e := &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
	}
	if !isRecoverableType(errType) {
		e.Stack = captureStack(2)
	}
	return e
}

// IsType checks if the error is of the given type.
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// TypeOf returns the type of the outermost structured error in err's chain,
// or ErrorTypeInternal when err carries none.
func TypeOf(err error) ErrorType {
	var e *Error
	if !errors.As(err, &e) {
		return ErrorTypeInternal
	}
	return e.Type
}

// IsRecoverable reports whether err only affects a single record. Such errors
// are counted and skipped, everything else aborts the run.
func IsRecoverable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return isRecoverableType(e.Type)
}

func isRecoverableType(t ErrorType) bool {
	switch t {
	case ErrorTypeParse, ErrorTypeMissingField, ErrorTypeTypeMismatch:
		return true
	default:
		return false
	}
}

// captureStack captures the current call stack up to maxFrames deep,
// skipping the specified number of frames from the top.
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
