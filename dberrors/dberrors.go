// Package dberrors defines the error kinds the core can raise. All of them
// surface to the caller of the statement-level operation; none are caught
// internally except NotFound during optional cache lookups.
package dberrors

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

// ParseError wraps a malformed-SQL failure from sqlparser.
type ParseError struct {
	cause error
}

func NewParseError(format string, args ...interface{}) *ParseError {
	return &ParseError{errors.Errorf(format, args...)}
}

func (e *ParseError) Error() string { return "parse error: " + e.cause.Error() }
func (e *ParseError) Unwrap() error { return e.cause }

// SchemaError covers unknown table/column, duplicate table/column, type
// mismatch at INSERT, and cross-type comparison in WHERE.
type SchemaError struct {
	cause error
}

func NewSchemaError(format string, args ...interface{}) *SchemaError {
	return &SchemaError{errors.Errorf(format, args...)}
}

func (e *SchemaError) Error() string { return "schema error: " + e.cause.Error() }
func (e *SchemaError) Unwrap() error { return e.cause }

// NotFoundError reports a block-store miss.
type NotFoundError struct {
	cause error
}

func NewNotFoundError(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{errors.Errorf(format, args...)}
}

func (e *NotFoundError) Error() string { return "not found: " + e.cause.Error() }
func (e *NotFoundError) Unwrap() error { return e.cause }

// CodecError reports a malformed block that failed to decode.
type CodecError struct {
	cause error
}

func NewCodecError(format string, args ...interface{}) *CodecError {
	return &CodecError{errors.Errorf(format, args...)}
}

func (e *CodecError) Error() string { return "codec error: " + e.cause.Error() }
func (e *CodecError) Unwrap() error { return e.cause }

// ConstraintError reports VALUES arity exceeding declared columns, or a
// string exceeding its declared VARCHAR length.
type ConstraintError struct {
	cause error
}

func NewConstraintError(format string, args ...interface{}) *ConstraintError {
	return &ConstraintError{errors.Errorf(format, args...)}
}

func (e *ConstraintError) Error() string { return "constraint error: " + e.cause.Error() }
func (e *ConstraintError) Unwrap() error { return e.cause }

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return stderrors.As(err, &nf)
}
