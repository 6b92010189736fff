// Package errors is the error taxonomy shared by the translator and the
// build tooling around it. Fatal CZar diagnostics travel inside a
// VALIDATION_ERROR; everything else is I/O, lookup or internal failure.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

type ErrorCode string

const (
	CodeNotFound        ErrorCode = "NOT_FOUND"
	CodeValidationError ErrorCode = "VALIDATION_ERROR"
	CodeConflict        ErrorCode = "CONFLICT"
	CodeInternal        ErrorCode = "INTERNAL_ERROR"
	CodeNotSupported    ErrorCode = "NOT_SUPPORTED"
	CodeIO              ErrorCode = "IO_ERROR"
)

// Context keys.
const (
	CtxPath      = "path"
	CtxOperation = "operation"
	CtxFeature   = "feature"
	CtxLine      = "line"
)

type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]any
}

func (e *DomainError) WithContext(key string, value any) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Error renders `[CODE] message: cause (k=v, ...)` with context keys sorted.
func (e *DomainError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	if len(e.Context) == 0 {
		return b.String()
	}
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteString(" (")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", k, e.Context[k])
	}
	b.WriteString(")")
	return b.String()
}

func (e *DomainError) Unwrap() error { return e.Err }

func New(code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func Newf(code ErrorCode, format string, args ...any) error {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(err error, code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

// AddContext attaches key to the nearest DomainError in err's chain, or wraps
// err as an internal error carrying it.
func AddContext(err error, key string, value any) error {
	if de, ok := asDomain(err); ok {
		de.WithContext(key, value)
		return err
	}
	return &DomainError{
		Code:    CodeInternal,
		Message: "wrapped error",
		Err:     err,
		Context: map[string]any{key: value},
	}
}

// AtPath wraps err with code and msg and records the file it concerns.
func AtPath(err error, code ErrorCode, msg, path string) error {
	return AddContext(Wrap(err, code, msg), CtxPath, path)
}

// ContextValue looks key up on the nearest DomainError in err's chain.
func ContextValue(err error, key string) (any, bool) {
	de, ok := asDomain(err)
	if !ok {
		return nil, false
	}
	v, ok := de.Context[key]
	return v, ok
}

func IsCode(err error, code ErrorCode) bool {
	de, ok := asDomain(err)
	return ok && de.Code == code
}

// CodeOf returns the code of the nearest DomainError in err's chain, or
// CodeInternal for foreign errors.
func CodeOf(err error) ErrorCode {
	if de, ok := asDomain(err); ok {
		return de.Code
	}
	return CodeInternal
}

func asDomain(err error) (*DomainError, bool) {
	var de *DomainError
	ok := errors.As(err, &de)
	return de, ok
}
