package diagnostics

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	// Candidate failures
	ErrC001 ErrorCode = "C001" // unmet leaf predicate
	ErrC002 ErrorCode = "C002" // unmet composite concept

	// Definition-time failures
	ErrC003 ErrorCode = "C003" // ill-formed constraint declaration
	ErrC004 ErrorCode = "C004" // type expression syntax
	ErrC005 ErrorCode = "C005" // unknown type or bad catalog entry
)

var descriptions = map[ErrorCode]string{
	ErrC001: "unmet predicate",
	ErrC002: "unmet concept",
	ErrC003: "ill-formed constraint declaration",
	ErrC004: "syntax error",
	ErrC005: "catalog error",
}

// Description returns the short human label of a code.
func (c ErrorCode) Description() string {
	if d, ok := descriptions[c]; ok {
		return d
	}
	return "error"
}

// Position locates a diagnostic in its source. The zero value means "no position".
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) IsValid() bool { return p.Line > 0 }

func (p Position) String() string {
	if p.File != "" {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// DiagnosticError is a coded rejection.
type DiagnosticError struct {
	Code    ErrorCode
	Pos     Position
	Message string
	Cause   error
}

func NewError(code ErrorCode, pos Position, format string, args ...interface{}) *DiagnosticError {
	return &DiagnosticError{Code: code, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a diagnostic around an underlying error.
func Wrap(code ErrorCode, cause error, format string, args ...interface{}) *DiagnosticError {
	return &DiagnosticError{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *DiagnosticError) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Code, e.Code.Description(), e.Message)
	if e.Pos.IsValid() {
		msg = e.Pos.String() + ": " + msg
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *DiagnosticError) Unwrap() error { return e.Cause }

// Is matches any diagnostic carrying the same code, so callers can test
// errors.Is(err, diagnostics.Code(diagnostics.ErrC003)).
func (e *DiagnosticError) Is(target error) bool {
	var t *DiagnosticError
	if !errors.As(target, &t) {
		return false
	}
	return t.Message == "" && t.Code == e.Code
}

// Code returns a bare diagnostic usable as an errors.Is target.
func Code(code ErrorCode) error {
	return &DiagnosticError{Code: code}
}

// CodeOf extracts the code of the first diagnostic in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var d *DiagnosticError
	if errors.As(err, &d) {
		return d.Code, true
	}
	return "", false
}
