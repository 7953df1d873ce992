package ctrace

import (
	"errors"
	"fmt"

	"github.com/kolkov/ctrace/internal/types"
)

// Fault kinds. Use errors.Is to test an error from the interpreter or
// the oracle against them.
var (
	// ErrMalformedFixture reports a loop that never terminates, an
	// exhausted iteration or step budget, or integer overflow.
	ErrMalformedFixture = types.ErrMalformedFixture

	// ErrFormatOverflow reports a printf argument outside the int range.
	ErrFormatOverflow = types.ErrFormatOverflow
)

// ParseError represents a syntax error in C source code.
type ParseError struct {
	Line    int    // 1-based line number
	Column  int    // 1-based column number
	Message string // Error description
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Column, e.Message)
}

// CompileError represents a semantic error during compilation.
type CompileError struct {
	Line    int   // 1-based line number, 0 if unknown
	Kind    error // fault kind, if any
	Message string
}

func (e *CompileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("compile error at line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("compile error: %s", e.Message)
}

// Unwrap returns the fault kind.
func (e *CompileError) Unwrap() error {
	return e.Kind
}

// RuntimeError represents a fault during execution. Output written
// before the fault is kept.
type RuntimeError struct {
	Line    int   // line of the statement being executed
	Kind    error // ErrMalformedFixture, ErrFormatOverflow or nil
	Message string
}

func (e *RuntimeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("runtime error at line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("runtime error: %s", e.Message)
}

// Unwrap returns the fault kind.
func (e *RuntimeError) Unwrap() error {
	return e.Kind
}

// ExitError reports that main returned a non-zero status.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit %d", e.Code)
}

// IsExitError reports whether err is an ExitError and returns the exit code.
func IsExitError(err error) (int, bool) {
	var e *ExitError
	if errors.As(err, &e) {
		return e.Code, true
	}
	return 0, false
}
