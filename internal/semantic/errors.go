// Package semantic provides semantic analysis for C fixture programs.
//
// The semantic analyzer performs:
//   - Name resolution: binding identifiers to block-scoped declarations
//   - Slot allocation: one VM local slot per declaration
//   - Validation: main is present, break/continue are inside loops,
//     printf arguments agree with the format string
package semantic

import (
	"fmt"
	"strings"

	"github.com/kolkov/ctrace/internal/token"
)

// Error represents a semantic analysis error with source location.
// Kind, when set, is a sentinel such as types.ErrMalformedFixture.
type Error struct {
	Pos     token.Position
	Message string
	Kind    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if !e.Pos.IsValid() {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// Unwrap returns the error kind.
func (e *Error) Unwrap() error {
	return e.Kind
}

// Warning represents a semantic warning (non-fatal issue).
type Warning struct {
	Pos     token.Position
	Message string
}

// String returns the warning as a formatted string.
func (w *Warning) String() string {
	return fmt.Sprintf("%s: warning: %s", w.Pos, w.Message)
}

// ErrorList is a collection of semantic errors.
type ErrorList []*Error

// Add appends an error to the list.
func (el *ErrorList) Add(pos token.Position, format string, args ...any) {
	*el = append(*el, &Error{
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	})
}

// Err returns an error if the list is non-empty, nil otherwise.
func (el ErrorList) Err() error {
	if len(el) == 0 {
		return nil
	}
	return el
}

// Error implements the error interface for ErrorList.
func (el ErrorList) Error() string {
	switch len(el) {
	case 0:
		return "no errors"
	case 1:
		return el[0].Error()
	default:
		var sb strings.Builder
		sb.WriteString(el[0].Error())
		for _, e := range el[1:] {
			sb.WriteByte('\n')
			sb.WriteString(e.Error())
		}
		return sb.String()
	}
}

// Unwrap exposes every error so errors.Is sees all kinds.
func (el ErrorList) Unwrap() []error {
	errs := make([]error, len(el))
	for i, e := range el {
		errs[i] = e
	}
	return errs
}

// WarningList is a collection of semantic warnings.
type WarningList []*Warning

// Add appends a warning to the list.
func (wl *WarningList) Add(pos token.Position, format string, args ...any) {
	*wl = append(*wl, &Warning{
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	})
}

const (
	errNoMain              = "program has no main function"
	errDuplicateFunc       = "function %q already defined"
	errUndeclared          = "%q undeclared"
	errRedeclared          = "redeclaration of %q"
	errBreakOutsideLoop    = "break statement not within a loop"
	errContinueOutsideLoop = "continue statement not within a loop"
	errConstOverflow       = "integer constant %s does not fit in int"
	errStringOperand       = "string literal cannot be used as an integer"
	errFormatNotLiteral    = "printf format must be a string literal"
	errBadFormat           = "printf: %v"
	errTooFewArgs          = "printf: format %q needs %d arguments, got %d"
	errArgKind             = "printf: %s expects %s argument"
	errArgCount            = "%s takes %d argument(s), got %d"
	errPutsArg             = "puts expects a string literal"
)

const (
	warnUnusedVar   = "variable %q is declared but never used"
	warnUnusedFunc  = "function %q is never called"
	warnTooManyArgs = "printf: format %q uses %d arguments, got %d"
	warnDivByZero   = "division by zero"
)
