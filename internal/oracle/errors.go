package oracle

import (
	"fmt"

	"github.com/kolkov/ctrace/internal/types"
)

// Error is a fault detected while validating or executing a Program.
// Kind is types.ErrMalformedFixture or types.ErrFormatOverflow.
type Error struct {
	Kind    error
	Step    string // label of the failing step, if any
	Message string
}

func (e *Error) Error() string {
	if e.Step != "" {
		return e.Step + ": " + e.Message
	}
	return e.Message
}

// Unwrap returns the fault kind.
func (e *Error) Unwrap() error {
	return e.Kind
}

func malformed(step, format string, args ...any) *Error {
	return &Error{Kind: types.ErrMalformedFixture, Step: step, Message: fmt.Sprintf(format, args...)}
}
