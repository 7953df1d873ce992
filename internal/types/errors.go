package types

import "errors"

// Fault kinds shared by the oracle and the interpreter.
// Both are fatal to a single run.
var (
	// ErrMalformedFixture marks bounds that never terminate, exhausted
	// iteration budgets, and integer overflow of loop state.
	ErrMalformedFixture = errors.New("malformed fixture")

	// ErrFormatOverflow marks a printf interpolation of a value outside
	// the representable int range.
	ErrFormatOverflow = errors.New("format overflow")
)
