// Package types defines runtime value types and fault kinds for ctrace.
package types

import (
	"math"
	"strconv"
)

// Kind represents the type of a runtime value.
type Kind uint8

const (
	KindInt Kind = iota // C int (int32 range)
	KindStr             // String literal (only ever a printf/puts argument)
)

// String returns a string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindStr:
		return "str"
	default:
		return "unknown"
	}
}

// Value is a fixture-subset runtime value.
// The zero Value is the int 0, which matches C's zero initialization
// used by the fixtures for declared-but-unset locals.
type Value struct {
	kind Kind
	num  int64
	str  string
}

// Int creates an integer value. The caller is responsible for range checks;
// see InIntRange.
func Int(n int64) Value {
	return Value{kind: KindInt, num: n}
}

// Str creates a string value.
func Str(s string) Value {
	return Value{kind: KindStr, str: s}
}

// Bool creates an integer value from a boolean (1 for true, 0 for false).
func Bool(b bool) Value {
	if b {
		return Int(1)
	}
	return Int(0)
}

// Kind returns the value's type.
func (v Value) Kind() Kind {
	return v.kind
}

// IsStr returns true if the value is a string.
func (v Value) IsStr() bool {
	return v.kind == KindStr
}

// AsInt returns the integer value. Strings convert to 0.
func (v Value) AsInt() int64 {
	if v.kind == KindInt {
		return v.num
	}
	return 0
}

// AsBool returns the C truthiness of the value.
func (v Value) AsBool() bool {
	if v.kind == KindStr {
		return true
	}
	return v.num != 0
}

// AsStr returns the string form of the value.
func (v Value) AsStr() string {
	if v.kind == KindStr {
		return v.str
	}
	return strconv.FormatInt(v.num, 10)
}

// String implements fmt.Stringer for debugging.
func (v Value) String() string {
	if v.kind == KindStr {
		return strconv.Quote(v.str)
	}
	return strconv.FormatInt(v.num, 10)
}

// InIntRange reports whether n fits a C int.
func InIntRange(n int64) bool {
	return n >= math.MinInt32 && n <= math.MaxInt32
}

