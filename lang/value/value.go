// Package value defines the runtime representation of values manipulated by
// the Ember virtual machine: the tagged Value union (Nil, Bool, Number,
// String, Object) and the sum-typed Object (Function, NativeFunction).
package value

import (
	"strconv"
)

// Value is the interface implemented by every value the VM can hold on its
// operand stack, store in a local slot, or bind to a name.
//
// The concrete types implementing Value are: Nil, Bool, Number, String, and
// the Object variants Function and NativeFunction. Cross-variant equality is
// always false; see Equal.
type Value interface {
	// String returns the value's canonical textual form, as printed by the
	// print statement.
	String() string
	// Type returns a short, human-readable name of the value's type, used in
	// runtime error messages.
	Type() string
}

// NilType is the type of Nil. Its only legal value is the Nil constant.
type NilType struct{}

// Nil is the singular value of NilType.
var Nil = NilType{}

var _ Value = Nil

func (NilType) String() string { return "nil" }
func (NilType) Type() string   { return "nil" }

// Bool is the type of boolean values.
type Bool bool

var (
	_ Value = Bool(false)

	// True and False are provided for convenience; they are equivalent to
	// Bool(true) and Bool(false).
	True  = Bool(true)
	False = Bool(false)
)

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (Bool) Type() string { return "bool" }

// Number is the type of numeric values, represented as a double-precision
// float.
type Number float64

var _ Value = Number(0)

func (n Number) String() string {
	return strconv.FormatFloat(float64(n), 'g', -1, 64)
}
func (Number) Type() string { return "number" }

// String is the type of immutable text values.
type String string

var _ Value = String("")

func (s String) String() string { return string(s) }
func (String) Type() string     { return "string" }

// IsFalsy reports whether v is considered false in a boolean context: Nil
// and Bool(false) are falsy, everything else (including Number(0) and the
// empty string) is truthy.
func IsFalsy(v Value) bool {
	switch v := v.(type) {
	case NilType:
		return true
	case Bool:
		return !bool(v)
	default:
		return false
	}
}

// Equal reports whether x and y are equal values. Values of different
// variants are never equal; NaN is never equal to itself, per IEEE-754.
func Equal(x, y Value) bool {
	switch x := x.(type) {
	case NilType:
		_, ok := y.(NilType)
		return ok
	case Bool:
		yb, ok := y.(Bool)
		return ok && x == yb
	case Number:
		yn, ok := y.(Number)
		return ok && float64(x) == float64(yn)
	case String:
		ys, ok := y.(String)
		return ok && x == ys
	case *Function:
		return x == y
	case *NativeFunction:
		return x == y
	default:
		return false
	}
}
