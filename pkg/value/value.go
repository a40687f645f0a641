// Package value defines the EcoLang runtime value model.
package value

import (
	"math"
	"strconv"
	"strings"
)

// Value is the interface for all EcoLang runtime values.
// Use the sealed marker method to restrict implementations to this package.
type Value interface {
	ecoValue() // sealed marker
}

// Int represents an integer number.
type Int struct {
	Value int64
}

func (Int) ecoValue() {}

// Float represents a floating-point number.
type Float struct {
	Value float64
}

func (Float) ecoValue() {}

// Bool represents a boolean value.
type Bool struct {
	Value bool
}

func (Bool) ecoValue() {}

// Str represents a string value.
type Str struct {
	Value string
}

func (Str) ecoValue() {}

// Array represents an ordered sequence of values. Arrays are immutable:
// builtins like append return a fresh Array and never alias Items.
type Array struct {
	Items []Value
}

func (Array) ecoValue() {}

// NewInt creates an integer value.
func NewInt(n int64) Value {
	return Int{Value: n}
}

// NewFloat creates a floating-point value.
func NewFloat(f float64) Value {
	return Float{Value: f}
}

// NewBool creates a boolean value.
func NewBool(b bool) Value {
	return Bool{Value: b}
}

// NewStr creates a string value.
func NewStr(s string) Value {
	return Str{Value: s}
}

// NewArray creates an array value owning the given items slice.
func NewArray(items []Value) Value {
	return Array{Items: items}
}

// IsNumber reports whether v is an Int or a Float.
func IsNumber(v Value) bool {
	switch v.(type) {
	case Int, Float:
		return true
	}
	return false
}

// AsFloat returns the numeric value of v as a float64.
// The second result is false when v is not a number.
func AsFloat(v Value) (float64, bool) {
	switch n := v.(type) {
	case Int:
		return float64(n.Value), true
	case Float:
		return n.Value, true
	}
	return 0, false
}

// Truthy returns the boolean interpretation of a value.
// false, 0, 0.0, "" and the empty array are falsy; everything else is truthy.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case Bool:
		return val.Value
	case Int:
		return val.Value != 0
	case Float:
		return val.Value != 0
	case Str:
		return val.Value != ""
	case Array:
		return len(val.Items) > 0
	default:
		return true
	}
}

// Equal recursively compares two values. Int and Float compare numerically,
// so 2 == 2.0 holds.
func Equal(a, b Value) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	if af, ok := AsFloat(a); ok {
		bf, ok := AsFloat(b)
		return ok && af == bf
	}

	switch av := a.(type) {
	case Bool:
		bv, ok := b.(Bool)
		return ok && av.Value == bv.Value

	case Str:
		bv, ok := b.(Str)
		return ok && av.Value == bv.Value

	case Array:
		bv, ok := b.(Array)
		if !ok || len(av.Items) != len(bv.Items) {
			return false
		}
		for i := range av.Items {
			if !Equal(av.Items[i], bv.Items[i]) {
				return false
			}
		}
		return true
	}

	return false
}

// TypeName returns the EcoLang type name for error messages.
func TypeName(v Value) string {
	switch v.(type) {
	case Int, Float:
		return "number"
	case Bool:
		return "boolean"
	case Str:
		return "string"
	case Array:
		return "array"
	default:
		return "unknown"
	}
}

// Display renders a value the way say prints it. Floats keep a trailing
// ".0" when integral so numeric kinds stay distinguishable in output.
func Display(v Value) string {
	switch val := v.(type) {
	case Int:
		return strconv.FormatInt(val.Value, 10)
	case Float:
		return formatFloat(val.Value)
	case Bool:
		if val.Value {
			return "true"
		}
		return "false"
	case Str:
		return val.Value
	case Array:
		var b strings.Builder
		b.WriteByte('[')
		for i, item := range val.Items {
			if i > 0 {
				b.WriteString(", ")
			}
			if s, ok := item.(Str); ok {
				b.WriteString(strconv.Quote(s.Value))
			} else {
				b.WriteString(Display(item))
			}
		}
		b.WriteByte(']')
		return b.String()
	default:
		return ""
	}
}

func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsNaN(f) {
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
