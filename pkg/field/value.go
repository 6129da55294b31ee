// Package field parses loosely typed component specification fields.
//
// A field is held as a [Value]: absent, a number, a piece of text or a
// boolean. Parse strategies ([Int], [Float], [Unit], [Leading], [CountSize],
// [Lines], [Contains], [Flag] and [TierTable]) turn a Value into the number
// or category a scorer needs. Absent input yields [ErrAbsent]; present input
// that does not fit the strategy yields an error wrapping [ErrMalformed].
package field

import (
	"fmt"
	"math"
	"strconv"
)

// Kind identifies what a Value holds.
type Kind int

const (
	KindAbsent Kind = iota
	KindNumber
	KindText
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	default:
		return "absent"
	}
}

// Value is a single field of a component record. The zero Value is absent.
type Value struct {
	kind Kind
	num  float64
	text string
	flag bool
}

// Absent returns a Value with no content.
func Absent() Value {
	return Value{}
}

// Number returns a numeric Value.
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// Text returns a textual Value.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Bool returns a boolean Value.
func Bool(b bool) Value {
	return Value{kind: KindBool, flag: b}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsAbsent() bool {
	return v.kind == KindAbsent
}

// String renders the value the way the loader would have stored it.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText:
		return v.text
	case KindBool:
		return strconv.FormatBool(v.flag)
	default:
		return ""
	}
}

// GoString makes values readable in test failure output.
func (v Value) GoString() string {
	return fmt.Sprintf("field.Value{%s:%q}", v.kind, v.String())
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
