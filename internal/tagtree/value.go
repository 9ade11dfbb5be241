package tagtree

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is a single scalar from an element: either a number or text.
// Decimal and integer strings are accepted wherever a number is asked for.
type Value struct {
	text    string
	num     float64
	numeric bool
}

// Number returns a numeric Value.
func Number(f float64) Value {
	return Value{num: f, numeric: true}
}

// Text returns a textual Value.
func Text(s string) Value {
	return Value{text: s}
}

// Numbers converts fs into a slice of numeric values.
func Numbers(fs ...float64) []Value {
	out := make([]Value, len(fs))
	for i, f := range fs {
		out[i] = Number(f)
	}
	return out
}

// Float returns v as a float64, parsing text values.
func (v Value) Float() (float64, error) {
	if v.numeric {
		return v.num, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
	if err != nil {
		return 0, fmt.Errorf("value %q is not numeric", v.text)
	}
	return f, nil
}

// Int returns v as an int. Fractional numbers are rejected.
func (v Value) Int() (int, error) {
	f, err := v.Float()
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("value %v is not an integer", f)
	}
	return int(f), nil
}

func (v Value) String() string {
	if v.numeric {
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	}
	return v.text
}
