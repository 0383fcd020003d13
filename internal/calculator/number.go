// Package calculator holds the car cost comparison engine: loan amortization,
// the monthly cost comparison and its verdict, the shareable-URL input policy,
// and the form state machine that decides when a displayed result is stale.
//
// Everything here is pure and synchronous. Nothing in this package touches
// HTTP, storage or logging; the session layer and the client controller feed
// it values and read results back.
package calculator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Number is a numeric input that remembers whether it was supplied at all.
//
// WHY NOT *float64?
// A pointer would also distinguish "absent" from "zero", but it can't be
// decoded leniently: the JSON decoder never lets UnmarshalJSON turn a
// non-null value (like "") back into a nil pointer. A small value type with
// a presence bit handles null, "", numeric strings and plain numbers in one
// place, and works with the `omitzero` struct tag so absent fields vanish
// from the encoded document instead of turning into 0.
type Number struct {
	value float64
	set   bool
}

// Absent is the zero Number: no value was supplied.
var Absent Number

// Some returns a present Number.
func Some(v float64) Number {
	return Number{value: v, set: true}
}

// ParseNumber turns a raw form or query value into a Number.
//
// It is total: empty, unparseable and non-finite text ("abc", "NaN", "Inf")
// all come back as Absent instead of an error. Callers decide per field what
// an absent value means.
func ParseNumber(raw string) Number {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Absent
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Absent
	}
	return Some(v)
}

// Get returns the value and whether it was supplied.
func (n Number) Get() (float64, bool) {
	return n.value, n.set
}

// Present reports whether a value was supplied.
func (n Number) Present() bool {
	return n.set
}

// IsZero reports whether the Number is absent. encoding/json uses it for `omitzero`.
func (n Number) IsZero() bool {
	return !n.set
}

// Or returns the value, or fallback when absent.
func (n Number) Or(fallback float64) float64 {
	if !n.set {
		return fallback
	}
	return n.value
}

// OrNaN returns the value, or NaN when absent so the gap propagates through arithmetic.
func (n Number) OrNaN() float64 {
	return n.Or(math.NaN())
}

// Equal reports whether two Numbers hold the same state. go-cmp picks this up in tests.
func (n Number) Equal(o Number) bool {
	if n.set != o.set {
		return false
	}
	return !n.set || n.value == o.value
}

// String renders the value the way a form field would hold it, or "" when absent.
func (n Number) String() string {
	if !n.set {
		return ""
	}
	return strconv.FormatFloat(n.value, 'f', -1, 64)
}

// MarshalJSON writes the value, or null when absent or non-finite.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.set || math.IsNaN(n.value) || math.IsInf(n.value, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(n.value)
}

// UnmarshalJSON accepts numbers, numeric strings, "" and null.
// Anything else (booleans, objects, arrays) is a malformed document.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*n = Absent
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("calculator: decoding numeric string: %w", err)
		}
		*n = ParseNumber(s)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("calculator: %s is not a number", data)
	}
	*n = Some(v)
	return nil
}
