package condition

import (
	"strconv"
	"strings"
)

// ResolvedValue is an operand after resolution: either the text of a
// primitive or literal, or the address of a remote object. Each operator
// converts it explicitly; there is no implicit coercion between the two.
type ResolvedValue struct {
	address   int64
	isAddress bool
	text      string
}

// Text returns a textual ResolvedValue.
func Text(s string) ResolvedValue {
	return ResolvedValue{text: s}
}

// Address returns an object-address ResolvedValue.
func Address(a int64) ResolvedValue {
	return ResolvedValue{address: a, isAddress: true}
}

// IsAddress reports whether v is an object address.
func (v ResolvedValue) IsAddress() bool { return v.isAddress }

// String returns the text, or the decimal address.
func (v ResolvedValue) String() string {
	if v.isAddress {
		return strconv.FormatInt(v.address, 10)
	}
	return v.text
}

// number returns v as an integer for address comparisons.
func (v ResolvedValue) number() (int64, bool) {
	if v.isAddress {
		return v.address, true
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v.text), 10, 64)
	return n, err == nil
}

// looseEquals implements "=": numeric equality when an address is involved,
// otherwise case-insensitive text equality.
func looseEquals(a, b ResolvedValue) bool {
	if a.isAddress || b.isAddress {
		x, ok1 := a.number()
		y, ok2 := b.number()
		return ok1 && ok2 && x == y
	}
	return strings.EqualFold(a.text, b.text)
}

// strictEquals implements "==": address equality when both are addresses,
// otherwise case-sensitive text equality.
func strictEquals(a, b ResolvedValue) bool {
	if a.isAddress && b.isAddress {
		return a.address == b.address
	}
	return a.String() == b.String()
}

// compareIntegers implements the ordering operators over base-10 integers.
// Addresses and non-integer text never compare.
func compareIntegers(a, b ResolvedValue, symbol string) bool {
	if a.isAddress || b.isAddress {
		return false
	}
	x, err := strconv.ParseInt(a.text, 10, 64)
	if err != nil {
		return false
	}
	y, err := strconv.ParseInt(b.text, 10, 64)
	if err != nil {
		return false
	}

	switch symbol {
	case "<":
		return x < y
	case "<=":
		return x <= y
	case ">":
		return x > y
	case ">=":
		return x >= y
	}
	return false
}

// truthy reports the truth value of a bare operand text.
func truthy(v ResolvedValue) bool {
	if v.isAddress {
		return false
	}
	return v.text != "" && v.text != "0"
}
