// Package generic expresses a subset of the concept library as Go type
// constraints, so Go code gets the same checks from the compiler.
//
// Only concepts whose requirements Go can state as a type set have a
// counterpart: the operator families of the built-in numeric types and
// equality. Iterator, container and allocator concepts depend on member
// types and overload resolution and stay with the engine.
package generic

import (
	"golang.org/x/exp/constraints"
)

// Integral is satisfied by the integer types, like the Integral concept.
type Integral interface {
	constraints.Integer
}

// Floating is satisfied by the floating point types.
type Floating interface {
	constraints.Float
}

// Arithmetic admits + - * / between two values of the type.
type Arithmetic interface {
	constraints.Integer | constraints.Float | constraints.Complex
}

// Bitmask admits ^x | & ^ and the shifts.
type Bitmask interface {
	constraints.Integer
}

// Incrementable admits ++ and --.
type Incrementable interface {
	constraints.Integer | constraints.Float
}

// Ordered admits the relational operators as well as == and !=.
type Ordered interface {
	constraints.Ordered
}

// Counterparts maps concept names to the constraint with the same
// requirements in this package.
var Counterparts = map[string]string{
	"Integral":             "Integral",
	"FloatingPoint":        "Floating",
	"Arithmetic":           "Arithmetic",
	"Bitmask":              "Bitmask",
	"Incrementable":        "Incrementable",
	"Ordered":              "Ordered",
	"Comparable":           "comparable",
	"DefaultConstructible": "any",
}

// IsSigned reports whether T is a signed integer type.
func IsSigned[T Integral]() bool {
	var t T
	t--
	return t < 0
}

// Max returns the larger of a and b, preferring a when they are equal.
func Max[T Ordered](a, b T) T {
	if b > a {
		return b
	}
	return a
}

// Min returns the smaller of a and b, preferring a when they are equal.
func Min[T Ordered](a, b T) T {
	if b < a {
		return b
	}
	return a
}

// Clamp limits v to [lo, hi].
func Clamp[T Ordered](v, lo, hi T) T {
	return Min(Max(v, lo), hi)
}

// Sum adds the values in order, starting from the zero value.
func Sum[T Arithmetic](values ...T) T {
	var total T
	for _, v := range values {
		total += v
	}
	return total
}

// Mask returns the bits set in all of the values; no values gives zero.
func Mask[T Bitmask](values ...T) T {
	if len(values) == 0 {
		return 0
	}
	m := values[0]
	for _, v := range values[1:] {
		m &= v
	}
	return m
}

// IterSwap exchanges the values a and b point to.
func IterSwap[T any](a, b *T) {
	*a, *b = *b, *a
}

// Rotate moves s[mid] to the front, keeping the relative order of the rest,
// and returns the new index of the element that was first.
func Rotate[T any](s []T, mid int) int {
	if mid <= 0 || mid >= len(s) {
		return 0
	}
	reverse(s[:mid])
	reverse(s[mid:])
	reverse(s)
	return len(s) - mid
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		IterSwap(&s[i], &s[j])
	}
}

// Count returns the number of elements equal to v.
func Count[T comparable](s []T, v T) int {
	n := 0
	for _, x := range s {
		if x == v {
			n++
		}
	}
	return n
}
