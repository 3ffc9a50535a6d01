// Package intmath provides floor, ceiling and clamped integer division as
// well as overflow-checked arithmetic and conversions.
//
// Go's / and % operators truncate towards zero. Calendar code almost always
// wants floor semantics instead, so that day -1 is the last day before the
// epoch and not a second day zero.
package intmath

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// RemFloor returns the remainder of a / b rounded towards negative infinity.
// The result carries the sign of b.
func RemFloor[T constraints.Integer](a, b T) T {
	r := a % b
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}

// DivModFloor returns q and r such that a = q*b + r and q = floor(a / b).
// For b > 0 the remainder is in [0, b).
func DivModFloor[T constraints.Integer](a, b T) (q, r T) {
	q, r = a/b, a%b
	if r != 0 && (r < 0) != (b < 0) {
		q--
		r += b
	}
	return q, r
}

// DivRemCeil returns q = ceil(a / b) and r = q*b - a.
func DivRemCeil[T constraints.Integer](a, b T) (q, r T) {
	q = a / b
	if rem := a % b; rem != 0 && (rem > 0) == (b > 0) {
		q++
	}
	return q, q*b - a
}

// ClampedDivRem returns q = min(a / b, maxQ) and r = a - q*b.
//
// Capping the quotient lets the final period of a cycle absorb one extra
// unit: with a = 4*365 and b = 365 the result is (3, 365) instead of (4, 0).
// It panics if q does not fit into Q.
func ClampedDivRem[T, Q constraints.Integer](a, b T, maxQ Q) (Q, T) {
	q := a / b
	if limit := T(maxQ); q > limit {
		q = limit
	}
	nq, ok := Convert[Q](q)
	if !ok {
		panic(fmt.Sprintf("intmath: quotient %d of %d / %d overflows quotient type", q, a, b))
	}
	return nq, a - q*b
}

// Convert converts v to To and reports whether the value survived the
// conversion unchanged.
func Convert[To, From constraints.Integer](v From) (To, bool) {
	c := To(v)
	if From(c) != v || (c < 0) != (v < 0) {
		return c, false
	}
	return c, true
}

// CheckedAdd returns a + b and false if the addition overflowed.
func CheckedAdd[T constraints.Signed](a, b T) (T, bool) {
	c := a + b
	return c, (c > a) == (b > 0)
}

// CheckedSub returns a - b and false if the subtraction overflowed.
func CheckedSub[T constraints.Signed](a, b T) (T, bool) {
	c := a - b
	return c, (c < a) == (b > 0)
}

// CheckedMul returns a * b and false if the multiplication overflowed.
func CheckedMul[T constraints.Signed](a, b T) (T, bool) {
	switch {
	case a == 0 || b == 0:
		return 0, true
	case a == -1:
		return CheckedSub(0, b)
	case b == -1:
		return CheckedSub(0, a)
	}
	c := a * b
	return c, c/b == a
}
