// Package safe provides overflow-checked unsigned arithmetic for monetary
// values. All operations return an error instead of wrapping silently.
package safe

import (
	"errors"
	"math/bits"
)

var (
	// ErrOverflow is returned when a result does not fit in uint64.
	ErrOverflow = errors.New("arithmetic overflow")

	// ErrUnderflow is returned when a subtraction would go below zero.
	ErrUnderflow = errors.New("arithmetic underflow")
)

// Add returns a+b, or ErrOverflow.
func Add(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrOverflow
	}
	return sum, nil
}

// Sub returns a-b, or ErrUnderflow when b > a.
func Sub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, ErrUnderflow
	}
	return diff, nil
}

// MulDiv returns a*b/den with a 128-bit intermediate product and truncating
// division. It returns ErrOverflow when the quotient does not fit in uint64
// (or den is zero).
func MulDiv(a, b, den uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if den == 0 || hi >= den {
		return 0, ErrOverflow
	}
	q, _ := bits.Div64(hi, lo, den)
	return q, nil
}
