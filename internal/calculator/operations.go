package calculator

import "errors"

// ErrDivideByZero is the domain error for an undefined division. The text is
// part of the API contract and is returned verbatim to clients.
var ErrDivideByZero = errors.New("Cannot divide by zero!")

// Add returns a + b.
func Add(a, b float64) float64 { return a + b }

// Subtract returns a - b.
func Subtract(a, b float64) float64 { return a - b }

// Multiply returns a * b.
func Multiply(a, b float64) float64 { return a * b }

// Divide returns a / b, failing with ErrDivideByZero when b is zero.
func Divide(a, b float64) (float64, error) {
	if b == 0 {
		return 0, ErrDivideByZero
	}
	return a / b, nil
}
