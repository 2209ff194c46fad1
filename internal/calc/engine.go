// Package calc implements the calculation engine and the request flow that
// parses operands, computes results and persists them.
package calc

import (
	"math"
	"strconv"

	"github.com/hyperengineering/abacus/internal/types"
)

// Compute returns the sum, difference, product and quotient of num1 and num2.
// A zero divisor (including negative zero) yields types.DivisionByZero.
func Compute(num1, num2 float64) types.CalculationResult {
	return types.CalculationResult{
		Addition:       types.Number(num1 + num2),
		Subtraction:    types.Number(num1 - num2),
		Multiplication: types.Number(num1 * num2),
		Division:       divide(num1, num2),
	}
}

func divide(num1, num2 float64) string {
	if num2 == 0 {
		return types.DivisionByZero
	}
	return FormatDecimal(num1 / num2)
}

// FormatDecimal renders f as the shortest decimal string that parses back to f,
// never using exponent notation: 2.5, 5, 0.3333333333333333.
func FormatDecimal(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "NaN"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
