package types

import (
	"encoding/json"
	"math"
	"time"
)

// DivisionByZero is stored and returned in place of a quotient when the divisor is zero.
const DivisionByZero = "undefined (division by zero)"

// Number is a float64 that encodes non-finite values as JSON null.
// Finite values encode exactly like float64.
type Number float64

// MarshalJSON implements json.Marshaler for Number.
func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// CalculationResult is the outcome of one calculation as returned to callers.
type CalculationResult struct {
	Addition       Number `json:"addition"`
	Subtraction    Number `json:"subtraction"`
	Multiplication Number `json:"multiplication"`
	Division       string `json:"division"`
}

// DivisionDefined reports whether the quotient was computable.
func (r CalculationResult) DivisionDefined() bool {
	return r.Division != DivisionByZero
}

// NewCalculation is a calculation ready to be appended to the store.
type NewCalculation struct {
	Num1 float64
	Num2 float64
	CalculationResult
}

// CalculationRecord is one persisted calculation.
// ID and CreatedAt are assigned by the store and are not part of the wire format.
type CalculationRecord struct {
	ID             int64     `json:"-"`
	Num1           Number    `json:"num1"`
	Num2           Number    `json:"num2"`
	Addition       Number    `json:"addition"`
	Subtraction    Number    `json:"subtraction"`
	Multiplication Number    `json:"multiplication"`
	Division       string    `json:"division"`
	CreatedAt      time.Time `json:"-"`
}

// Result returns the calculation outputs of the record.
func (r CalculationRecord) Result() CalculationResult {
	return CalculationResult{
		Addition:       r.Addition,
		Subtraction:    r.Subtraction,
		Multiplication: r.Multiplication,
		Division:       r.Division,
	}
}
