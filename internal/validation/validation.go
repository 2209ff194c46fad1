package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Collector accumulates validation errors without failing on first.
type Collector struct {
	errors []ValidationError
}

// Add appends a validation error to the collector if non-nil.
func (c *Collector) Add(err *ValidationError) {
	if err != nil {
		c.errors = append(c.errors, *err)
	}
}

// HasErrors returns true if the collector has accumulated any errors.
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns all accumulated validation errors.
func (c *Collector) Errors() []ValidationError {
	return c.errors
}

// Summary joins all errors as "field: message; field: message".
func (c *Collector) Summary() string {
	parts := make([]string, len(c.errors))
	for i, e := range c.errors {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// ValidateRequired returns an error if the parameter is absent.
func ValidateRequired(field string, present bool) *ValidationError {
	if !present {
		return &ValidationError{
			Field:   field,
			Message: "is required",
		}
	}
	return nil
}

// ValidateNumber returns an error if the value is not a finite decimal number.
func ValidateNumber(field, value string) *ValidationError {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return &ValidationError{
			Field:   field,
			Message: "must be a number",
		}
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return &ValidationError{
			Field:   field,
			Message: "must be finite",
		}
	}
	return nil
}

// ValidateOperand checks that values[field] is present and a finite number.
func ValidateOperand(values map[string]string, field string) *ValidationError {
	raw, present := values[field]
	if err := ValidateRequired(field, present); err != nil {
		return err
	}
	return ValidateNumber(field, raw)
}
