package calc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hyperengineering/abacus/internal/metrics"
	"github.com/hyperengineering/abacus/internal/query"
	"github.com/hyperengineering/abacus/internal/store"
	"github.com/hyperengineering/abacus/internal/types"
	"github.com/hyperengineering/abacus/internal/validation"
)

// Query parameter names read by Calculate.
const (
	ParamNum1 = "num1"
	ParamNum2 = "num2"
)

// ErrInvalidInput is matched by every *InputError.
var ErrInvalidInput = errors.New("invalid calculation input")

// InputError lists the operands rejected in strict mode.
type InputError struct {
	Errors []validation.ValidationError
}

func (e *InputError) Error() string {
	c := validation.Collector{}
	for i := range e.Errors {
		c.Add(&e.Errors[i])
	}
	return c.Summary()
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// Options controls how Service treats input and the schema.
type Options struct {
	// StrictInput rejects absent or malformed operands instead of coercing them to 0.
	StrictInput bool
	// EnsureSchemaPerRequest re-checks the schema before every append.
	EnsureSchemaPerRequest bool
}

// Service runs the calculate and history flows against an injected store.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	store store.Store
	opts  Options
}

// NewService creates a Service backed by s.
func NewService(s store.Store, opts Options) *Service {
	return &Service{store: s, opts: opts}
}

// Calculate parses num1 and num2 from rawQuery, computes the result and
// appends it to the store. Nothing is returned unless the append succeeded.
func (s *Service) Calculate(ctx context.Context, rawQuery string) (*types.CalculationResult, error) {
	num1, num2, err := s.operands(query.Parse(rawQuery))
	if err != nil {
		return nil, err
	}

	result := Compute(num1, num2)

	if s.opts.EnsureSchemaPerRequest {
		if err := s.store.EnsureSchema(ctx); err != nil {
			metrics.StorageErrorsTotal.WithLabelValues("ensure_schema").Inc()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
	}

	id, err := s.store.Append(ctx, types.NewCalculation{
		Num1:              num1,
		Num2:              num2,
		CalculationResult: result,
	})
	if err != nil {
		metrics.StorageErrorsTotal.WithLabelValues("append").Inc()
		return nil, fmt.Errorf("persist calculation: %w", err)
	}

	outcome := metrics.DivisionDefined
	if !result.DivisionDefined() {
		outcome = metrics.DivisionByZero
	}
	metrics.CalculationsTotal.WithLabelValues(outcome).Inc()

	slog.Debug("calculation stored",
		"component", "calc",
		"id", id,
		"num1", num1,
		"num2", num2,
		"division", result.Division,
	)

	return &result, nil
}

// History returns every stored calculation in insertion order.
func (s *Service) History(ctx context.Context) ([]types.CalculationRecord, error) {
	records, err := s.store.ListAll(ctx)
	if err != nil {
		metrics.StorageErrorsTotal.WithLabelValues("list").Inc()
		return nil, fmt.Errorf("list calculations: %w", err)
	}
	return records, nil
}

func (s *Service) operands(values map[string]string) (float64, float64, error) {
	if s.opts.StrictInput {
		var c validation.Collector
		c.Add(validation.ValidateOperand(values, ParamNum1))
		c.Add(validation.ValidateOperand(values, ParamNum2))
		if c.HasErrors() {
			return 0, 0, &InputError{Errors: c.Errors()}
		}
	}
	return operand(values, ParamNum1), operand(values, ParamNum2), nil
}

// operand returns the named operand, coercing absent or malformed input to 0.
func operand(values map[string]string, name string) float64 {
	f, present, ok := query.Float(values, name)
	if !ok {
		metrics.InputsCoercedTotal.WithLabelValues(name).Inc()
		slog.Debug("operand coerced to zero",
			"component", "calc",
			"param", name,
			"present", present,
		)
		return 0
	}
	return f
}
