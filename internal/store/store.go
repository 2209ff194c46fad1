package store

import (
	"context"

	"github.com/hyperengineering/abacus/internal/types"
)

// Store defines the interface contract for calculation persistence.
// Records are append-only: there is no update or delete.
type Store interface {
	// EnsureSchema creates the calculations table if it is missing.
	// It is idempotent and safe to call before every write.
	EnsureSchema(ctx context.Context) error
	// Append inserts one calculation and returns its assigned id.
	Append(ctx context.Context, calc types.NewCalculation) (int64, error)
	// ListAll returns every record ordered by id ascending.
	ListAll(ctx context.Context) ([]types.CalculationRecord, error)
	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)
	Close() error
}
