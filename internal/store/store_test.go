package store

import (
	"context"

	"github.com/hyperengineering/abacus/internal/types"
)

// mockStore is a compile-time check that the Store interface can be implemented.
type mockStore struct{}

var _ Store = (*mockStore)(nil)

func (m *mockStore) EnsureSchema(ctx context.Context) error {
	return nil
}
func (m *mockStore) Append(ctx context.Context, calc types.NewCalculation) (int64, error) {
	return 0, nil
}
func (m *mockStore) ListAll(ctx context.Context) ([]types.CalculationRecord, error) {
	return nil, nil
}
func (m *mockStore) Count(ctx context.Context) (int64, error) {
	return 0, nil
}
func (m *mockStore) Close() error {
	return nil
}
