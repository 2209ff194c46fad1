package store

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hyperengineering/abacus/internal/types"
)

// newTestStore opens a file-backed store in a temp dir and closes it on cleanup.
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "calculations.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newCalc(num1, num2 float64, division string) types.NewCalculation {
	return types.NewCalculation{
		Num1: num1,
		Num2: num2,
		CalculationResult: types.CalculationResult{
			Addition:       types.Number(num1 + num2),
			Subtraction:    types.Number(num1 - num2),
			Multiplication: types.Number(num1 * num2),
			Division:       division,
		},
	}
}

func TestStore_NewSQLiteStore(t *testing.T) {
	s := newTestStore(t)

	count, err := s.Count(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("Expected count 0, got %d", count)
	}
}

func TestStore_NewSQLiteStore_CreatesParentDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "calculations.db")

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestStore_MemoryDatabase(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx := context.Background()
	if _, err := s.Append(ctx, newCalc(1, 2, "0.5")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	records, err := s.ListAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Errorf("len(records) = %d, want 1", len(records))
	}
}

func TestStore_AppendThenListAll_PreservesOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inputs := []types.NewCalculation{
		newCalc(10, 4, "2.5"),
		newCalc(5, 0, types.DivisionByZero),
		newCalc(-1.5, 3, "-0.5"),
		newCalc(1e300, 1e300, "1"),
	}

	var ids []int64
	for _, in := range inputs {
		id, err := s.Append(ctx, in)
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		ids = append(ids, id)
	}

	records, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(records) != len(inputs) {
		t.Fatalf("len(records) = %d, want %d", len(records), len(inputs))
	}

	for i, rec := range records {
		in := inputs[i]
		if rec.ID != ids[i] {
			t.Errorf("record %d: ID = %d, want %d", i, rec.ID, ids[i])
		}
		if i > 0 && rec.ID <= records[i-1].ID {
			t.Errorf("record %d: ID %d not greater than previous %d", i, rec.ID, records[i-1].ID)
		}
		if float64(rec.Num1) != in.Num1 || float64(rec.Num2) != in.Num2 {
			t.Errorf("record %d: operands = (%v, %v), want (%v, %v)", i, rec.Num1, rec.Num2, in.Num1, in.Num2)
		}
		if rec.Result() != in.CalculationResult {
			t.Errorf("record %d: result = %+v, want %+v", i, rec.Result(), in.CalculationResult)
		}
		if rec.CreatedAt.IsZero() {
			t.Errorf("record %d: CreatedAt not set", i)
		}
	}
}

func TestStore_ListAll_EmptyIsNotNil(t *testing.T) {
	s := newTestStore(t)

	records, err := s.ListAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if records == nil {
		t.Error("ListAll() on empty store returned nil, want empty slice")
	}
}

func TestStore_Append_InfiniteResultRoundTrips(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := newCalc(math.MaxFloat64, math.MaxFloat64, "1")
	if _, err := s.Append(ctx, in); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	records, err := s.ListAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsInf(float64(records[0].Addition), 1) {
		t.Errorf("Addition = %v, want +Inf", records[0].Addition)
	}
}

func TestStore_EnsureSchema_Idempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Append(ctx, newCalc(10, 4, "2.5")); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		if err := s.EnsureSchema(ctx); err != nil {
			t.Fatalf("EnsureSchema() call %d error = %v", i+1, err)
		}
	}

	var tables int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='calculations'`).Scan(&tables)
	if err != nil {
		t.Fatal(err)
	}
	if tables != 1 {
		t.Errorf("calculations table definitions = %d, want 1", tables)
	}

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("count after EnsureSchema = %d, want 1", count)
	}
}

func TestStore_EnsureSchema_Concurrent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.EnsureSchema(ctx); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent EnsureSchema() error = %v", err)
	}
}

func TestStore_ConcurrentAppend_UniqueIDs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const writers = 50
	var wg sync.WaitGroup
	ids := make(chan int64, writers)
	errs := make(chan error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id, err := s.Append(ctx, newCalc(float64(n), 1, "1"))
			if err != nil {
				errs <- err
				return
			}
			ids <- id
		}(i)
	}
	wg.Wait()
	close(ids)
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent Append() error = %v", err)
	}

	seen := make(map[int64]bool)
	for id := range ids {
		if seen[id] {
			t.Errorf("duplicate id %d", id)
		}
		seen[id] = true
	}
	if len(seen) != writers {
		t.Errorf("unique ids = %d, want %d", len(seen), writers)
	}

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != writers {
		t.Errorf("count = %d, want %d", count, writers)
	}
}

func TestStore_AppendAfterClose_ReturnsErrUnavailable(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "calculations.db"))
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	_, err = s.Append(context.Background(), newCalc(1, 1, "1"))
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Append() after Close error = %v, want ErrUnavailable", err)
	}

	_, err = s.ListAll(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("ListAll() after Close error = %v, want ErrUnavailable", err)
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "calculations.db")
	ctx := context.Background()

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	first, err := s.Append(ctx, newCalc(10, 4, "2.5"))
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	second, err := s.Append(ctx, newCalc(3, 3, "1"))
	if err != nil {
		t.Fatal(err)
	}
	if second <= first {
		t.Errorf("id after reopen = %d, want > %d", second, first)
	}

	count, err := s.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

func TestStore_CreatedAtUsesClock(t *testing.T) {
	s := newTestStore(t)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	ctx := context.Background()
	if _, err := s.Append(ctx, newCalc(1, 1, "1")); err != nil {
		t.Fatal(err)
	}

	records, err := s.ListAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !records[0].CreatedAt.Equal(fixed) {
		t.Errorf("CreatedAt = %v, want %v", records[0].CreatedAt, fixed)
	}
}
