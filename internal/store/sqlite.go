package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hyperengineering/abacus/internal/types"
	_ "modernc.org/sqlite"
)

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore persists calculations in a single SQLite table.
type SQLiteStore struct {
	db *sql.DB

	// writeMu serializes appends; readers go straight to the pool.
	writeMu sync.Mutex
	now     func() time.Time
}

// pragmas are applied to every pooled connection through the DSN.
var pragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and
// ensures the calculations schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Every connection to :memory: is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	s := &SQLiteStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}

	if err := s.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func dsn(dbPath string) string {
	params := make([]string, len(pragmas))
	for i, p := range pragmas {
		params[i] = "_pragma=" + p
	}
	return dbPath + "?" + strings.Join(params, "&")
}

// EnsureSchema runs the embedded migrations. Already-applied migrations are skipped.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	if err := RunMigrations(ctx, s.db); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

// Append inserts one calculation and returns the id SQLite assigned to it.
func (s *SQLiteStore) Append(ctx context.Context, calc types.NewCalculation) (int64, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO calculations (num1, num2, addition, subtraction, multiplication, division, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, calc.Num1, calc.Num2,
		float64(calc.Addition), float64(calc.Subtraction), float64(calc.Multiplication),
		calc.Division, s.now().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("%w: insert calculation: %w", ErrUnavailable, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: read inserted id: %w", ErrUnavailable, err)
	}
	return id, nil
}

// ListAll returns every stored calculation in insertion order.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]types.CalculationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, num1, num2, addition, subtraction, multiplication, division, created_at
		FROM calculations
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: query calculations: %w", ErrUnavailable, err)
	}
	defer rows.Close()

	records := []types.CalculationRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan calculation: %w", ErrUnavailable, err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate calculations: %w", ErrUnavailable, err)
	}

	return records, nil
}

// Count returns the number of stored calculations.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM calculations").Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: count calculations: %w", ErrUnavailable, err)
	}
	return count, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanRecord scans a row into a CalculationRecord, parsing the stored timestamp.
func scanRecord(scanner interface{ Scan(...any) error }) (*types.CalculationRecord, error) {
	var (
		rec           types.CalculationRecord
		num1, num2    float64
		add, sub, mul float64
		createdAt     string
	)

	err := scanner.Scan(&rec.ID, &num1, &num2, &add, &sub, &mul, &rec.Division, &createdAt)
	if err != nil {
		return nil, err
	}

	rec.Num1 = types.Number(num1)
	rec.Num2 = types.Number(num2)
	rec.Addition = types.Number(add)
	rec.Subtraction = types.Number(sub)
	rec.Multiplication = types.Number(mul)

	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		rec.CreatedAt = t
	}

	return &rec, nil
}
