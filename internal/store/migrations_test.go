//go:build integration

package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func TestRunMigrations_FreshDatabase(t *testing.T) {
	// Given: A fresh database with no tables
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// When: RunMigrations is called
	if err := RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("RunMigrations failed: %v", err)
	}

	// Then: The calculations table exists with all required columns
	var tableName string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='calculations'`).Scan(&tableName)
	if err != nil {
		t.Fatalf("calculations table not created: %v", err)
	}

	_, err = db.Exec(`
		SELECT id, num1, num2, addition, subtraction, multiplication, division, created_at
		FROM calculations LIMIT 0
	`)
	if err != nil {
		t.Fatalf("calculations missing required columns: %v", err)
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("first migration failed: %v", err)
	}

	if err := RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("second migration should be idempotent, got error: %v", err)
	}
}

func TestRunMigrations_PreservesData(t *testing.T) {
	// Given: A database with existing data
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("initial migration failed: %v", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = db.Exec(`
		INSERT INTO calculations (num1, num2, addition, subtraction, multiplication, division, created_at)
		VALUES (10, 4, 14, 6, 40, '2.5', ?)
	`, now)
	if err != nil {
		t.Fatalf("failed to insert test data: %v", err)
	}

	// When: RunMigrations is called again
	if err := RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("re-migration failed: %v", err)
	}

	// Then: Existing data is preserved
	var division string
	err = db.QueryRow(`SELECT division FROM calculations WHERE num1 = 10`).Scan(&division)
	if err != nil {
		t.Fatalf("data not preserved after migration: %v", err)
	}
	if division != "2.5" {
		t.Errorf("expected division '2.5', got %q", division)
	}
}

func TestSchema_AutoincrementNeverReusesIDs(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("migration failed: %v", err)
	}

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='sqlite_sequence'`).Scan(&name)
	if err != nil {
		t.Fatalf("sqlite_sequence missing, calculations.id is not AUTOINCREMENT: %v", err)
	}
}
