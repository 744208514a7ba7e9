package db

import (
	"context"
	"path/filepath"
	"testing"
)

// OpenTestSQLite opens a SQLite handle in t.TempDir() loaded with the sample
// dataset and registers cleanup.
func OpenTestSQLite(t *testing.T) *Handle {
	t.Helper()

	h, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("open test sqlite: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })

	if err := SeedSample(context.Background(), h); err != nil {
		t.Fatalf("seed sample data: %v", err)
	}
	return h
}

// OpenTestDuckDB opens an in-memory DuckDB handle loaded with the sample
// dataset and registers cleanup.
func OpenTestDuckDB(t *testing.T) *Handle {
	t.Helper()

	h, err := Open(DriverDuckDB, "")
	if err != nil {
		t.Fatalf("open test duckdb: %v", err)
	}
	t.Cleanup(func() { _ = h.Close() })

	if err := SeedSample(context.Background(), h); err != nil {
		t.Fatalf("seed sample data: %v", err)
	}
	return h
}
