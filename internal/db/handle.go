package db

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Supported drivers.
const (
	DriverSQLite = "sqlite"
	DriverDuckDB = "duckdb"
)

// Handle is an open record database. Read serves analytical queries and Write
// loads data; for DuckDB both are the same pool.
type Handle struct {
	Driver string
	Read   *sql.DB
	Write  *sql.DB
}

// Open opens the record database for driver at path.
func Open(driver, path string) (*Handle, error) {
	switch driver {
	case DriverSQLite:
		if path == "" {
			return nil, fmt.Errorf("sqlite needs a database path")
		}
		writeDB, readDB, err := OpenSQLitePair(path, 4)
		if err != nil {
			return nil, err
		}
		return &Handle{Driver: driver, Read: readDB, Write: writeDB}, nil
	case DriverDuckDB:
		db, err := OpenDuckDB(path)
		if err != nil {
			return nil, err
		}
		return &Handle{Driver: driver, Read: db, Write: db}, nil
	default:
		return nil, fmt.Errorf("unsupported driver %q: must be %q or %q", driver, DriverSQLite, DriverDuckDB)
	}
}

// Close closes both pools.
func (h *Handle) Close() error {
	if h.Read == h.Write {
		return h.Read.Close()
	}
	return errors.Join(h.Read.Close(), h.Write.Close())
}
