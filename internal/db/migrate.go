package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/pressly/goose/v3"
)

const migrationsDir = "migrations"

// RunMigrations applies the pending sample dataset migrations to a SQLite
// database through goose.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(EmbedMigrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// SeedSample loads the sample dataset into h. goose has no DuckDB dialect,
// so DuckDB runs the Up sections of the same migration files directly.
func SeedSample(ctx context.Context, h *Handle) error {
	switch h.Driver {
	case DriverSQLite:
		return RunMigrations(ctx, h.Write)
	case DriverDuckDB:
		return applyUpScripts(ctx, h.Write)
	default:
		return fmt.Errorf("unsupported driver %q", h.Driver)
	}
}

func applyUpScripts(ctx context.Context, db *sql.DB) error {
	names, err := fs.Glob(EmbedMigrations, migrationsDir+"/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		content, err := fs.ReadFile(EmbedMigrations, name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, upSection(string(content))); err != nil {
			return fmt.Errorf("apply %s: %w", name, err)
		}
	}
	return nil
}

// upSection returns the statements between the goose Up and Down markers.
func upSection(script string) string {
	var b strings.Builder
	inUp := false
	for _, line := range strings.Split(script, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "-- +goose Up"):
			inUp = true
			continue
		case strings.HasPrefix(trimmed, "-- +goose Down"):
			inUp = false
			continue
		case strings.HasPrefix(trimmed, "-- +goose"):
			continue
		}
		if inUp {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return strings.TrimSpace(b.String())
}
