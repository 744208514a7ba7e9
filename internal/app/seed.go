package app

import (
	"context"
	"fmt"
	"log/slog"

	"duck-olap/internal/db"
)

// Seed loads the sample dataset. Idempotent: SQLite tracks applied
// migrations through goose, and DuckDB is skipped when the tables exist.
func Seed(ctx context.Context, h *db.Handle, logger *slog.Logger) error {
	if h.Driver == db.DriverDuckDB {
		var n int
		err := h.Read.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM information_schema.tables WHERE table_name = 'people'`).Scan(&n)
		if err != nil {
			return fmt.Errorf("check sample tables: %w", err)
		}
		if n > 0 {
			logger.Info("sample data already present", "driver", h.Driver)
			return nil
		}
	}
	if err := db.SeedSample(ctx, h); err != nil {
		return fmt.Errorf("seed sample data: %w", err)
	}
	logger.Info("sample data loaded", "driver", h.Driver)
	return nil
}
