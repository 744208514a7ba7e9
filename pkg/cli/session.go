package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"duck-olap/internal/app"
	"duck-olap/internal/config"
	"duck-olap/internal/db"
)

// options holds the global flags and the configuration they resolve to.
type options struct {
	catalog string
	driver  string
	dbPath  string
	output  string
	seed    bool
	rawSQL  bool
	verbose bool

	cfg *config.Config
}

// resolve merges flags over the environment. Precedence: flag > env > default.
func (o *options) resolve(cmd *cobra.Command) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("catalog") {
		cfg.CatalogPath = o.catalog
	}
	if flags.Changed("driver") {
		cfg.DBDriver = o.driver
	}
	if flags.Changed("db") {
		cfg.DBPath = o.dbPath
	}
	if flags.Changed("seed") {
		cfg.SeedSample = o.seed
	}
	if flags.Changed("allow-raw-sql") {
		cfg.AllowRawSQL = o.rawSQL
	}
	if o.verbose {
		cfg.LogLevel = "debug"
	}

	if !flags.Changed("output") {
		o.output = os.Getenv("OLAP_OUTPUT")
	}
	if o.output == "" {
		o.output = defaultOutputFormat()
		_ = cmd.Root().PersistentFlags().Set("output", o.output)
	}
	if err := validateOutputFormat(o.output); err != nil {
		return err
	}
	o.cfg = cfg
	return nil
}

func defaultOutputFormat() string {
	if term.IsTerminal(int(os.Stdout.Fd())) { //nolint:gosec // fd fits in int
		return "table"
	}
	return "json"
}

// logger writes to stderr so stdout stays machine-readable. Only warnings
// are shown unless --verbose is set.
func (o *options) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if o.cfg != nil && o.cfg.SlogLevel() == slog.LevelDebug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// openDB opens the configured record database.
func (o *options) openDB() (*db.Handle, error) {
	h, err := db.Open(o.cfg.DBDriver, o.cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", o.cfg.DBDriver, err)
	}
	return h, nil
}

// withApp wires the application for one command and closes the record
// database afterwards. The context carries the configured query timeout.
func (o *options) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	h, err := o.openDB()
	if err != nil {
		return err
	}
	defer h.Close() //nolint:errcheck

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if o.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.QueryTimeout)
		defer cancel()
	}

	a, err := app.New(ctx, app.Deps{Cfg: o.cfg, DB: h, Logger: o.logger(cmd)})
	if err != nil {
		return err
	}
	return fn(ctx, a)
}
