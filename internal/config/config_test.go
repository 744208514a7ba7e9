package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable LoadFromEnv reads.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DB_DRIVER", "DB_PATH", "CATALOG_PATH", "LISTEN_ADDR", "LOG_LEVEL", "ENV",
		"SEED_SAMPLE_DATA", "ALLOW_RAW_SQL", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "QUERY_TIMEOUT", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "olap.sqlite", cfg.DBPath)
	assert.Equal(t, "catalog.yaml", cfg.CatalogPath)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 100.0, cfg.RateLimitRPS)
	assert.Equal(t, 200, cfg.RateLimitBurst)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.SeedSample)
	assert.False(t, cfg.AllowRawSQL)
	assert.Empty(t, cfg.Warnings)
}

func TestLoadFromEnv_AllVarsSet(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "DuckDB")
	t.Setenv("DB_PATH", "/tmp/olap.duckdb")
	t.Setenv("CATALOG_PATH", "/etc/olap/catalog.yaml")
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SEED_SAMPLE_DATA", "yes")
	t.Setenv("ALLOW_RAW_SQL", "true")
	t.Setenv("RATE_LIMIT_RPS", "5.5")
	t.Setenv("RATE_LIMIT_BURST", "10")
	t.Setenv("QUERY_TIMEOUT", "2s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "duckdb", cfg.DBDriver)
	assert.Equal(t, "/tmp/olap.duckdb", cfg.DBPath)
	assert.Equal(t, "/etc/olap/catalog.yaml", cfg.CatalogPath)
	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.True(t, cfg.SeedSample)
	assert.True(t, cfg.AllowRawSQL)
	assert.Equal(t, 5.5, cfg.RateLimitRPS)
	assert.Equal(t, 10, cfg.RateLimitBurst)
	assert.Equal(t, 2*time.Second, cfg.QueryTimeout)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
}

func TestLoadFromEnv_InMemoryDuckDBWarns(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "duckdb")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Empty(t, cfg.DBPath)
	require.Len(t, cfg.Warnings, 1)
	assert.Contains(t, cfg.Warnings[0], "in-memory")
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		key, value, want string
	}{
		{"DB_DRIVER", "postgres", "DB_DRIVER"},
		{"RATE_LIMIT_RPS", "fast", "RATE_LIMIT_RPS"},
		{"RATE_LIMIT_BURST", "-1", "RATE_LIMIT_BURST"},
		{"QUERY_TIMEOUT", "soon", "QUERY_TIMEOUT"},
		{"QUERY_TIMEOUT", "-5s", "QUERY_TIMEOUT"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := LoadFromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFromEnv_ProductionRejectsWildcardCORS(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "production")

	_, err := LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CORS wildcard")

	t.Setenv("CORS_ALLOWED_ORIGINS", "https://olap.example.com")
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestSlogLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug, "WARN": slog.LevelWarn, "warning": slog.LevelWarn,
		"error": slog.LevelError, "info": slog.LevelInfo, "": slog.LevelInfo,
	} {
		assert.Equal(t, want, (&Config{LogLevel: in}).SlogLevel(), in)
	}
}

func TestLoadDotEnv_FileNotFound(t *testing.T) {
	require.NoError(t, LoadDotEnv("/nonexistent/.env"))
}

func TestLoadDotEnv_ParsesFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "# comment\n\nOLAP_TEST_PLAIN=value\nexport OLAP_TEST_EXPORTED='quoted'\nnot a pair\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))
	t.Cleanup(func() {
		_ = os.Unsetenv("OLAP_TEST_PLAIN")
		_ = os.Unsetenv("OLAP_TEST_EXPORTED")
	})

	require.NoError(t, LoadDotEnv(envFile))
	assert.Equal(t, "value", os.Getenv("OLAP_TEST_PLAIN"))
	assert.Equal(t, "quoted", os.Getenv("OLAP_TEST_EXPORTED"))
}

func TestLoadDotEnv_EnvVarPrecedence(t *testing.T) {
	t.Setenv("OLAP_TEST_PRECEDENCE", "from_env")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("OLAP_TEST_PRECEDENCE=from_file\n"), 0o644))

	require.NoError(t, LoadDotEnv(envFile))
	assert.Equal(t, "from_env", os.Getenv("OLAP_TEST_PRECEDENCE"))
}
