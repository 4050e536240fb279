package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, int32(10), cfg.Store.MaxConns)
	assert.Equal(t, 6, cfg.Ingest.Workers)
	assert.Equal(t, 500, cfg.Ingest.BatchSize)
	assert.Equal(t, 20, cfg.Ingest.ErrorLogSample)
	assert.Equal(t, int64(1000), cfg.Ingest.ProgressEvery)
	assert.Equal(t, 30, cfg.Search.EntityLimit)
	assert.Equal(t, 10, cfg.Search.FictitiousLimit)
	assert.Equal(t, 10, cfg.Search.PartnershipLimit)
	assert.Equal(t, 50, cfg.Search.GlobalCap)
	assert.Equal(t, 500, cfg.Search.LookupTimeoutMS)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CORPSEARCH_STORE_DRIVER", "sqlite")
	t.Setenv("CORPSEARCH_STORE_DATABASE_URL", "file:corp.db")
	t.Setenv("CORPSEARCH_INGEST_WORKERS", "2")
	t.Setenv("CORPSEARCH_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "file:corp.db", cfg.Store.DatabaseURL)
	assert.Equal(t, 2, cfg.Ingest.Workers)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
store:
  driver: memory
search:
  global_cap: 25
server:
  port: 9999
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))
	t.Chdir(dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 25, cfg.Search.GlobalCap)
	assert.Equal(t, 9999, cfg.Server.Port)
	// Untouched keys keep their defaults.
	assert.Equal(t, 500, cfg.Ingest.BatchSize)
}

func TestLoad_BadConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0o644))
	t.Chdir(dir)

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "shouting", Format: "json"}))
}
