package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "store:\n  backend: pebble\n  path: data/archive\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendPebble, cfg.Store.Backend)
	assert.Equal(t, filepath.Join(dir, "data/archive"), cfg.Store.Path)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 115200, cfg.Capture.Baud)
}

func TestLoadPostgres(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, `
store:
  backend: postgres
  dsn: "host=localhost dbname=telemetry sslmode=disable"
concurrency: 8
dumpDir: dumps
logs:
  directory: /var/log/globetrotter
  maxSizeMB: 10
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendPostgres, cfg.Store.Backend)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, filepath.Join(dir, "dumps"), cfg.DumpDir)
	// Absolute paths pass through untouched.
	assert.Equal(t, "/var/log/globetrotter", cfg.Logs.Directory)
	assert.Equal(t, 10, cfg.Logs.MaxSizeMB)
}

func TestLoadRejectsBadConfig(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(write(t, dir, "store:\n  backend: cassandra\n"))
	assert.ErrorContains(t, err, "unknown store backend")

	_, err = Load(write(t, dir, "store:\n  backend: postgres\n"))
	assert.ErrorContains(t, err, "needs a dsn")

	_, err = Load(write(t, dir, "store: [not a map\n"))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, BackendPebble, cfg.Store.Backend)
	require.NoError(t, cfg.validate())
}
