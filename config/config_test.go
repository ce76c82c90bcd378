package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/grovedb/grovedb/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	require.Equal(t, "./grovedb-data", cfg.BackendPath)
	require.Equal(t, 10, cfg.MaxReferenceHops)
	require.Equal(t, 4, cfg.ChunkTrunkHeight)
	require.False(t, cfg.MetricsEnabled)
	require.Equal(t, config.BackendPebble, cfg.Backend)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grovedb.yaml")
	contents := "backend_path: /var/lib/grovedb\nmax_reference_hops: 5\nmetrics_enabled: true\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/grovedb", cfg.BackendPath)
	require.Equal(t, 5, cfg.MaxReferenceHops)
	require.Equal(t, 4, cfg.ChunkTrunkHeight)
	require.True(t, cfg.MetricsEnabled)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GROVEDB_MAX_REFERENCE_HOPS", "3")
	cfg, err := config.Load("", viper.New())
	require.NoError(t, err)
	require.Equal(t, 3, cfg.MaxReferenceHops)
}

func TestLoadRejectsNonPositiveHops(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grovedb.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_reference_hops: 0\n"), 0o644))

	_, err := config.Load(path, nil)
	require.Error(t, err)
}

func TestMissingConfigFileFallsBackToDefaults(t *testing.T) {
	cfg, err := config.Load("/nonexistent/grovedb.yaml", nil)
	require.NoError(t, err)
	require.Equal(t, "./grovedb-data", cfg.BackendPath)
}

func TestLoadAcceptsEachKnownBackend(t *testing.T) {
	for _, b := range []string{config.BackendPebble, config.BackendLevelDB, config.BackendMemory} {
		dir := t.TempDir()
		path := filepath.Join(dir, "grovedb.yaml")
		require.NoError(t, os.WriteFile(path, []byte("backend: "+b+"\n"), 0o644))

		cfg, err := config.Load(path, nil)
		require.NoError(t, err)
		require.Equal(t, b, cfg.Backend)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grovedb.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: rocksdb\n"), 0o644))

	_, err := config.Load(path, nil)
	require.Error(t, err)
}
