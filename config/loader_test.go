package config

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/modscan/internal/testutil"
	"github.com/GoCodeAlone/modscan/registry"
)

func TestLoadDefaults(t *testing.T) {
	testutil.IsolateEnv(t, EnvPrefix+"_")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, registry.ConflictResolutionError, cfg.RegistryConfig().ConflictResolution)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoadFilesInOrder(t *testing.T) {
	testutil.IsolateEnv(t, EnvPrefix+"_")

	yamlPath := filepath.Join("testdata", "nested", "modscan.yaml")
	cfg, err := Load(yamlPath, filepath.Join("testdata", "modscan.toml"))
	require.NoError(t, err)

	assert.Equal(t, "priority", cfg.ConflictResolution, "later files win")
	assert.True(t, cfg.PrivateCache)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, []string{
		filepath.Join("testdata", "nested", "billing.yaml"),
		"/opt/plugins/audit.toml",
	}, cfg.Manifests)
}

func TestLoadEnvironmentOverridesFiles(t *testing.T) {
	testutil.IsolateEnv(t, EnvPrefix+"_")
	t.Setenv("MODSCAN_CONFLICT_RESOLUTION", "Ignore")
	t.Setenv("MODSCAN_MANIFESTS", "a.yaml,b.hcl")
	t.Setenv("MODSCAN_LOG_LEVEL", "warn")

	cfg, err := Load(filepath.Join("testdata", "nested", "modscan.yaml"))
	require.NoError(t, err)
	assert.Equal(t, registry.ConflictResolutionIgnore, cfg.RegistryConfig().ConflictResolution)
	assert.Equal(t, []string{"a.yaml", "b.hcl"}, cfg.Manifests, "environment paths are not rebased")
	assert.Equal(t, slog.LevelWarn, cfg.SlogLevel())
}

func TestLoadErrors(t *testing.T) {
	testutil.IsolateEnv(t, EnvPrefix+"_")

	_, err := Load(filepath.Join("testdata", "modscan.json"))
	assert.Error(t, err)

	_, err = Load(filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(filepath.Join("testdata", "bad_level.yaml"))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	t.Setenv("MODSCAN_CONFLICT_RESOLUTION", "merge")
	_, err = Load()
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, err, registry.ErrUnknownConflictResolution)
}

func TestFallbacks(t *testing.T) {
	cfg := &Config{ConflictResolution: "merge", LogLevel: "loud"}
	assert.Error(t, cfg.Validate())
	assert.Equal(t, registry.ConflictResolutionError, cfg.RegistryConfig().ConflictResolution)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}
