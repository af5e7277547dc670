package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "selvage.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.CollectGarbage)
	assert.Equal(t, GCOnce, cfg.GCPolicy)
	assert.Equal(t, time.Second, cfg.RefreshDelay)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
collect_garbage: false
gc_policy: always
interactive: true
refresh_delay: 250ms
workers: 3
backup:
  kind: badger
  dir: /tmp/snap
log:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.CollectGarbage)
	assert.Equal(t, GCAlways, cfg.GCPolicy)
	assert.True(t, cfg.Interactive)
	assert.Equal(t, 250*time.Millisecond, cfg.RefreshDelay)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, "badger", cfg.Backup.Kind)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadRejectsBadPolicy(t *testing.T) {
	_, err := Load(writeConfig(t, "gc_policy: sometimes\n"))
	assert.Error(t, err)
}

func TestLoadRejectsNegativeWorkers(t *testing.T) {
	_, err := Load(writeConfig(t, "workers: -1\n"))
	assert.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("SELVAGE_GC_POLICY", "always")
	t.Setenv("SELVAGE_WORKERS", "2")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, GCAlways, cfg.GCPolicy)
	assert.Equal(t, 2, cfg.Workers)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
