package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasjlepore/ridechat/units"
)

func TestLoadDefaultsWithMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "imperial", cfg.Units)
	assert.Equal(t, 2.5, cfg.ClimbThreshold)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.EqualValues(t, 32, cfg.Server.MaxUploadMB)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 30*time.Second, cfg.Narrative.Timeout)
	assert.Equal(t, 3, cfg.Narrative.Retries)
	assert.False(t, cfg.NarrativeActive())
	assert.Equal(t, units.Imperial(), cfg.UnitPolicy())
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ridechat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
units: metric
climb_threshold: 4
server:
  addr: "127.0.0.1:9000"
session:
  ttl: 30m
narrative:
  enabled: true
  token: from-file
`), 0o644))
	t.Setenv("RIDECHAT_NARRATIVE_TOKEN", "from-env")
	t.Setenv("RIDECHAT_DATABASE_PATH", "/tmp/rides.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, units.Metric(), cfg.UnitPolicy())
	assert.Equal(t, 4.0, cfg.ClimbThreshold)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "from-env", cfg.Narrative.Token)
	assert.Equal(t, "/tmp/rides.db", cfg.Database.Path)
	assert.True(t, cfg.NarrativeActive())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("units: furlongs\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("climb_threshold: -1\n"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "climb_threshold")
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("units: [unterminated\n"), 0o644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "read config")
}
