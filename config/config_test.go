package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUDIOMESH_CONFIG", "")
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 44100.0, cfg.Audio.SampleRate)
	assert.Equal(t, 2, cfg.Audio.Channels)
	assert.Equal(t, "interactive", cfg.Audio.LatencyHint)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 1024, cfg.Loop.MaxTicks)
	assert.Equal(t, 64, cfg.Render.Chunk)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audiomesh.toml")
	content := "[audio]\nsample_rate = 48000\nchannels = 1\n\n[log]\nlevel = \"debug\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("AUDIOMESH_CONFIG", path)
	t.Setenv("AUDIOMESH_LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 48000.0, cfg.Audio.SampleRate)
	assert.Equal(t, 1, cfg.Audio.Channels)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Setenv("AUDIOMESH_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Config{Audio: AudioConfig{SampleRate: 0, Channels: 2}}
	assert.Error(t, cfg.Validate())

	cfg.Audio.SampleRate = 8000
	assert.NoError(t, cfg.Validate())

	cfg.Audio.Channels = 0
	assert.Error(t, cfg.Validate())
}
