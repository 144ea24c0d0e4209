package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/encbridge/errors"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_TOMLFile(t *testing.T) {
	path := writeFile(t, "encbridge.toml", `
output = "song.ogg"

[log]
level = "debug"
format = "json"

[guest]
path = "enc.wasm"
entry = "run"
memory_limit_pages = 16

[opus]
rate = 44100
channels = 1

[opus.comments]
title = "demo"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "song.ogg", cfg.Output)
	assert.Equal(t, Log{Level: "debug", Format: "json"}, cfg.Log)
	assert.Equal(t, "enc.wasm", cfg.Guest.Path)
	assert.Equal(t, "run", cfg.Guest.Entry)
	assert.Equal(t, "encbridge", cfg.Guest.Module, "unset keys keep defaults")
	assert.Equal(t, uint32(16), cfg.Guest.MemoryLimitPages)
	assert.Equal(t, 44100, cfg.Opus.Rate)
	assert.Equal(t, 1, cfg.Opus.Channels)
	assert.Equal(t, "demo", cfg.Opus.Comments["title"])
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeFile(t, "encbridge.yaml", "log:\n  level: warn\nguest:\n  path: a.wasm\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "a.wasm", cfg.Guest.Path)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ENCBRIDGE_LOG_LEVEL", "error")
	t.Setenv("ENCBRIDGE_GUEST_ENTRY", "start")
	path := writeFile(t, "encbridge.toml", "[log]\nlevel = \"debug\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "start", cfg.Guest.Entry)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.ErrorIs(t, err, errors.New(errors.PhaseConfig, errors.KindNotFound).Build())
}

func TestLoad_InvalidValue(t *testing.T) {
	path := writeFile(t, "encbridge.toml", "[opus]\nchannels = 0\n")

	_, err := Load(path)
	assert.ErrorIs(t, err, errors.New(errors.PhaseConfig, errors.KindInvalidInput).Build())
	assert.Contains(t, err.Error(), "opus.channels")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		key    string
	}{
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"empty entry", func(c *Config) { c.Guest.Entry = "" }, "guest.entry"},
		{"empty module", func(c *Config) { c.Guest.Module = "" }, "guest.module"},
		{"memory limit", func(c *Config) { c.Guest.MemoryLimitPages = 70000 }, "guest.memory_limit_pages"},
		{"rate", func(c *Config) { c.Opus.Rate = -1 }, "opus.rate"},
		{"channels", func(c *Config) { c.Opus.Channels = 256 }, "opus.channels"},
		{"family", func(c *Config) { c.Opus.Family = "ambisonic" }, "opus.family"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestTOML(t *testing.T) {
	cfg := Default()
	cfg.Guest.Path = "enc.wasm"

	out, err := cfg.TOML()
	require.NoError(t, err)

	var back Config
	require.NoError(t, toml.Unmarshal(out, &back))
	assert.Equal(t, "enc.wasm", back.Guest.Path)
	assert.Contains(t, string(out), "[guest]")
}
