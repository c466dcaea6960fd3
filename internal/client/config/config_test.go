package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"TOOFER_DATA_DIR", "TOOFER_DB_FILE", "TOOFER_LOG_LEVEL", "TOOFER_TICK_INTERVAL", "TOOFER_QR_SIZE"} {
		t.Setenv(k, "")
	}
	orig := dotenvFiles
	dotenvFiles = nil
	t.Cleanup(func() { dotenvFiles = orig })
}

func defaults() *Config {
	c := &Config{}
	c.LoadDefaults()
	return c
}

func TestLoadDefaults(t *testing.T) {
	c := defaults()

	assert.Equal(t, DefaultDataDir(), c.DataDir)
	assert.Equal(t, "toofer.db", c.DBFile)
	assert.Equal(t, "warn", c.LogLevel)
	assert.Equal(t, time.Second, c.TickInterval)
	assert.Equal(t, 30, c.TimeStep)
	assert.Equal(t, 6, c.Digits)
	assert.Equal(t, 256, c.QRSize)
	require.NoError(t, c.Validate())
}

func TestDefaultDataDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	t.Setenv("HOME", "/tmp/home")
	assert.Equal(t, "toofer", filepath.Base(DefaultDataDir()))
}

func TestDSN(t *testing.T) {
	c := &Config{DataDir: "/var/lib/toofer", DBFile: "toofer.db"}
	assert.Equal(t, filepath.Join("/var/lib/toofer", "toofer.db"), c.DSN())

	c.DBFile = "/elsewhere/v.db"
	assert.Equal(t, "/elsewhere/v.db", c.DSN())

	c.DBFile = ":memory:"
	assert.Equal(t, ":memory:", c.DSN())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"empty db file", func(c *Config) { c.DBFile = "" }},
		{"bad log level", func(c *Config) { c.LogLevel = "chatty" }},
		{"zero tick", func(c *Config) { c.TickInterval = 0 }},
		{"zero step", func(c *Config) { c.TimeStep = 0 }},
		{"too many digits", func(c *Config) { c.Digits = 11 }},
		{"no digits", func(c *Config) { c.Digits = 0 }},
		{"bad qr size", func(c *Config) { c.QRSize = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaults()
			tt.mutate(c)
			require.Error(t, c.Validate())
		})
	}
}

func TestLoadConfig_Precedence(t *testing.T) {
	clearEnv(t)

	path := writeTempJSON(t, "", "", map[string]any{
		"data_dir":      "/from/json",
		"log_level":     "debug",
		"tick_interval": "5s",
		"qr_size":       512,
		"digits":        8,
	})
	t.Setenv("TOOFER_LOG_LEVEL", "error")
	t.Setenv("TOOFER_QR_SIZE", "300")

	cfg, err := LoadConfig([]string{"-c", path, "-d", "/from/flags"})
	require.NoError(t, err)

	want := defaults()
	// flag beats json, env beats json
	want.DataDir = "/from/flags"
	want.LogLevel = "error"
	want.TickInterval = 5 * time.Second
	want.QRSize = 300
	want.Digits = 8

	assert.Empty(t, cmp.Diff(want, cfg))
}

func TestLoadConfig_DefaultsOnly(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(defaults(), cfg))
}

func TestLoadConfig_Errors(t *testing.T) {
	clearEnv(t)

	_, err := LoadConfig([]string{"-c", filepath.Join(t.TempDir(), "missing.json")})
	require.Error(t, err)

	_, err = LoadConfig([]string{"-t", "abc"})
	require.Error(t, err)

	_, err = LoadConfig([]string{"-l", "chatty"})
	require.Error(t, err)
}
