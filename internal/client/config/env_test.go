package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOOFER_DATA_DIR", "/env/data")
	t.Setenv("TOOFER_DB_FILE", "env.db")
	t.Setenv("TOOFER_TICK_INTERVAL", "3s")

	cfg := defaults()
	require.NoError(t, parseEnv(cfg))

	assert.Equal(t, "/env/data", cfg.DataDir)
	assert.Equal(t, "env.db", cfg.DBFile)
	assert.Equal(t, 3*time.Second, cfg.TickInterval)
	assert.Equal(t, "warn", cfg.LogLevel, "unset variables keep the current value")
}

func Test_parseEnv_InvalidValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("TOOFER_QR_SIZE", "big")

	require.Error(t, parseEnv(defaults()))
}

func Test_parseEnv_DotEnvFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TOOFER_LOG_LEVEL=debug\nTOOFER_QR_SIZE=640\n"), 0o600))
	dotenvFiles = []string{path, filepath.Join(t.TempDir(), "missing.env")}

	// godotenv does not override variables that are already set, even to "".
	os.Unsetenv("TOOFER_LOG_LEVEL")
	os.Unsetenv("TOOFER_QR_SIZE")
	t.Cleanup(func() {
		os.Unsetenv("TOOFER_LOG_LEVEL")
		os.Unsetenv("TOOFER_QR_SIZE")
	})

	cfg := defaults()
	require.NoError(t, parseEnv(cfg))
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 640, cfg.QRSize)
}
