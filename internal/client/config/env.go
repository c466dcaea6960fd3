package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type envConfig struct {
	DataDir      string        `env:"TOOFER_DATA_DIR"`
	DBFile       string        `env:"TOOFER_DB_FILE"`
	LogLevel     string        `env:"TOOFER_LOG_LEVEL"`
	TickInterval time.Duration `env:"TOOFER_TICK_INTERVAL"`
	QRSize       int           `env:"TOOFER_QR_SIZE"`
}

// dotenvFiles are loaded before the environment is read. Variables already
// set in the process environment win.
var dotenvFiles = []string{".env"}

func loadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// parseEnv overlays cfg with TOOFER_* variables.
func parseEnv(cfg *Config) error {
	if err := loadDotEnv(dotenvFiles...); err != nil {
		return err
	}

	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	if ec.DataDir != "" {
		cfg.DataDir = ec.DataDir
	}
	if ec.DBFile != "" {
		cfg.DBFile = ec.DBFile
	}
	if ec.LogLevel != "" {
		cfg.LogLevel = ec.LogLevel
	}
	if ec.TickInterval != 0 {
		cfg.TickInterval = ec.TickInterval
	}
	if ec.QRSize != 0 {
		cfg.QRSize = ec.QRSize
	}
	return nil
}
