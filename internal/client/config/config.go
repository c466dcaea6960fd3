package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/toofer/internal/logging"
)

const (
	appDirName    = "toofer"
	defaultDBFile = "toofer.db"
)

// Config holds runtime settings for the toofer CLI.
//
// TimeStep and Digits feed the code generator; stored accounts do not carry
// their own values.
type Config struct {
	DataDir      string
	DBFile       string
	LogLevel     string
	TickInterval time.Duration
	TimeStep     int
	Digits       int
	QRSize       int
}

// DefaultDataDir returns <user config dir>/toofer, or ./.toofer when the
// user config dir is unknown.
func DefaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return "." + appDirName
	}
	return filepath.Join(dir, appDirName)
}

func (c *Config) LoadDefaults() {
	c.DataDir = DefaultDataDir()
	c.DBFile = defaultDBFile
	c.LogLevel = "warn"
	c.TickInterval = time.Second
	c.TimeStep = 30
	c.Digits = 6
	c.QRSize = 256
}

// DSN is the SQLite path of the vault database. An absolute DBFile is used
// as is.
func (c *Config) DSN() string {
	if filepath.IsAbs(c.DBFile) || c.DBFile == ":memory:" {
		return c.DBFile
	}
	return filepath.Join(c.DataDir, c.DBFile)
}

func (c *Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("data dir must not be empty"))
	}
	if c.DBFile == "" {
		errs = append(errs, errors.New("db file must not be empty"))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("tick interval must be positive, got %s", c.TickInterval))
	}
	if c.TimeStep <= 0 {
		errs = append(errs, fmt.Errorf("time step must be positive, got %d", c.TimeStep))
	}
	if c.Digits < 1 || c.Digits > 10 {
		errs = append(errs, fmt.Errorf("digits must be between 1 and 10, got %d", c.Digits))
	}
	if c.QRSize <= 0 {
		errs = append(errs, fmt.Errorf("qr size must be positive, got %d", c.QRSize))
	}
	return errors.Join(errs...)
}

// LoadConfig builds a Config from defaults, the JSON file, the environment
// and args (usually os.Args[1:]), in that order, and validates the result.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
