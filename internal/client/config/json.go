package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/toofer/internal/flagx"
	"github.com/dmitrijs2005/toofer/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer and
// zero values mean "not set" and leave the current Config value alone.
type JsonConfig struct {
	DataDir      string          `json:"data_dir"`
	DBFile       string          `json:"db_file"`
	LogLevel     string          `json:"log_level"`
	TickInterval *timex.Duration `json:"tick_interval"`
	TimeStep     int             `json:"time_step"`
	Digits       int             `json:"digits"`
	QRSize       int             `json:"qr_size"`
}

// parseJson overlays cfg with the file named by -c/-config in args. Without
// such a flag it does nothing.
func parseJson(cfg *Config, args []string) error {
	path := flagx.JsonConfigFlags(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.DataDir != "" {
		cfg.DataDir = jc.DataDir
	}
	if jc.DBFile != "" {
		cfg.DBFile = jc.DBFile
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
	if jc.TickInterval != nil {
		cfg.TickInterval = jc.TickInterval.Duration
	}
	if jc.TimeStep != 0 {
		cfg.TimeStep = jc.TimeStep
	}
	if jc.Digits != 0 {
		cfg.Digits = jc.Digits
	}
	if jc.QRSize != 0 {
		cfg.QRSize = jc.QRSize
	}
	return nil
}
