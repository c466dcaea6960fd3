// Package config loads runtime configuration for the toofer CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Environment variables, after loading a .env file from the working
//     directory if one exists.
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-d string   data directory holding the vault database
//	-l string   log level (debug, info, warn, error)
//	-t int      code refresh interval for watch mode (seconds)
//
// Environment
//
//	TOOFER_DATA_DIR, TOOFER_DB_FILE, TOOFER_LOG_LEVEL,
//	TOOFER_TICK_INTERVAL (Go duration, e.g. "1s"), TOOFER_QR_SIZE
//
// # JSON schema
//
// Durations use timex.Duration, so they may be strings like "1s" or integer
// nanoseconds:
//
//	{
//	  "data_dir": "/home/me/.config/toofer",
//	  "db_file": "toofer.db",
//	  "log_level": "info",
//	  "tick_interval": "1s",
//	  "time_step": 30,
//	  "digits": 6,
//	  "qr_size": 256
//	}
package config
