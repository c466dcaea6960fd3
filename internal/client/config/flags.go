package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/toofer/internal/flagx"
)

// parseFlags populates selected Config fields from args.
//
//	-d string   data directory
//	-l string   log level
//	-t int      refresh interval in seconds
//
// Args are filtered with flagx.FilterArgs first so -c/-config and unknown
// flags do not trip the parser.
func parseFlags(cfg *Config, args []string) error {
	filtered := flagx.FilterArgs(args, []string{"-d", "-l", "-t"})

	fs := flag.NewFlagSet("toofer", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "data directory")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")
	tick := fs.Int("t", int(cfg.TickInterval.Seconds()), "watch refresh interval (in seconds)")

	if err := fs.Parse(filtered); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	// -t overrides only when given.
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.TickInterval = time.Duration(*tick) * time.Second
		}
	})
	return nil
}
