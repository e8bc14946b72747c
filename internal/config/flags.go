package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/formsync/internal/flagx"
)

// ValuedFlags lists every flag that takes a value, so callers can strip
// them when looking for positional arguments.
var ValuedFlags = []string{"-c", "-config", "-d", "-f", "-t", "-r", "-p", "-l"}

// parseFlags overlays cfg with command-line flags:
//
//	-d string   database DSN
//	-f string   forms directory
//	-t int      HTTP timeout in seconds
//	-r int      HTTP retry attempts for transient failures
//	-p int      number of forms synced concurrently
//	-l string   log level (debug, info, warn, error)
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-d", "-f", "-t", "-r", "-p", "-l"})

	fs := flag.NewFlagSet("formsync", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.FormsDir, "f", cfg.FormsDir, "forms directory")
	timeout := fs.Int("t", int(cfg.HTTPTimeout.Seconds()), "HTTP timeout (in seconds)")
	fs.IntVar(&cfg.HTTPMaxRetries, "r", cfg.HTTPMaxRetries, "HTTP retries for transient failures")
	fs.IntVar(&cfg.Concurrency, "p", cfg.Concurrency, "forms synced concurrently")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	cfg.HTTPTimeout = time.Duration(*timeout) * time.Second
	return nil
}
