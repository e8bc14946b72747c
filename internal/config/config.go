package config

import (
	"fmt"
	"time"
)

// Config holds runtime settings for the formsync CLI.
type Config struct {
	// DatabaseDSN is the SQLite database holding form versions, entities
	// and manifest digests.
	DatabaseDSN string
	// FormsDir is the root under which relative media directories live.
	FormsDir string

	HTTPTimeout    time.Duration
	HTTPMaxRetries int
	// Concurrency bounds how many forms are synced at the same time.
	Concurrency int

	LogLevel  string
	LogFormat string

	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string
}

// LoadDefaults populates c with defaults.
func (c *Config) LoadDefaults() {
	c.DatabaseDSN = "formsync.db"
	c.FormsDir = "forms"
	c.HTTPTimeout = 30 * time.Second
	c.HTTPMaxRetries = 3
	c.Concurrency = 4
	c.LogLevel = "info"
	c.LogFormat = "auto"
	c.S3Region = "us-east-1"
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	switch {
	case c.DatabaseDSN == "":
		return fmt.Errorf("database dsn must not be empty")
	case c.HTTPTimeout <= 0:
		return fmt.Errorf("http timeout must be positive, got %s", c.HTTPTimeout)
	case c.HTTPMaxRetries < 0:
		return fmt.Errorf("http max retries must not be negative, got %d", c.HTTPMaxRetries)
	case c.Concurrency < 1:
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	return nil
}

// LoadConfig builds a Config from defaults, the JSON file named in args (if
// any) and the flags in args, usually os.Args[1:].
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
