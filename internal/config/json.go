package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/formsync/internal/flagx"
	"github.com/dmitrijs2005/formsync/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Absent fields leave
// the current value untouched.
type JsonConfig struct {
	DatabaseDSN    string          `json:"database_dsn"`
	FormsDir       string          `json:"forms_dir"`
	HTTPTimeout    *timex.Duration `json:"http_timeout"`
	HTTPMaxRetries *int            `json:"http_max_retries"`
	Concurrency    *int            `json:"concurrency"`
	LogLevel       string          `json:"log_level"`
	LogFormat      string          `json:"log_format"`
	S3Region       string          `json:"s3_region"`
	S3BaseEndpoint string          `json:"s3_base_endpoint"`
	S3AccessKey    string          `json:"s3_access_key"`
	S3SecretKey    string          `json:"s3_secret_key"`
}

// parseJson overlays cfg with the JSON file named by -c/-config in args.
// Without such a flag it does nothing.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	jc.apply(cfg)
	return nil
}

func (jc *JsonConfig) apply(cfg *Config) {
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.FormsDir, jc.FormsDir)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)

	if jc.HTTPTimeout != nil {
		cfg.HTTPTimeout = jc.HTTPTimeout.Duration
	}
	if jc.HTTPMaxRetries != nil {
		cfg.HTTPMaxRetries = *jc.HTTPMaxRetries
	}
	if jc.Concurrency != nil {
		cfg.Concurrency = *jc.Concurrency
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
