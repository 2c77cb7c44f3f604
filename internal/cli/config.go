package cli

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Config holds defaults read from ~/.eventflow/config.toml. Flags given on
// the command line take precedence over the file.
type Config struct {
	Workers   int    `toml:"workers"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// defaultConfig is used when no config file exists.
func defaultConfig() Config {
	return Config{LogLevel: "info", LogFormat: "text"}
}

// loadConfig reads the user config file if present. A missing file is not an
// error; a malformed one is.
func loadConfig() (Config, error) {
	cfg := defaultConfig()

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, nil
	}
	raw, err := os.ReadFile(filepath.Join(home, ".eventflow", "config.toml"))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return cfg, err
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	return cfg, nil
}

// effectiveLogging merges config file defaults with command line flags.
func effectiveLogging(cfg Config) (level, format string) {
	level, format = cfg.LogLevel, cfg.LogFormat
	if logLevel != "" {
		level = logLevel
	}
	if logFormat != "" {
		format = logFormat
	}
	return level, format
}
