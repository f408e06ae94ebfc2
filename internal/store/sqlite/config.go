package sqlite

import (
	"fmt"
	"strings"

	"github.com/loykin/snowup/internal/store"
)

// SQLite configuration constants
const (
	busyTimeoutMS    = 5000 // 5 seconds in milliseconds
	foreignKeysParam = "_pragma=foreign_keys(1)"
)

type Config struct {
	Path string `mapstructure:"path"`
	DSN  string `mapstructure:"dsn"`
}

// Load decodes a driver option map into a Config
func Load(opts map[string]any) (*Config, error) {
	cfg := &Config{}
	if err := store.DecodeOptions(opts, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConnectionString returns a modernc DSN for Path with busy timeout and
// foreign keys enabled. An explicit DSN is returned unchanged.
func (c *Config) ConnectionString() (string, error) {
	if dsn := strings.TrimSpace(c.DSN); dsn != "" {
		return dsn, nil
	}
	path := strings.TrimSpace(c.Path)
	if path == "" {
		return "", fmt.Errorf("sqlite config requires path or dsn")
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&%s", path, busyTimeoutMS, foreignKeysParam), nil
}
