package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/loykin/snowup/internal/common"
	"github.com/loykin/snowup/internal/constants"
	"github.com/loykin/snowup/internal/retry"
	"github.com/loykin/snowup/internal/upgrade"
	"github.com/loykin/snowup/internal/util"
	"gopkg.in/yaml.v3"
)

// DatabaseConfig selects the driver. Driver-specific blocks are decoded by
// their dialect packages.
type DatabaseConfig struct {
	Driver    string         `mapstructure:"driver" yaml:"driver"` // snowflake, postgresql, sqlite
	DSN       string         `mapstructure:"dsn" yaml:"dsn"`
	Snowflake map[string]any `mapstructure:"snowflake" yaml:"snowflake"`
	Postgres  map[string]any `mapstructure:"postgres" yaml:"postgres"`
	SQLite    map[string]any `mapstructure:"sqlite" yaml:"sqlite"`
	// OAuth acquires a Snowflake external OAuth token before connecting
	OAuth map[string]any `mapstructure:"oauth" yaml:"oauth"`
}

type JournalConfig struct {
	Schema string `mapstructure:"schema" yaml:"schema"`
	Table  string `mapstructure:"table" yaml:"table"`
}

type ScriptsConfig struct {
	Dir     string `mapstructure:"dir" yaml:"dir"`
	Pattern string `mapstructure:"pattern" yaml:"pattern"`
	Token   string `mapstructure:"token" yaml:"token"` // statement delimiter line
}

type RetryConfig struct {
	MaxRetries   *int   `mapstructure:"max_retries" yaml:"max_retries"`
	InitialDelay string `mapstructure:"initial_delay" yaml:"initial_delay"`
	MaxDelay     string `mapstructure:"max_delay" yaml:"max_delay"`
}

type LoggingConfig struct {
	Level         string `mapstructure:"level" yaml:"level"`                   // error, warn, info, debug
	Format        string `mapstructure:"format" yaml:"format"`                 // text, json, color
	MaskSensitive *bool  `mapstructure:"mask_sensitive" yaml:"mask_sensitive"` // enable/disable sensitive data masking
	Color         *bool  `mapstructure:"color" yaml:"color"`                   // enable/disable colorized output
}

type ConfigDoc struct {
	Database         DatabaseConfig    `mapstructure:"database" yaml:"database"`
	Journal          JournalConfig     `mapstructure:"journal" yaml:"journal"`
	Scripts          ScriptsConfig     `mapstructure:"scripts" yaml:"scripts"`
	Variables        map[string]string `mapstructure:"variables" yaml:"variables"`
	DisableVariables bool              `mapstructure:"disable_variables" yaml:"disable_variables"`
	Transaction      string            `mapstructure:"transaction" yaml:"transaction"` // none, per-script
	// StatementTimeout bounds each statement, as a duration string (e.g. "30s", "5m").
	StatementTimeout string        `mapstructure:"statement_timeout" yaml:"statement_timeout"`
	VerifySchema     bool          `mapstructure:"verify_schema" yaml:"verify_schema"`
	ConnectRetry     RetryConfig   `mapstructure:"connect_retry" yaml:"connect_retry"`
	Logging          LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// Load decodes the YAML file at path into c.
func (c *ConfigDoc) Load(path string) error {
	clean := filepath.Clean(path)
	// Ensure path points to a regular file to avoid opening directories/special files
	info, err := os.Stat(clean)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", clean)
	}
	// #nosec G304 -- config path is provided intentionally by the user/CI; cleaned and validated above
	f, err := os.Open(clean)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if err := yaml.NewDecoder(f).Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config %s: %w", clean, err)
	}
	return nil
}

// ScriptsDir returns the configured scripts directory or the default.
func (c *ConfigDoc) ScriptsDir() string {
	return util.TrimWithDefault(c.Scripts.Dir, constants.DefaultScriptsDir)
}

func parseDuration(field, s string) (time.Duration, error) {
	s, ok := util.TrimEmptyCheck(s)
	if !ok {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", field, s, err)
	}
	return d, nil
}

// UpgradeConfig assembles the immutable run configuration.
func (c *ConfigDoc) UpgradeConfig() (upgrade.Config, error) {
	mode, err := upgrade.ParseTransactionMode(util.TrimAndLower(c.Transaction))
	if err != nil {
		return upgrade.Config{}, err
	}
	timeout, err := parseDuration("statement_timeout", c.StatementTimeout)
	if err != nil {
		return upgrade.Config{}, err
	}
	return upgrade.Config{
		Schema:           strings.TrimSpace(c.Journal.Schema),
		Table:            strings.TrimSpace(c.Journal.Table),
		VerifySchema:     c.VerifySchema,
		Transaction:      mode,
		StatementTimeout: timeout,
		StatementToken:   c.Scripts.Token,
		Variables:        c.Variables,
		DisableVariables: c.DisableVariables,
		Logger:           common.GetLogger(),
	}, nil
}

// RetryPolicy returns the connection retry policy, starting from the default.
func (c *ConfigDoc) RetryPolicy() (retry.Policy, error) {
	p := retry.DefaultPolicy()
	if c.ConnectRetry.MaxRetries != nil {
		if *c.ConnectRetry.MaxRetries < 0 {
			return p, fmt.Errorf("connect_retry.max_retries must not be negative")
		}
		p.MaxRetries = *c.ConnectRetry.MaxRetries
	}
	if d, err := parseDuration("connect_retry.initial_delay", c.ConnectRetry.InitialDelay); err != nil {
		return p, err
	} else if d > 0 {
		p.InitialDelay = d
	}
	if d, err := parseDuration("connect_retry.max_delay", c.ConnectRetry.MaxDelay); err != nil {
		return p, err
	} else if d > 0 {
		p.MaxDelay = d
	}
	return p, nil
}

func (c *ConfigDoc) parseLogLevel() (common.LogLevel, error) {
	switch util.TrimAndLower(c.Logging.Level) {
	case "error":
		return common.LogLevelError, nil
	case "warn", "warning":
		return common.LogLevelWarn, nil
	case "info", "":
		return common.LogLevelInfo, nil
	case "debug":
		return common.LogLevelDebug, nil
	default:
		return common.LogLevelInfo, fmt.Errorf("invalid logging level: %s (valid: error, warn, info, debug)", c.Logging.Level)
	}
}

// SetupLogging configures the global logger based on config settings
func (c *ConfigDoc) SetupLogging() error {
	level, err := c.parseLogLevel()
	if err != nil {
		return err
	}

	format := util.TrimAndLower(c.Logging.Format)
	useColor := format == "color" || format == "colour"
	if c.Logging.Color != nil {
		useColor = *c.Logging.Color
	}

	// Every format logs to stderr; stdout carries the command report.
	var logger *common.Logger
	switch format {
	case "json":
		logger = common.NewJSONLoggerTo(os.Stderr, level)
	case "color", "colour", "text", "":
		if useColor {
			logger = common.NewColorLoggerTo(os.Stderr, level)
		} else {
			logger = common.NewLoggerTo(os.Stderr, level)
		}
	default:
		return fmt.Errorf("invalid logging format: %s (valid: text, json, color)", c.Logging.Format)
	}

	maskingEnabled := true
	if c.Logging.MaskSensitive != nil {
		maskingEnabled = *c.Logging.MaskSensitive
	}
	logger.EnableMasking(maskingEnabled)
	common.SetDefaultLogger(logger)
	common.EnableMasking(maskingEnabled)

	logger.Debug("logging configured",
		"level", level.String(),
		"format", format,
		"color", useColor,
		"mask_sensitive", maskingEnabled)
	return nil
}
