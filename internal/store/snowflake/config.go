package snowflake

import (
	"fmt"

	"github.com/loykin/snowup/internal/store"
	"github.com/loykin/snowup/internal/util"
	sf "github.com/snowflakedb/gosnowflake"
)

// Config describes a Snowflake connection. DSN wins when set; otherwise the
// DSN is assembled from the components.
type Config struct {
	DSN       string `mapstructure:"dsn"`
	Account   string `mapstructure:"account"`
	User      string `mapstructure:"user"`
	Password  string `mapstructure:"password"`
	Database  string `mapstructure:"database"`
	Schema    string `mapstructure:"schema"`
	Warehouse string `mapstructure:"warehouse"`
	Role      string `mapstructure:"role"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Protocol  string `mapstructure:"protocol"`

	// Token is an OAuth access token. When set the OAuth authenticator is used
	// in place of the password.
	Token string `mapstructure:"token"`
}

// Load decodes a driver option map into a Config
func Load(opts map[string]any) (*Config, error) {
	cfg := &Config{}
	if err := store.DecodeOptions(opts, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConnectionString returns the DSN accepted by the gosnowflake driver
func (c *Config) ConnectionString() (string, error) {
	if dsn, ok := util.TrimEmptyCheck(c.DSN); ok {
		if c.Token == "" {
			return dsn, nil
		}
		parsed, err := sf.ParseDSN(dsn)
		if err != nil {
			return "", fmt.Errorf("parse snowflake dsn: %w", err)
		}
		c.applyToken(parsed)
		return sf.DSN(parsed)
	}

	account, ok := util.TrimEmptyCheck(c.Account)
	if !ok {
		return "", fmt.Errorf("snowflake config requires dsn or account")
	}
	fields := util.TrimSpaceFields(c.User, c.Database, c.Schema, c.Warehouse, c.Role, c.Host, c.Protocol)
	cfg := &sf.Config{
		Account:   account,
		User:      fields[0],
		Password:  c.Password,
		Database:  fields[1],
		Schema:    fields[2],
		Warehouse: fields[3],
		Role:      fields[4],
		Host:      fields[5],
		Port:      c.Port,
		Protocol:  fields[6],
	}
	c.applyToken(cfg)
	dsn, err := sf.DSN(cfg)
	if err != nil {
		return "", fmt.Errorf("build snowflake dsn: %w", err)
	}
	return dsn, nil
}

func (c *Config) applyToken(cfg *sf.Config) {
	if c.Token == "" {
		return
	}
	cfg.Authenticator = sf.AuthTypeOAuth
	cfg.Token = c.Token
	cfg.Password = ""
}
