package postgresql

import (
	"fmt"
	"net/url"

	"github.com/loykin/snowup/internal/constants"
	"github.com/loykin/snowup/internal/store"
	"github.com/loykin/snowup/internal/util"
)

type Config struct {
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// Load decodes a driver option map into a Config
func Load(opts map[string]any) (*Config, error) {
	cfg := &Config{}
	if err := store.DecodeOptions(opts, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ConnectionString prefers an explicit DSN; otherwise it is built from
// components when host is provided.
func (p *Config) ConnectionString() (string, error) {
	if dsn, ok := util.TrimEmptyCheck(p.DSN); ok {
		return dsn, nil
	}
	host, ok := util.TrimEmptyCheck(p.Host)
	if !ok {
		return "", fmt.Errorf("postgresql config requires dsn or host")
	}
	port := p.Port
	if port == 0 {
		port = constants.DefaultPostgresPort
	}
	ssl := util.TrimWithDefault(p.SSLMode, constants.DefaultPostgresSSLMode)

	// Build DSN in the URL form accepted by pgx stdlib.
	fields := util.TrimSpaceFields(p.User, p.DBName)
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(fields[0], p.Password),
		Host:     fmt.Sprintf("%s:%d", host, port),
		Path:     "/" + fields[1],
		RawQuery: "sslmode=" + url.QueryEscape(ssl),
	}
	return u.String(), nil
}
