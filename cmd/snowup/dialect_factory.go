package main

import (
	"context"
	"fmt"

	"github.com/loykin/snowup/internal/auth/oauth2"
	"github.com/loykin/snowup/internal/constants"
	"github.com/loykin/snowup/internal/store"
	"github.com/loykin/snowup/internal/store/postgresql"
	"github.com/loykin/snowup/internal/store/snowflake"
	"github.com/loykin/snowup/internal/store/sqlite"
	"github.com/loykin/snowup/internal/util"
)

// DialectFactory turns the database block of the config into a dialect and
// connection string.
type DialectFactory struct{}

// NewDialectFactory creates a new dialect factory
func NewDialectFactory() *DialectFactory {
	return &DialectFactory{}
}

// withDSN copies opts and sets dsn when one was given at the top level.
func withDSN(opts map[string]any, dsn string) map[string]any {
	out := make(map[string]any, len(opts)+1)
	for k, v := range opts {
		out[k] = v
	}
	if dsn, ok := util.TrimEmptyCheck(dsn); ok {
		out["dsn"] = dsn
	}
	return out
}

// Create returns the dialect and DSN for cfg. An empty driver means snowflake.
func (f *DialectFactory) Create(ctx context.Context, cfg DatabaseConfig) (store.Dialect, string, error) {
	driver := util.TrimAndLower(cfg.Driver)
	switch driver {
	case "", constants.DriverSnowflake:
		return f.snowflake(ctx, cfg)
	case constants.DriverPostgresql, "postgres":
		pc, err := postgresql.Load(withDSN(cfg.Postgres, cfg.DSN))
		if err != nil {
			return nil, "", fmt.Errorf("database.postgres: %w", err)
		}
		dsn, err := pc.ConnectionString()
		if err != nil {
			return nil, "", err
		}
		return postgresql.NewDialect(), dsn, nil
	case constants.DriverSqlite:
		sc, err := sqlite.Load(withDSN(cfg.SQLite, cfg.DSN))
		if err != nil {
			return nil, "", fmt.Errorf("database.sqlite: %w", err)
		}
		dsn, err := sc.ConnectionString()
		if err != nil {
			return nil, "", err
		}
		return sqlite.NewDialect(), dsn, nil
	default:
		return nil, "", fmt.Errorf("unsupported database driver %q (valid: snowflake, postgresql, sqlite)", cfg.Driver)
	}
}

func (f *DialectFactory) snowflake(ctx context.Context, cfg DatabaseConfig) (store.Dialect, string, error) {
	sc, err := snowflake.Load(withDSN(cfg.Snowflake, cfg.DSN))
	if err != nil {
		return nil, "", fmt.Errorf("database.snowflake: %w", err)
	}
	if len(cfg.OAuth) > 0 {
		oc, err := oauth2.Load(cfg.OAuth)
		if err != nil {
			return nil, "", fmt.Errorf("database.oauth: %w", err)
		}
		token, err := oc.Token(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("database.oauth: %w", err)
		}
		sc.Token = token
	}
	dsn, err := sc.ConnectionString()
	if err != nil {
		return nil, "", err
	}
	return snowflake.NewDialect(), dsn, nil
}
