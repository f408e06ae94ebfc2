package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/loykin/snowup/internal/constants"
	sf "github.com/snowflakedb/gosnowflake"
)

func TestDialectFactory_Create(t *testing.T) {
	tests := []struct {
		name       string
		cfg        DatabaseConfig
		wantDriver string
		wantDSN    string
		wantErr    bool
	}{
		{
			name:       "sqlite path",
			cfg:        DatabaseConfig{Driver: "sqlite", SQLite: map[string]any{"path": "/tmp/a.db"}},
			wantDriver: constants.DriverSqlite,
			wantDSN:    "file:/tmp/a.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)",
		},
		{
			name:       "postgres alias with top level dsn",
			cfg:        DatabaseConfig{Driver: "Postgres", DSN: "postgres://u@h/db"},
			wantDriver: constants.DriverPostgresql,
			wantDSN:    "postgres://u@h/db",
		},
		{
			name:       "postgres components",
			cfg:        DatabaseConfig{Driver: "postgresql", Postgres: map[string]any{"host": "db", "port": "6543", "user": "u", "dbname": "app"}},
			wantDriver: constants.DriverPostgresql,
			wantDSN:    "postgres://u:@db:6543/app?sslmode=disable",
		},
		{name: "unknown driver", cfg: DatabaseConfig{Driver: "oracle"}, wantErr: true},
		{name: "unknown option", cfg: DatabaseConfig{Driver: "sqlite", SQLite: map[string]any{"file": "x"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, dsn, err := NewDialectFactory().Create(context.Background(), tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if d.Name() != tt.wantDriver || dsn != tt.wantDSN {
				t.Fatalf("Create() = %s %s, want %s %s", d.Name(), dsn, tt.wantDriver, tt.wantDSN)
			}
		})
	}
}

func TestDialectFactory_SnowflakeWithOAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "oauth-tok", "token_type": "Bearer"})
	}))
	defer srv.Close()

	cfg := DatabaseConfig{
		Snowflake: map[string]any{"account": "acme", "user": "svc", "database": "ANALYTICS"},
		OAuth:     map[string]any{"client_id": "id", "client_secret": "sec", "token_url": srv.URL},
	}
	d, dsn, err := NewDialectFactory().Create(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if d.Name() != constants.DriverSnowflake {
		t.Fatalf("default driver = %s, want snowflake", d.Name())
	}
	parsed, err := sf.ParseDSN(dsn)
	if err != nil {
		t.Fatalf("ParseDSN: %v", err)
	}
	if parsed.Token != "oauth-tok" || parsed.Authenticator != sf.AuthTypeOAuth {
		t.Fatalf("oauth token not injected: %q %v", parsed.Token, parsed.Authenticator)
	}
}

func TestDialectFactory_SnowflakeOAuthFailure(t *testing.T) {
	cfg := DatabaseConfig{
		Snowflake: map[string]any{"account": "acme", "user": "svc"},
		OAuth:     map[string]any{"client_id": "id"},
	}
	_, _, err := NewDialectFactory().Create(context.Background(), cfg)
	if err == nil || !strings.Contains(err.Error(), "database.oauth") {
		t.Fatalf("expected oauth error, got %v", err)
	}
}
