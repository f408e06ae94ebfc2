package connection

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/loykin/snowup/internal/dberrors"
	"github.com/loykin/snowup/internal/retry"
	"github.com/loykin/snowup/internal/store/snowflake"
	"github.com/loykin/snowup/internal/store/sqlite"
)

func sqliteDSN(t *testing.T, name string) string {
	t.Helper()
	cfg := sqlite.Config{Path: filepath.Join(t.TempDir(), name)}
	dsn, err := cfg.ConnectionString()
	if err != nil {
		t.Fatalf("dsn: %v", err)
	}
	return dsn
}

func TestManager_ConnectReusesHandle(t *testing.T) {
	m := NewManager(sqlite.NewDialect(), sqliteDSN(t, "m.db"), retry.Policy{})
	defer func() { _ = m.Close() }()

	db1, err := m.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	db2, err := m.Connect(context.Background())
	if err != nil {
		t.Fatalf("Connect #2: %v", err)
	}
	if db1 != db2 {
		t.Fatalf("expected the same handle")
	}
	if got := db1.Stats().MaxOpenConnections; got != 1 {
		t.Fatalf("sqlite pool should be limited to one connection, got %d", got)
	}
}

func TestManager_ConnectFailureIsConnectionError(t *testing.T) {
	m := NewManager(sqlite.NewDialect(), "file:/nonexistent-dir/sub/x.db?mode=ro", retry.Policy{})
	_, err := m.Connect(context.Background())
	if !errors.Is(err, dberrors.ErrConnection) {
		t.Fatalf("expected connection error, got %v", err)
	}
}

func TestFromDB_CloseLeavesCallerHandleOpen(t *testing.T) {
	d := sqlite.NewDialect()
	db, err := sql.Open(d.DriverName(), sqliteDSN(t, "f.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = db.Close() }()

	m := FromDB(d, db)
	got, err := m.Connect(context.Background())
	if err != nil || got != db {
		t.Fatalf("Connect() = %v, %v", got, err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("caller handle was closed: %v", err)
	}
}

// creatorDialect lets sqlite stand in for a dialect that can create databases.
type creatorDialect struct {
	*sqlite.Dialect
	dsn string
}

func (c creatorDialect) SplitDatabase(string) (string, string, error) {
	return "analytics", c.dsn, nil
}

func (c creatorDialect) CreateDatabaseSQL(name string) string {
	return "CREATE TABLE IF NOT EXISTS " + c.Quoter().Quote(name) + " (id INTEGER)"
}

func TestEnsureDatabase_Idempotent(t *testing.T) {
	dsn := sqliteDSN(t, "e.db")
	d := creatorDialect{Dialect: sqlite.NewDialect(), dsn: dsn}
	for i := 0; i < 2; i++ {
		if err := EnsureDatabase(context.Background(), d, "ignored", -1); err != nil {
			t.Fatalf("EnsureDatabase #%d: %v", i+1, err)
		}
	}
}

func TestEnsureDatabase_NotSupported(t *testing.T) {
	err := EnsureDatabase(context.Background(), sqlite.NewDialect(), sqliteDSN(t, "n.db"), 0)
	if !errors.Is(err, dberrors.ErrNotSupported) {
		t.Fatalf("expected ErrNotSupported, got %v", err)
	}
}

func TestEnsureDatabase_BadDSN(t *testing.T) {
	err := EnsureDatabase(context.Background(), snowflake.NewDialect(), "::not a dsn::", 0)
	if !errors.Is(err, dberrors.ErrConnection) {
		t.Fatalf("expected connection error, got %v", err)
	}
}

func TestDropDatabase_NotSupported(t *testing.T) {
	err := DropDatabase(context.Background(), snowflake.NewDialect(), "acme/DB")
	if !errors.Is(err, dberrors.ErrDropDatabaseNotSupported) {
		t.Fatalf("expected ErrDropDatabaseNotSupported, got %v", err)
	}
}
