package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/loykin/snowup/internal/quote"
)

// DBTX is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect generates the journal SQL for one target database. All methods
// receive unquoted names; quoting happens inside the dialect.
type Dialect interface {
	// Name identifies the dialect in logs.
	Name() string
	// DriverName is the database/sql driver registered for the dialect.
	DriverName() string
	// Quoter quotes schema, table and column identifiers.
	Quoter() quote.Quoter

	CreateTableSQL(schema, table string) string
	TableExistsSQL(schema, table string) (string, []any)
	SelectSQL(schema, table string) string
	InsertSQL(schema, table string) string
	// VerifySchemaSQL returns "" when the dialect has no schemas.
	VerifySchemaSQL(schema string) string

	// FormatTime converts the applied timestamp to the bound parameter form.
	FormatTime(t time.Time) any
	// Classify extracts the vendor code and message from a driver error.
	Classify(err error) (code, message string, ok bool)
	// Configure applies pool settings after the database is opened.
	Configure(db *sql.DB)
}

// DatabaseCreator is implemented by dialects that can create the database a
// connection string names.
type DatabaseCreator interface {
	// SplitDatabase returns the database named by dsn and a dsn that connects
	// without selecting it.
	SplitDatabase(dsn string) (name, serverDSN string, err error)
	CreateDatabaseSQL(name string) string
}
