// Package postgresql implements the journal dialect for PostgreSQL.
package postgresql

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/loykin/snowup/internal/constants"
	"github.com/loykin/snowup/internal/quote"
)

// Dialect implements SQL dialect for PostgreSQL
type Dialect struct{}

// NewDialect creates a new PostgreSQL dialect
func NewDialect() *Dialect {
	return &Dialect{}
}

func (p *Dialect) Name() string { return constants.DriverPostgresql }

// DriverName returns the pgx stdlib driver name
func (p *Dialect) DriverName() string { return "pgx" }

func (p *Dialect) Quoter() quote.Quoter { return quote.DoubleQuote }

func (p *Dialect) table(schema, table string) string {
	return p.Quoter().Qualified(schema, table)
}

func (p *Dialect) CreateTableSQL(schema, table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    "Id" serial PRIMARY KEY,
    "ScriptName" varchar(%d) NOT NULL,
    "Applied" timestamptz NOT NULL DEFAULT now())`,
		p.table(schema, table), constants.ScriptNameMaxLength)
}

func (p *Dialect) TableExistsSQL(schema, table string) (string, []any) {
	if schema == "" {
		return "SELECT count(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1", []any{table}
	}
	return "SELECT count(*) FROM information_schema.tables WHERE table_schema = $1 AND table_name = $2", []any{schema, table}
}

// SelectSQL orders with the C collation so names sort bytewise regardless of
// the database locale.
func (p *Dialect) SelectSQL(schema, table string) string {
	return fmt.Sprintf(`SELECT "ScriptName" FROM %s ORDER BY "ScriptName" COLLATE "C"`, p.table(schema, table))
}

func (p *Dialect) InsertSQL(schema, table string) string {
	return fmt.Sprintf(`INSERT INTO %s ("ScriptName", "Applied") VALUES ($1, $2)`, p.table(schema, table))
}

func (p *Dialect) VerifySchemaSQL(schema string) string {
	return fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", p.Quoter().Quote(schema))
}

// FormatTime keeps the native time.Time; pgx encodes it as timestamptz
func (p *Dialect) FormatTime(t time.Time) any {
	return t
}

// Classify unwraps *pgconn.PgError into its SQLSTATE and message
func (p *Dialect) Classify(err error) (string, string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", "", false
	}
	return pgErr.Code, pgErr.Message, true
}

func (p *Dialect) Configure(db *sql.DB) {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(constants.DefaultMaxConnLifetime)
	db.SetConnMaxIdleTime(constants.DefaultMaxIdleTime)
}
