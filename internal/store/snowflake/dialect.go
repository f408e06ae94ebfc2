// Package snowflake implements the journal dialect for Snowflake.
package snowflake

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/loykin/snowup/internal/constants"
	"github.com/loykin/snowup/internal/quote"
	sf "github.com/snowflakedb/gosnowflake"
)

// appliedLayout matches the to_timestamp_ltz format used by InsertSQL.
const appliedLayout = "2006-01-02T15:04:05.000000000-07:00"

// Dialect implements SQL dialect for Snowflake
type Dialect struct{}

// NewDialect creates a new Snowflake dialect
func NewDialect() *Dialect {
	return &Dialect{}
}

func (d *Dialect) Name() string { return constants.DriverSnowflake }

// DriverName returns the database/sql driver name registered by gosnowflake
func (d *Dialect) DriverName() string { return "snowflake" }

func (d *Dialect) Quoter() quote.Quoter { return quote.DoubleQuote }

func (d *Dialect) table(schema, table string) string {
	return d.Quoter().Qualified(schema, table)
}

// CreateTableSQL returns the journal DDL. IF NOT EXISTS keeps concurrent
// first runs from failing.
func (d *Dialect) CreateTableSQL(schema, table string) string {
	return fmt.Sprintf(`create table if not exists %s (
    "Id" int not null primary key AUTOINCREMENT,
    "ScriptName" string(%d) not null,
    "Applied" TIMESTAMP_LTZ(9) not null DEFAULT(CURRENT_TIMESTAMP))`,
		d.table(schema, table), constants.ScriptNameMaxLength)
}

func (d *Dialect) TableExistsSQL(schema, table string) (string, []any) {
	if schema == "" {
		return "select count(*) from information_schema.tables where table_schema = current_schema() and table_name = ?", []any{table}
	}
	return "select count(*) from information_schema.tables where table_schema = ? and table_name = ?", []any{schema, table}
}

func (d *Dialect) SelectSQL(schema, table string) string {
	return fmt.Sprintf(`select "ScriptName" from %s order by "ScriptName"`, d.table(schema, table))
}

func (d *Dialect) InsertSQL(schema, table string) string {
	return fmt.Sprintf(`insert into %s ("ScriptName", "Applied") values (?, to_timestamp_ltz(?, 'YYYY-MM-DD"T"HH24:MI:SS.FF9TZH:TZM'))`,
		d.table(schema, table))
}

func (d *Dialect) VerifySchemaSQL(schema string) string {
	return fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", d.Quoter().Quote(schema))
}

// FormatTime renders t for the to_timestamp_ltz call in InsertSQL
func (d *Dialect) FormatTime(t time.Time) any {
	return t.Format(appliedLayout)
}

// Classify unwraps *gosnowflake.SnowflakeError into its error number and message
func (d *Dialect) Classify(err error) (string, string, bool) {
	var sfErr *sf.SnowflakeError
	if !errors.As(err, &sfErr) {
		return "", "", false
	}
	return strconv.Itoa(sfErr.Number), sfErr.Message, true
}

// Configure sets pool lifetimes; Snowflake sessions are cheap to recreate
func (d *Dialect) Configure(db *sql.DB) {
	db.SetConnMaxLifetime(constants.DefaultMaxConnLifetime)
	db.SetConnMaxIdleTime(constants.DefaultMaxIdleTime)
}

// SplitDatabase parses dsn and returns its database plus a dsn without it
func (d *Dialect) SplitDatabase(dsn string) (string, string, error) {
	cfg, err := sf.ParseDSN(dsn)
	if err != nil {
		return "", "", fmt.Errorf("parse snowflake dsn: %w", err)
	}
	name := cfg.Database
	if name == "" {
		return "", "", errors.New("snowflake dsn does not name a database")
	}
	cfg.Database = ""
	cfg.Schema = ""
	server, err := sf.DSN(cfg)
	if err != nil {
		return "", "", fmt.Errorf("build snowflake dsn: %w", err)
	}
	return name, server, nil
}

func (d *Dialect) CreateDatabaseSQL(name string) string {
	return fmt.Sprintf("create database IF NOT EXISTS %s", d.Quoter().Quote(name))
}
