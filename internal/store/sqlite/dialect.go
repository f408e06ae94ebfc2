// Package sqlite implements the journal dialect for SQLite. SQLite has no
// schemas, so schema arguments are ignored.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/loykin/snowup/internal/constants"
	"github.com/loykin/snowup/internal/quote"
	sqlitedrv "modernc.org/sqlite"
)

// Dialect implements SQL dialect for SQLite
type Dialect struct{}

// NewDialect creates a new SQLite dialect
func NewDialect() *Dialect {
	return &Dialect{}
}

func (s *Dialect) Name() string { return constants.DriverSqlite }

// DriverName returns the modernc driver name
func (s *Dialect) DriverName() string { return "sqlite" }

func (s *Dialect) Quoter() quote.Quoter { return quote.DoubleQuote }

func (s *Dialect) CreateTableSQL(_, table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    "Id" INTEGER PRIMARY KEY AUTOINCREMENT,
    "ScriptName" TEXT NOT NULL,
    "Applied" TEXT NOT NULL DEFAULT (strftime('%%Y-%%m-%%dT%%H:%%M:%%fZ', 'now')))`,
		s.Quoter().Quote(table))
}

func (s *Dialect) TableExistsSQL(_, table string) (string, []any) {
	return "SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?", []any{table}
}

func (s *Dialect) SelectSQL(_, table string) string {
	return fmt.Sprintf(`SELECT "ScriptName" FROM %s ORDER BY "ScriptName"`, s.Quoter().Quote(table))
}

func (s *Dialect) InsertSQL(_, table string) string {
	return fmt.Sprintf(`INSERT INTO %s ("ScriptName", "Applied") VALUES (?, ?)`, s.Quoter().Quote(table))
}

// VerifySchemaSQL returns "" because SQLite has no schemas
func (s *Dialect) VerifySchemaSQL(string) string {
	return ""
}

// FormatTime converts time to SQLite storage format (RFC3339Nano string)
func (s *Dialect) FormatTime(t time.Time) any {
	return t.UTC().Format(time.RFC3339Nano)
}

// Classify unwraps *sqlite.Error into its extended result code
func (s *Dialect) Classify(err error) (string, string, bool) {
	var sqlErr *sqlitedrv.Error
	if !errors.As(err, &sqlErr) {
		return "", "", false
	}
	return strconv.Itoa(sqlErr.Code()), sqlErr.Error(), true
}

// Configure applies SQLite pool settings (SQLite doesn't support multiple writers)
func (s *Dialect) Configure(db *sql.DB) {
	db.SetMaxOpenConns(constants.DefaultSQLiteMaxConnections)
	db.SetMaxIdleConns(constants.DefaultSQLiteMaxIdleConns)
	db.SetConnMaxLifetime(constants.DefaultSQLiteLifetime)
	db.SetConnMaxIdleTime(constants.DefaultSQLiteIdleTime)
}
