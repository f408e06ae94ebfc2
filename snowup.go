// Package snowup applies SQL migration scripts to Snowflake (and PostgreSQL or
// SQLite) and records each applied script in a journal table so that re-runs
// only execute what is new.
package snowup

import (
	"context"
	"database/sql"
	"io"
	"os"
	"time"

	"github.com/loykin/snowup/internal/common"
	"github.com/loykin/snowup/internal/connection"
	"github.com/loykin/snowup/internal/dberrors"
	"github.com/loykin/snowup/internal/quote"
	"github.com/loykin/snowup/internal/retry"
	"github.com/loykin/snowup/internal/script"
	"github.com/loykin/snowup/internal/splitter"
	"github.com/loykin/snowup/internal/store"
	"github.com/loykin/snowup/internal/store/postgresql"
	"github.com/loykin/snowup/internal/store/snowflake"
	"github.com/loykin/snowup/internal/store/sqlite"
	"github.com/loykin/snowup/internal/upgrade"
)

// Re-export commonly used types for public API

type Config = upgrade.Config

type Upgrader = upgrade.Upgrader

type Result = upgrade.Result

type TransactionMode = upgrade.TransactionMode

const (
	TransactionNone      = upgrade.TransactionNone
	TransactionPerScript = upgrade.TransactionPerScript
)

// Script is one named migration unit.
type Script = script.Script

// Source discovers scripts.
type Source = script.Source

// DirSource reads scripts from a directory of an fs.FS.
type DirSource = script.DirSource

// Static is a fixed list of scripts.
type Static = script.Static

// Dialect generates journal SQL for a target database.
type Dialect = store.Dialect

type DBTX = store.DBTX

type Logger = common.Logger

type LogLevel = common.LogLevel

const (
	LogLevelError = common.LogLevelError
	LogLevelWarn  = common.LogLevelWarn
	LogLevelInfo  = common.LogLevelInfo
	LogLevelDebug = common.LogLevelDebug
)

// NewLogger returns a text logger writing to stderr.
func NewLogger(level LogLevel) *Logger { return common.NewLogger(level) }

// NewLoggerTo returns a text logger writing to w.
func NewLoggerTo(w io.Writer, level LogLevel) *Logger { return common.NewLoggerTo(w, level) }

// NewJSONLogger returns a JSON logger writing to stderr.
func NewJSONLogger(level LogLevel) *Logger { return common.NewJSONLogger(level) }

// NewColorLogger returns a colorized text logger writing to stderr.
func NewColorLogger(level LogLevel) *Logger { return common.NewColorLogger(level) }

// SetDefaultLogger replaces the logger used when Config.Logger is nil.
func SetDefaultLogger(logger *Logger) { common.SetDefaultLogger(logger) }

// GetLogger returns the default logger.
func GetLogger() *Logger { return common.GetLogger() }

// RetryPolicy controls connection attempts.
type RetryPolicy = retry.Policy

// Error kinds
type (
	ConnectionError        = dberrors.ConnectionError
	DatabaseExecutionError = dberrors.DatabaseExecutionError
	JournalWriteError      = dberrors.JournalWriteError
	SchemaCreationError    = dberrors.SchemaCreationError
)

var (
	ErrConnection               = dberrors.ErrConnection
	ErrDatabaseExecution        = dberrors.ErrDatabaseExecution
	ErrJournalWrite             = dberrors.ErrJournalWrite
	ErrSchemaCreation           = dberrors.ErrSchemaCreation
	ErrNotSupported             = dberrors.ErrNotSupported
	ErrDropDatabaseNotSupported = dberrors.ErrDropDatabaseNotSupported
	ErrDuplicateScript          = dberrors.ErrDuplicateScript
	ErrScriptNameTooLong        = dberrors.ErrScriptNameTooLong
	ErrUndefinedVariable        = dberrors.ErrUndefinedVariable
)

// Snowflake returns the Snowflake dialect.
func Snowflake() Dialect { return snowflake.NewDialect() }

// Postgres returns the PostgreSQL dialect.
func Postgres() Dialect { return postgresql.NewDialect() }

// SQLite returns the SQLite dialect.
func SQLite() Dialect { return sqlite.NewDialect() }

// NewScript returns a script named name.
func NewScript(name, contents string) Script { return script.New(name, contents) }

// ScriptsFromDir discovers scripts in dir matching pattern ("*.sql" when empty).
func ScriptsFromDir(dir, pattern string) Source {
	return script.DirSource{FS: os.DirFS(dir), Dir: ".", Pattern: pattern}
}

// Split splits raw on lines holding only ";".
func Split(raw string) []string { return splitter.Split(raw) }

// Quote double-quotes an identifier.
func Quote(identifier string) string { return quote.DoubleQuote.Quote(identifier) }

// DefaultRetryPolicy returns the connection retry policy used by the CLI.
func DefaultRetryPolicy() RetryPolicy { return retry.DefaultPolicy() }

// New returns an Upgrader that connects to dsn with the dialect's driver.
// Close the Upgrader to release the connection.
func New(d Dialect, dsn string, source Source, cfg Config) *Upgrader {
	return NewWithRetry(d, dsn, retry.DefaultPolicy(), source, cfg)
}

// NewWithRetry is New with an explicit connection retry policy.
func NewWithRetry(d Dialect, dsn string, policy RetryPolicy, source Source, cfg Config) *Upgrader {
	m := connection.NewManager(d, dsn, policy)
	m.Logger = cfg.Logger
	return upgrade.NewForDialect(d, m, source, cfg)
}

// NewWithDB returns an Upgrader over an existing handle. Close leaves db open.
func NewWithDB(d Dialect, db *sql.DB, source Source, cfg Config) *Upgrader {
	return upgrade.NewForDialect(d, connection.FromDB(d, db), source, cfg)
}

// EnsureDatabase creates the database named by dsn when the dialect supports
// it. A positive timeout bounds the create statement.
func EnsureDatabase(ctx context.Context, d Dialect, dsn string, timeout time.Duration) error {
	return connection.EnsureDatabase(ctx, d, dsn, timeout)
}

// DropDatabase always fails with ErrDropDatabaseNotSupported.
func DropDatabase(ctx context.Context, d Dialect, dsn string) error {
	return connection.DropDatabase(ctx, d, dsn)
}
