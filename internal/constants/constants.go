package constants

import "time"

// Journal defaults
const (
	DefaultJournalTable   = "SchemaVersions"
	ScriptNameMaxLength   = 255
	DefaultScriptPattern  = "*.sql"
	DefaultScriptsDir     = "./scripts"
	DefaultStatementToken = ";"
)

// Database Constants
const (
	// PostgreSQL defaults
	DefaultPostgresPort    = 5432
	DefaultPostgresSSLMode = "disable"

	// Connection pool settings
	DefaultSQLiteMaxConnections = 1 // SQLite allows only one writer
	DefaultSQLiteMaxIdleConns   = 1
)

// Time and Duration Constants
const (
	DefaultMaxConnLifetime = 5 * time.Minute
	DefaultMaxIdleTime     = 1 * time.Minute
	DefaultSQLiteLifetime  = 10 * time.Minute
	DefaultSQLiteIdleTime  = 5 * time.Minute
)

// Driver identifiers accepted in configuration
const (
	DriverSnowflake  = "snowflake"
	DriverPostgresql = "postgresql"
	DriverSqlite     = "sqlite"
)
