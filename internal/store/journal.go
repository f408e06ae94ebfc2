package store

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/loykin/snowup/internal/common"
	"github.com/loykin/snowup/internal/constants"
	"github.com/loykin/snowup/internal/dberrors"
)

// Journal records applied scripts in a table generated by a Dialect. It holds
// no connection; every call runs against the DBTX it is given so the caller
// decides whether a write shares a transaction with the script.
type Journal struct {
	dialect Dialect
	schema  string
	table   string
	logger  *common.Logger
}

// NewJournal returns a journal for schema.table. An empty table falls back to
// SchemaVersions and an empty schema uses the connection default.
func NewJournal(d Dialect, schema, table string) *Journal {
	if table == "" {
		table = constants.DefaultJournalTable
	}
	return &Journal{dialect: d, schema: schema, table: table}
}

// WithLogger returns a copy of the journal logging to logger.
func (j *Journal) WithLogger(logger *common.Logger) *Journal {
	cp := *j
	cp.logger = logger
	return &cp
}

func (j *Journal) log() *common.Logger {
	l := j.logger
	if l == nil {
		l = common.GetLogger()
	}
	return l.WithStore(j.dialect.Name())
}

// Dialect returns the dialect the journal generates SQL with.
func (j *Journal) Dialect() Dialect { return j.dialect }

// FqTableName returns the quoted, schema-qualified journal table name.
func (j *Journal) FqTableName() string {
	return j.dialect.Quoter().Qualified(j.schema, j.table)
}

// TableExists reports whether the journal table is present.
func (j *Journal) TableExists(ctx context.Context, db DBTX) (bool, error) {
	query, args := j.dialect.TableExistsSQL(j.schema, j.table)
	var n int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check journal table %s: %w", j.FqTableName(), err)
	}
	return n > 0, nil
}

// EnsureTableExists creates the journal table when it is missing. Creation
// uses IF NOT EXISTS so a concurrent run that wins the race is not an error.
func (j *Journal) EnsureTableExists(ctx context.Context, db DBTX) error {
	logger := j.log()
	name := j.FqTableName()
	exists, err := j.TableExists(ctx, db)
	if err != nil {
		return &dberrors.SchemaCreationError{Object: "journal table " + name, Err: err}
	}
	if exists {
		logger.Debug("journal table already exists", "table", name)
		return nil
	}

	logger.Info("creating the journal table", "table", name)
	if _, err := db.ExecContext(ctx, j.dialect.CreateTableSQL(j.schema, j.table)); err != nil {
		logger.Error("failed to create journal table", "table", name, "error", err)
		return &dberrors.SchemaCreationError{Object: "journal table " + name, Err: err}
	}
	logger.Info("the journal table has been created", "table", name)
	return nil
}

// AppliedScriptNames returns the recorded script names in ascending order. A
// missing table means nothing has been applied; the table is not created.
func (j *Journal) AppliedScriptNames(ctx context.Context, db DBTX) ([]string, error) {
	exists, err := j.TableExists(ctx, db)
	if err != nil {
		return nil, err
	}
	if !exists {
		j.log().Debug("journal table does not exist yet", "table", j.FqTableName())
		return nil, nil
	}

	rows, err := db.QueryContext(ctx, j.dialect.SelectSQL(j.schema, j.table))
	if err != nil {
		return nil, fmt.Errorf("failed to read journal %s: %w", j.FqTableName(), err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan journal row: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal %s: %w", j.FqTableName(), err)
	}
	return names, nil
}

// RecordApplied inserts the journal entry for name. Any failure is a
// JournalWriteError.
func (j *Journal) RecordApplied(ctx context.Context, db DBTX, name string, appliedAt time.Time) error {
	if utf8.RuneCountInString(name) > constants.ScriptNameMaxLength {
		return &dberrors.JournalWriteError{
			ScriptName: name,
			Err:        fmt.Errorf("%w: exceeds %d characters", dberrors.ErrScriptNameTooLong, constants.ScriptNameMaxLength),
		}
	}
	query := j.dialect.InsertSQL(j.schema, j.table)
	if _, err := db.ExecContext(ctx, query, name, j.dialect.FormatTime(appliedAt)); err != nil {
		j.log().Error("failed to record script in journal", "script", name, "table", j.FqTableName(), "error", err)
		return &dberrors.JournalWriteError{ScriptName: name, Err: err}
	}
	j.log().Debug("recorded script in journal", "script", name)
	return nil
}
