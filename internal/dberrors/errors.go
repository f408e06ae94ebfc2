// Package dberrors defines the failure kinds reported by an upgrade run.
//
// Every kind is fatal: the run halts and the error is surfaced to the caller
// after being logged. Match kinds with errors.Is against the Err* sentinels or
// with errors.As against the concrete types.
package dberrors

import (
	"errors"
	"fmt"
)

// Kind sentinels. The concrete error types report them through Is.
var (
	ErrConnection        = errors.New("connection error")
	ErrDatabaseExecution = errors.New("database execution error")
	ErrJournalWrite      = errors.New("journal write error")
	ErrSchemaCreation    = errors.New("schema creation error")
)

// Other sentinels.
var (
	// ErrNotSupported is returned when a dialect lacks an optional capability.
	ErrNotSupported = errors.New("operation not supported by dialect")

	// ErrDropDatabaseNotSupported is returned by DropDatabase.
	ErrDropDatabaseNotSupported = errors.New("drop database is not supported")

	// ErrDuplicateScript is returned when two discovered scripts share a name.
	ErrDuplicateScript = errors.New("duplicate script name")

	// ErrScriptNameTooLong is returned when a script name does not fit the
	// journal's ScriptName column.
	ErrScriptNameTooLong = errors.New("script name too long")

	// ErrUndefinedVariable is returned when a script references a $variable$
	// that has no value.
	ErrUndefinedVariable = errors.New("variable has no value defined")
)

// ConnectionError reports that the database connection could not be opened
// or kept alive.
type ConnectionError struct {
	Driver string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection (%s): %v", e.Driver, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func (e *ConnectionError) Is(target error) bool { return target == ErrConnection }

// DatabaseExecutionError reports a failed statement. Index is the 0-based
// position of the statement within the script.
type DatabaseExecutionError struct {
	ScriptName string
	Index      int
	Code       string
	Message    string
	Err        error
}

func (e *DatabaseExecutionError) Error() string {
	code := e.Code
	if code == "" {
		code = "unknown"
	}
	return fmt.Sprintf("script %s: statement %d failed (code %s): %s", e.ScriptName, e.Index, code, e.Message)
}

func (e *DatabaseExecutionError) Unwrap() error { return e.Err }

func (e *DatabaseExecutionError) Is(target error) bool { return target == ErrDatabaseExecution }

// JournalWriteError reports that a script ran but its journal entry could not
// be written.
type JournalWriteError struct {
	ScriptName string
	Err        error
}

func (e *JournalWriteError) Error() string {
	return fmt.Sprintf("journal write for %s: %v", e.ScriptName, e.Err)
}

func (e *JournalWriteError) Unwrap() error { return e.Err }

func (e *JournalWriteError) Is(target error) bool { return target == ErrJournalWrite }

// SchemaCreationError reports that ensuring a schema, database or journal
// table failed. Object names what was being created.
type SchemaCreationError struct {
	Object string
	Err    error
}

func (e *SchemaCreationError) Error() string {
	return fmt.Sprintf("ensure %s: %v", e.Object, e.Err)
}

func (e *SchemaCreationError) Unwrap() error { return e.Err }

func (e *SchemaCreationError) Is(target error) bool { return target == ErrSchemaCreation }
