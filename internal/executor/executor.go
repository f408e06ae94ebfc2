// Package executor runs the statements of one migration script against a
// connection and reports the first failure.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/loykin/snowup/internal/common"
	"github.com/loykin/snowup/internal/dberrors"
	"github.com/loykin/snowup/internal/script"
	"github.com/loykin/snowup/internal/splitter"
	"github.com/loykin/snowup/internal/store"
)

// Options configure an Executor. The zero value splits on ";" lines, applies
// no preprocessing and sets no statement timeout.
type Options struct {
	Splitter         *splitter.Splitter
	Preprocessor     script.Preprocessor
	StatementTimeout time.Duration
	Logger           *common.Logger
}

// Executor runs scripts statement by statement.
type Executor struct {
	dialect      store.Dialect
	splitter     *splitter.Splitter
	preprocessor script.Preprocessor
	timeout      time.Duration
	logger       *common.Logger
}

// New returns an Executor for dialect d.
func New(d store.Dialect, opts Options) *Executor {
	sp := opts.Splitter
	if sp == nil {
		sp = splitter.New("")
	}
	logger := opts.Logger
	if logger == nil {
		logger = common.GetLogger()
	}
	return &Executor{
		dialect:      d,
		splitter:     sp,
		preprocessor: opts.Preprocessor,
		timeout:      opts.StatementTimeout,
		logger:       logger.WithComponent("executor"),
	}
}

// Statements returns the statements Execute would run for s.
func (e *Executor) Statements(s script.Script) ([]string, error) {
	contents := s.Contents
	if e.preprocessor != nil {
		var err error
		if contents, err = e.preprocessor.Process(contents); err != nil {
			return nil, fmt.Errorf("failed to preprocess script %s: %w", s.Name, err)
		}
	}
	return e.splitter.Split(contents), nil
}

// Execute runs every statement of s on db in order and stops at the first
// failure, which is returned as a *dberrors.DatabaseExecutionError.
func (e *Executor) Execute(ctx context.Context, db store.DBTX, s script.Script) error {
	logger := e.logger.WithScript(s.Name)
	statements, err := e.Statements(s)
	if err != nil {
		logger.Error("failed to prepare script", "error", err)
		return err
	}

	logger.Info("executing script", "statements", len(statements))
	for i, stmt := range statements {
		logger.Debug("executing statement", "statement_index", i)
		if err := e.exec(ctx, db, stmt); err != nil {
			execErr := e.classify(s.Name, i, err)
			logger.Info("database error occurred in script", "script", s.Name)
			logger.Error("statement failed",
				"script", s.Name,
				"statement_index", i,
				"code", execErr.Code,
				"message", execErr.Message,
			)
			logger.Error("database error detail", "error", err.Error())
			return execErr
		}
	}
	return nil
}

func (e *Executor) exec(ctx context.Context, db store.DBTX, stmt string) error {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	_, err := db.ExecContext(ctx, stmt)
	return err
}

func (e *Executor) classify(name string, index int, err error) *dberrors.DatabaseExecutionError {
	code, message, ok := e.dialect.Classify(err)
	if !ok {
		code, message = "", err.Error()
	}
	return &dberrors.DatabaseExecutionError{
		ScriptName: name,
		Index:      index,
		Code:       code,
		Message:    message,
		Err:        err,
	}
}

// VerifySchema creates schema when the dialect supports schemas. It is a
// no-op for an empty schema.
func (e *Executor) VerifySchema(ctx context.Context, db store.DBTX, schema string) error {
	if schema == "" {
		return nil
	}
	query := e.dialect.VerifySchemaSQL(schema)
	if query == "" {
		e.logger.Debug("dialect has no schemas, skipping schema verification", "schema", schema)
		return nil
	}
	e.logger.Info("verifying schema", "schema", schema)
	if _, err := db.ExecContext(ctx, query); err != nil {
		e.logger.Error("failed to create schema", "schema", schema, "error", err)
		return &dberrors.SchemaCreationError{Object: "schema " + e.dialect.Quoter().Quote(schema), Err: err}
	}
	return nil
}
