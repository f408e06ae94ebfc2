// Package upgrade applies pending migration scripts in name order and records
// each one in the journal as soon as it succeeds.
package upgrade

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/loykin/snowup/internal/common"
	"github.com/loykin/snowup/internal/dberrors"
	"github.com/loykin/snowup/internal/executor"
	"github.com/loykin/snowup/internal/script"
	"github.com/loykin/snowup/internal/splitter"
	"github.com/loykin/snowup/internal/store"
)

// ConnectionManager hands out the database handle for a run.
type ConnectionManager interface {
	Connect(ctx context.Context) (*sql.DB, error)
	Close() error
}

// ScriptExecutor runs one script's statements.
type ScriptExecutor interface {
	Execute(ctx context.Context, db store.DBTX, s script.Script) error
	VerifySchema(ctx context.Context, db store.DBTX, schema string) error
}

// Journal records applied scripts.
type Journal interface {
	EnsureTableExists(ctx context.Context, db store.DBTX) error
	AppliedScriptNames(ctx context.Context, db store.DBTX) ([]string, error)
	RecordApplied(ctx context.Context, db store.DBTX, name string, appliedAt time.Time) error
}

// Result reports what a run did. Failed names the script that halted the run.
type Result struct {
	Applied []string
	Failed  string
}

// Successful reports whether the run finished without a failing script.
func (r Result) Successful() bool { return r.Failed == "" }

// Upgrader sequences discovery, execution and journaling. Scripts are applied
// one at a time; a script's journal entry is written before the next starts.
type Upgrader struct {
	conn     ConnectionManager
	executor ScriptExecutor
	journal  Journal
	source   script.Source
	cfg      Config
	logger   *common.Logger
}

// New assembles an Upgrader from its three strategies.
func New(conn ConnectionManager, exec ScriptExecutor, journal Journal, source script.Source, cfg Config) *Upgrader {
	cfg = cfg.withDefaults()
	return &Upgrader{
		conn:     conn,
		executor: exec,
		journal:  journal,
		source:   source,
		cfg:      cfg,
		logger:   cfg.Logger.WithComponent("upgrade"),
	}
}

// NewForDialect builds the executor and journal for d from cfg.
func NewForDialect(d store.Dialect, conn ConnectionManager, source script.Source, cfg Config) *Upgrader {
	cfg = cfg.withDefaults()
	opts := executor.Options{
		Splitter:         splitter.New(cfg.StatementToken),
		StatementTimeout: cfg.StatementTimeout,
		Logger:           cfg.Logger,
	}
	if !cfg.DisableVariables {
		opts.Preprocessor = script.Variables(cfg.Variables)
	}
	j := store.NewJournal(d, cfg.Schema, cfg.Table).WithLogger(cfg.Logger)
	return New(conn, executor.New(d, opts), j, source, cfg)
}

// Config returns a copy of the run configuration.
func (u *Upgrader) Config() Config {
	cfg := u.cfg
	cfg.Variables = make(map[string]string, len(u.cfg.Variables))
	for k, v := range u.cfg.Variables {
		cfg.Variables[k] = v
	}
	return cfg
}

// Close releases the connection manager.
func (u *Upgrader) Close() error {
	return u.conn.Close()
}

func (u *Upgrader) discover() ([]script.Script, error) {
	all, err := u.source.Scripts()
	if err != nil {
		return nil, fmt.Errorf("failed to discover scripts: %w", err)
	}
	return script.Sorted(all)
}

func (u *Upgrader) pending(ctx context.Context, db *sql.DB) ([]script.Script, error) {
	all, err := u.discover()
	if err != nil {
		return nil, err
	}
	u.logger.Info("fetching list of already executed scripts")
	applied, err := u.journal.AppliedScriptNames(ctx, db)
	if err != nil {
		return nil, err
	}
	return script.Pending(all, applied), nil
}

// PendingScripts returns the discovered scripts missing from the journal in
// apply order. The journal table is not created.
func (u *Upgrader) PendingScripts(ctx context.Context) ([]script.Script, error) {
	db, err := u.conn.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return u.pending(ctx, db)
}

// IsUpgradeRequired reports whether any script is pending.
func (u *Upgrader) IsUpgradeRequired(ctx context.Context) (bool, error) {
	pending, err := u.PendingScripts(ctx)
	if err != nil {
		return false, err
	}
	return len(pending) > 0, nil
}

// AppliedScripts returns the journaled script names in ascending order.
func (u *Upgrader) AppliedScripts(ctx context.Context) ([]string, error) {
	db, err := u.conn.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return u.journal.AppliedScriptNames(ctx, db)
}

// prepare ensures the schema and journal table exist before the first write.
func (u *Upgrader) prepare(ctx context.Context, db *sql.DB) error {
	if u.cfg.VerifySchema {
		if err := u.executor.VerifySchema(ctx, db, u.cfg.Schema); err != nil {
			return err
		}
	}
	return u.journal.EnsureTableExists(ctx, db)
}

// PerformUpgrade applies every pending script. It halts at the first failure
// and returns it together with the scripts applied before it.
func (u *Upgrader) PerformUpgrade(ctx context.Context) (Result, error) {
	var result Result
	u.logger.Info("beginning database upgrade", "transaction", string(u.cfg.Transaction))

	db, err := u.conn.Connect(ctx)
	if err != nil {
		u.logger.Error("upgrade failed", "error", err)
		return result, err
	}
	pending, err := u.pending(ctx, db)
	if err != nil {
		u.logger.Error("upgrade failed", "error", err)
		return result, err
	}
	if len(pending) == 0 {
		u.logger.Info("no new scripts need to be executed")
		return result, nil
	}
	if err := u.prepare(ctx, db); err != nil {
		u.logger.Error("upgrade failed", "error", err)
		return result, err
	}

	for _, s := range pending {
		if err := u.apply(ctx, db, s); err != nil {
			result.Failed = s.Name
			u.logger.Error("upgrade failed", "script", s.Name, "applied", len(result.Applied), "error", err)
			return result, err
		}
		result.Applied = append(result.Applied, s.Name)
	}
	u.logger.Info("upgrade successful", "applied", len(result.Applied))
	return result, nil
}

func (u *Upgrader) apply(ctx context.Context, db *sql.DB, s script.Script) error {
	if u.cfg.Transaction == TransactionPerScript {
		return u.applyInTx(ctx, db, s)
	}

	// One connection for the script and its journal entry.
	conn, err := db.Conn(ctx)
	if err != nil {
		return &dberrors.ConnectionError{Driver: "database/sql", Err: err}
	}
	defer func() { _ = conn.Close() }()

	if err := u.executor.Execute(ctx, conn, s); err != nil {
		return err
	}
	return u.journal.RecordApplied(ctx, conn, s.Name, u.cfg.Clock())
}

func (u *Upgrader) applyInTx(ctx context.Context, db *sql.DB, s script.Script) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return &dberrors.ConnectionError{Driver: "database/sql", Err: fmt.Errorf("begin transaction: %w", err)}
	}
	if err := u.executor.Execute(ctx, tx, s); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := u.journal.RecordApplied(ctx, tx, s.Name, u.cfg.Clock()); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return &dberrors.JournalWriteError{ScriptName: s.Name, Err: fmt.Errorf("commit: %w", err)}
	}
	return nil
}

// MarkAsExecuted journals every pending script without running it and
// returns their names.
func (u *Upgrader) MarkAsExecuted(ctx context.Context) ([]string, error) {
	db, err := u.conn.Connect(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := u.pending(ctx, db)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, nil
	}
	if err := u.prepare(ctx, db); err != nil {
		return nil, err
	}
	marked := make([]string, 0, len(pending))
	for _, s := range pending {
		if err := u.journal.RecordApplied(ctx, db, s.Name, u.cfg.Clock()); err != nil {
			return marked, err
		}
		u.logger.Info("marked script as executed", "script", s.Name)
		marked = append(marked, s.Name)
	}
	return marked, nil
}
