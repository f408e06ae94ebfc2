package connection

import (
	"context"
	"fmt"
	"time"

	"github.com/loykin/snowup/internal/common"
	"github.com/loykin/snowup/internal/dberrors"
	"github.com/loykin/snowup/internal/retry"
	"github.com/loykin/snowup/internal/store"
)

// EnsureDatabase creates the database named by dsn if it does not exist. The
// dialect must implement store.DatabaseCreator; otherwise ErrNotSupported is
// returned. A positive timeout bounds the create statement.
func EnsureDatabase(ctx context.Context, d store.Dialect, dsn string, timeout time.Duration) error {
	creator, ok := d.(store.DatabaseCreator)
	if !ok {
		return fmt.Errorf("ensure database on %s: %w", d.Name(), dberrors.ErrNotSupported)
	}
	logger := common.GetLogger().WithComponent("connection")

	name, serverDSN, err := creator.SplitDatabase(dsn)
	if err != nil {
		return &dberrors.ConnectionError{Driver: d.Name(), Err: err}
	}
	db, err := open(ctx, d, serverDSN, retry.DefaultPolicy(), logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	execCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if _, err := db.ExecContext(execCtx, creator.CreateDatabaseSQL(name)); err != nil {
		logger.Error("failed to create database", "database", name, "error", err)
		return &dberrors.SchemaCreationError{Object: "database " + d.Quoter().Quote(name), Err: err}
	}
	logger.Info("created database", "database", name)
	return nil
}

// DropDatabase is not implemented for any dialect.
func DropDatabase(_ context.Context, d store.Dialect, _ string) error {
	return fmt.Errorf("drop database on %s: %w", d.Name(), dberrors.ErrDropDatabaseNotSupported)
}
