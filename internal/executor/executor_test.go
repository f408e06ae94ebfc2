package executor

import (
	"bytes"
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/loykin/snowup/internal/common"
	"github.com/loykin/snowup/internal/dberrors"
	"github.com/loykin/snowup/internal/script"
	"github.com/loykin/snowup/internal/store/snowflake"
	"github.com/loykin/snowup/internal/store/sqlite"
)

// recordingDB captures executed statements and fails those listed in fail.
type recordingDB struct {
	executed []string
	fail     map[string]error
}

func (r *recordingDB) ExecContext(_ context.Context, query string, _ ...any) (sql.Result, error) {
	r.executed = append(r.executed, query)
	if err, ok := r.fail[query]; ok {
		return nil, err
	}
	return driver.RowsAffected(0), nil
}

func (r *recordingDB) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, errors.New("not implemented")
}

func (r *recordingDB) QueryRowContext(context.Context, string, ...any) *sql.Row {
	return nil
}

func quietLogger() *common.Logger {
	return common.NewLoggerTo(io.Discard, common.LogLevelError)
}

func TestExecute_RunsStatementsInOrder(t *testing.T) {
	db := &recordingDB{}
	e := New(snowflake.NewDialect(), Options{Logger: quietLogger()})

	s := script.New("001_init.sql", "create table a (x int)\n;\ncreate table b (x int)\n;\n")
	if err := e.Execute(context.Background(), db, s); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := []string{"create table a (x int)", "create table b (x int)"}
	if diff := cmp.Diff(want, db.executed); diff != "" {
		t.Fatalf("executed mismatch (-want +got):\n%s", diff)
	}
}

func TestExecute_HaltsAtFirstFailure(t *testing.T) {
	var buf bytes.Buffer
	cause := errors.New("relation does not exist")
	db := &recordingDB{fail: map[string]error{"S2": cause}}
	e := New(snowflake.NewDialect(), Options{Logger: common.NewLoggerTo(&buf, common.LogLevelInfo)})

	err := e.Execute(context.Background(), db, script.New("002_x.sql", "S1\n;\nS2\n;\nS3\n"))
	var execErr *dberrors.DatabaseExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected DatabaseExecutionError, got %v", err)
	}
	if execErr.Index != 1 || execErr.ScriptName != "002_x.sql" {
		t.Fatalf("unexpected error fields: %+v", execErr)
	}
	if execErr.Code != "" || execErr.Message != cause.Error() {
		t.Fatalf("unclassified error should carry raw message, got %+v", execErr)
	}
	if !errors.Is(err, cause) || !errors.Is(err, dberrors.ErrDatabaseExecution) {
		t.Fatalf("error chain broken: %v", err)
	}
	if diff := cmp.Diff([]string{"S1", "S2"}, db.executed); diff != "" {
		t.Fatalf("S3 must not run (-want +got):\n%s", diff)
	}

	out := buf.String()
	for _, want := range []string{
		"database error occurred in script",
		"statement_index=1",
		"script=002_x.sql",
		"relation does not exist",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestExecute_ClassifiesVendorError(t *testing.T) {
	d := sqlite.NewDialect()
	cfg := sqlite.Config{Path: filepath.Join(t.TempDir(), "exec.db")}
	dsn, _ := cfg.ConnectionString()
	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = db.Close() }()
	d.Configure(db)

	e := New(d, Options{Logger: quietLogger()})
	s := script.New("003.sql", "CREATE TABLE t (x INTEGER)\n;\nINSERT INTO missing VALUES (1)\n;\nCREATE TABLE u (x INTEGER)\n")
	err = e.Execute(context.Background(), db, s)
	var execErr *dberrors.DatabaseExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("expected DatabaseExecutionError, got %v", err)
	}
	if execErr.Index != 1 || execErr.Code == "" {
		t.Fatalf("expected classified failure at index 1, got %+v", execErr)
	}

	var n int
	if err := db.QueryRow(`SELECT count(*) FROM sqlite_master WHERE name = 'u'`).Scan(&n); err != nil {
		t.Fatalf("query: %v", err)
	}
	if n != 0 {
		t.Fatalf("statement after the failure was executed")
	}
}

func TestExecute_Variables(t *testing.T) {
	db := &recordingDB{}
	e := New(snowflake.NewDialect(), Options{
		Logger:       quietLogger(),
		Preprocessor: script.Variables{"schema": "ANALYTICS"},
	})
	if err := e.Execute(context.Background(), db, script.New("v.sql", "create table $schema$.t (x int)")); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if diff := cmp.Diff([]string{"create table ANALYTICS.t (x int)"}, db.executed); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}

	err := e.Execute(context.Background(), db, script.New("w.sql", "select $missing$"))
	if !errors.Is(err, dberrors.ErrUndefinedVariable) {
		t.Fatalf("expected undefined variable error, got %v", err)
	}
}

// deadlineDB reports whether each statement ran with a deadline.
type deadlineDB struct {
	recordingDB
	deadlines []bool
}

func (d *deadlineDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	_, ok := ctx.Deadline()
	d.deadlines = append(d.deadlines, ok)
	return d.recordingDB.ExecContext(ctx, query, args...)
}

func TestExecute_StatementTimeout(t *testing.T) {
	db := &deadlineDB{}
	e := New(snowflake.NewDialect(), Options{Logger: quietLogger(), StatementTimeout: time.Minute})
	if err := e.Execute(context.Background(), db, script.New("t.sql", "S1\n;\nS2")); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if diff := cmp.Diff([]bool{true, true}, db.deadlines); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestVerifySchema(t *testing.T) {
	t.Run("creates schema", func(t *testing.T) {
		db := &recordingDB{}
		e := New(snowflake.NewDialect(), Options{Logger: quietLogger()})
		if err := e.VerifySchema(context.Background(), db, "ANALYTICS"); err != nil {
			t.Fatalf("VerifySchema: %v", err)
		}
		if diff := cmp.Diff([]string{`CREATE SCHEMA IF NOT EXISTS "ANALYTICS"`}, db.executed); diff != "" {
			t.Fatalf("(-want +got):\n%s", diff)
		}
	})
	t.Run("empty schema is a no-op", func(t *testing.T) {
		db := &recordingDB{}
		e := New(snowflake.NewDialect(), Options{Logger: quietLogger()})
		if err := e.VerifySchema(context.Background(), db, ""); err != nil || len(db.executed) != 0 {
			t.Fatalf("VerifySchema() err=%v executed=%v", err, db.executed)
		}
	})
	t.Run("dialect without schemas", func(t *testing.T) {
		db := &recordingDB{}
		e := New(sqlite.NewDialect(), Options{Logger: quietLogger()})
		if err := e.VerifySchema(context.Background(), db, "main"); err != nil || len(db.executed) != 0 {
			t.Fatalf("VerifySchema() err=%v executed=%v", err, db.executed)
		}
	})
	t.Run("failure is schema creation error", func(t *testing.T) {
		db := &recordingDB{fail: map[string]error{`CREATE SCHEMA IF NOT EXISTS "X"`: errors.New("denied")}}
		e := New(snowflake.NewDialect(), Options{Logger: quietLogger()})
		err := e.VerifySchema(context.Background(), db, "X")
		if !errors.Is(err, dberrors.ErrSchemaCreation) {
			t.Fatalf("expected schema creation error, got %v", err)
		}
	})
}
