// Package connection opens database handles for a dialect and creates the
// target database where the dialect allows it.
package connection

import (
	"context"
	"database/sql"
	"sync"

	"github.com/loykin/snowup/internal/common"
	"github.com/loykin/snowup/internal/dberrors"
	"github.com/loykin/snowup/internal/retry"
	"github.com/loykin/snowup/internal/store"
)

// Manager opens and owns one *sql.DB for a dialect and DSN. Connect is safe to
// call repeatedly; the first successful handle is reused until Close.
type Manager struct {
	Dialect store.Dialect
	DSN     string
	Retry   retry.Policy
	Logger  *common.Logger

	mu    sync.Mutex
	db    *sql.DB
	owned bool
}

// NewManager returns a Manager that opens dsn with the dialect's driver.
func NewManager(d store.Dialect, dsn string, policy retry.Policy) *Manager {
	return &Manager{Dialect: d, DSN: dsn, Retry: policy}
}

// FromDB wraps an existing handle. Close leaves db open; the caller owns it.
func FromDB(d store.Dialect, db *sql.DB) *Manager {
	return &Manager{Dialect: d, db: db}
}

func (m *Manager) logger() *common.Logger {
	l := m.Logger
	if l == nil {
		l = common.GetLogger()
	}
	return l.WithComponent("connection")
}

// Connect returns the open handle, opening and pinging it on first use.
// Failures are *dberrors.ConnectionError.
func (m *Manager) Connect(ctx context.Context) (*sql.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db != nil {
		return m.db, nil
	}
	db, err := open(ctx, m.Dialect, m.DSN, m.Retry, m.logger())
	if err != nil {
		return nil, err
	}
	m.db, m.owned = db, true
	return db, nil
}

// Close closes a handle opened by Connect.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil || !m.owned {
		return nil
	}
	err := m.db.Close()
	m.db, m.owned = nil, false
	return err
}

func open(ctx context.Context, d store.Dialect, dsn string, policy retry.Policy, logger *common.Logger) (*sql.DB, error) {
	logger.Info("connecting to database", "driver", d.Name(), "dsn", common.MaskDSN(dsn))
	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		logger.Error("failed to open database", "driver", d.Name(), "error", err)
		return nil, &dberrors.ConnectionError{Driver: d.Name(), Err: err}
	}
	d.Configure(db)

	if err := retry.Do(ctx, policy, db.PingContext); err != nil {
		_ = db.Close()
		logger.Error("failed to connect to database", "driver", d.Name(), "error", err)
		return nil, &dberrors.ConnectionError{Driver: d.Name(), Err: err}
	}
	return db, nil
}
