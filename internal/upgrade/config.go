package upgrade

import (
	"fmt"
	"time"

	"github.com/loykin/snowup/internal/common"
	"github.com/loykin/snowup/internal/constants"
)

// TransactionMode selects how a script and its journal entry are grouped.
type TransactionMode string

const (
	// TransactionNone runs each script on one dedicated connection without a
	// transaction. A failure leaves earlier statements of the script applied.
	TransactionNone TransactionMode = "none"
	// TransactionPerScript wraps each script and its journal insert in one
	// transaction.
	TransactionPerScript TransactionMode = "per-script"
)

// ParseTransactionMode accepts "", "none" and "per-script".
func ParseTransactionMode(s string) (TransactionMode, error) {
	switch TransactionMode(s) {
	case "", TransactionNone:
		return TransactionNone, nil
	case TransactionPerScript:
		return TransactionPerScript, nil
	default:
		return "", fmt.Errorf("unknown transaction mode %q (want none or per-script)", s)
	}
}

// Config is assembled once before a run and copied into the Upgrader.
type Config struct {
	// Schema qualifies the journal table and is created when VerifySchema is
	// set. Empty means the connection default.
	Schema string
	// Table is the journal table name; SchemaVersions when empty.
	Table        string
	VerifySchema bool
	Transaction  TransactionMode

	// StatementTimeout bounds each statement when positive.
	StatementTimeout time.Duration
	// StatementToken is the line delimiter between statements; ";" when empty.
	StatementToken string

	// Variables are substituted for $name$ references unless
	// DisableVariables is set.
	Variables        map[string]string
	DisableVariables bool

	Logger *common.Logger
	// Clock stamps journal entries; time.Now when nil.
	Clock func() time.Time
}

func (c Config) withDefaults() Config {
	if c.Table == "" {
		c.Table = constants.DefaultJournalTable
	}
	if c.Transaction == "" {
		c.Transaction = TransactionNone
	}
	if c.StatementToken == "" {
		c.StatementToken = constants.DefaultStatementToken
	}
	if c.Logger == nil {
		c.Logger = common.GetLogger()
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	vars := make(map[string]string, len(c.Variables))
	for k, v := range c.Variables {
		vars[k] = v
	}
	c.Variables = vars
	return c
}
