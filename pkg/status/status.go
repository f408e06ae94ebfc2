// Package status reports which migration scripts are applied and pending.
package status

import (
	"context"
	"fmt"
	"strings"

	"github.com/loykin/snowup/internal/script"
)

// Status display constants
const (
	defaultAppliedLimit = 10 // Default number of applied scripts to list
	colorGreen          = "\033[32m"
	colorYellow         = "\033[33m"
	colorReset          = "\033[0m"
)

// Source is satisfied by an upgrader.
type Source interface {
	AppliedScripts(ctx context.Context) ([]string, error)
	PendingScripts(ctx context.Context) ([]script.Script, error)
}

// Info aggregates the journal view: applied names ascending and pending names
// in apply order.
type Info struct {
	Applied []string
	Pending []string
}

// FromSource collects status information without modifying the journal.
func FromSource(ctx context.Context, src Source) (Info, error) {
	applied, err := src.AppliedScripts(ctx)
	if err != nil {
		return Info{}, err
	}
	pending, err := src.PendingScripts(ctx)
	if err != nil {
		return Info{}, err
	}
	names := make([]string, 0, len(pending))
	for _, s := range pending {
		names = append(names, s.Name)
	}
	return Info{Applied: applied, Pending: names}, nil
}

// Current returns the greatest applied script name, or "" when none has run.
func (i Info) Current() string {
	if len(i.Applied) == 0 {
		return ""
	}
	return i.Applied[len(i.Applied)-1]
}

// UpToDate reports whether nothing is pending.
func (i Info) UpToDate() bool { return len(i.Pending) == 0 }

func (i Info) header() string {
	current := i.Current()
	if current == "" {
		current = "(none)"
	}
	return fmt.Sprintf("current: %s\napplied: %d\npending: %d\n", current, len(i.Applied), len(i.Pending))
}

// FormatHuman returns a multiline summary for CLI output. Pending scripts are
// always listed; applied=true also lists applied scripts in descending name
// order, up to limit (10 when limit<=0). Names, not journal timestamps,
// decide the order.
func (i Info) FormatHuman(applied bool, limit int) string {
	var b strings.Builder
	b.WriteString(i.header())
	for _, name := range i.Pending {
		fmt.Fprintf(&b, "  - %s\n", name)
	}
	if !applied || len(i.Applied) == 0 {
		return b.String()
	}
	if limit <= 0 {
		limit = defaultAppliedLimit
	}
	b.WriteString("applied (by name, descending):\n")
	for n, idx := 0, len(i.Applied)-1; idx >= 0 && n < limit; n, idx = n+1, idx-1 {
		fmt.Fprintf(&b, "  + %s\n", i.Applied[idx])
	}
	return b.String()
}

// FormatColorized is FormatHuman(false, 0) with pending scripts in yellow and
// an up-to-date message in green. color=false disables escape codes.
func (i Info) FormatColorized(color bool) string {
	paint := func(c, s string) string {
		if !color {
			return s
		}
		return c + s + colorReset
	}
	var b strings.Builder
	b.WriteString(i.header())
	if i.UpToDate() {
		b.WriteString(paint(colorGreen, "database is up to date") + "\n")
		return b.String()
	}
	for _, name := range i.Pending {
		b.WriteString("  - " + paint(colorYellow, name) + "\n")
	}
	return b.String()
}
