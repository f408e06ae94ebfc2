// Package quote produces dialect-correct quoted identifiers for schema
// qualified objects.
package quote

import "strings"

// Quoter wraps identifiers in a prefix/suffix pair. Embedded suffix characters
// are doubled so the quote characters stay structural.
type Quoter struct {
	Prefix string
	Suffix string
}

// DoubleQuote is the ANSI quoter used by Snowflake and PostgreSQL.
var DoubleQuote = Quoter{Prefix: `"`, Suffix: `"`}

// Quote returns identifier wrapped exactly once. Callers must not re-quote
// an already quoted value.
func (q Quoter) Quote(identifier string) string {
	escaped := identifier
	if q.Suffix != "" {
		escaped = strings.ReplaceAll(identifier, q.Suffix, q.Suffix+q.Suffix)
	}
	return q.Prefix + escaped + q.Suffix
}

// Unquote reverses Quote. Values that are not wrapped in the quote pair are
// returned unchanged.
func (q Quoter) Unquote(quoted string) string {
	if len(quoted) < len(q.Prefix)+len(q.Suffix) ||
		!strings.HasPrefix(quoted, q.Prefix) || !strings.HasSuffix(quoted, q.Suffix) {
		return quoted
	}
	inner := quoted[len(q.Prefix) : len(quoted)-len(q.Suffix)]
	if q.Suffix == "" {
		return inner
	}
	return strings.ReplaceAll(inner, q.Suffix+q.Suffix, q.Suffix)
}

// Qualified quotes each non-empty part and joins them with a dot, so an empty
// schema yields a bare quoted table name.
func (q Quoter) Qualified(parts ...string) string {
	quoted := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		quoted = append(quoted, q.Quote(p))
	}
	return strings.Join(quoted, ".")
}
