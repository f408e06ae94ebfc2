// Package splitter breaks migration script text into executable statements.
//
// A statement ends at a line that holds nothing but the delimiter token and
// optional surrounding whitespace. A delimiter that shares its line with other
// text (for example inside a string literal or a procedure body) is part of
// the statement.
package splitter

import (
	"regexp"
	"strings"

	"github.com/loykin/snowup/internal/constants"
)

// Splitter splits scripts on delimiter lines.
type Splitter struct {
	re *regexp.Regexp
}

// New returns a Splitter for the given delimiter token. An empty token falls
// back to ";". Matching is case-insensitive so word tokens such as GO work in
// any case.
func New(token string) *Splitter {
	token = strings.TrimSpace(token)
	if token == "" {
		token = constants.DefaultStatementToken
	}
	pattern := `(?im)^[ \t]*` + regexp.QuoteMeta(token) + `[ \t]*\r?$`
	return &Splitter{re: regexp.MustCompile(pattern)}
}

var defaultSplitter = New(constants.DefaultStatementToken)

// Split splits raw with the default ";" delimiter.
func Split(raw string) []string {
	return defaultSplitter.Split(raw)
}

// Split returns the trimmed, non-empty statements of raw in source order.
func (s *Splitter) Split(raw string) []string {
	parts := s.re.Split(raw, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
