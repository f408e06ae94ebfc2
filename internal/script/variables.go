package script

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/loykin/snowup/internal/dberrors"
	"github.com/loykin/snowup/internal/util"
)

var variableRe = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_\-]*)\$`)

// Preprocessor rewrites script contents before they are split.
type Preprocessor interface {
	Process(contents string) (string, error)
}

// PreprocessorFunc adapts a function to Preprocessor.
type PreprocessorFunc func(contents string) (string, error)

// Process implements Preprocessor.
func (f PreprocessorFunc) Process(contents string) (string, error) { return f(contents) }

// Variables substitutes $name$ references with their values. References with
// no value are an error naming each of them.
type Variables map[string]string

// Process implements Preprocessor.
func (v Variables) Process(contents string) (string, error) {
	missing := map[string]struct{}{}
	out := variableRe.ReplaceAllStringFunc(contents, func(m string) string {
		name := m[1 : len(m)-1]
		val, ok := v[name]
		if !ok {
			missing[name] = struct{}{}
			return m
		}
		return val
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", dberrors.ErrUndefinedVariable, strings.Join(util.SortedKeys(missing), ", "))
	}
	return out, nil
}
