// Package script holds migration scripts and the sources that discover them.
package script

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/loykin/snowup/internal/constants"
	"github.com/loykin/snowup/internal/dberrors"
)

// Script is one migration unit. Name is its identity in the journal.
type Script struct {
	Name     string
	Contents string
	checksum string
}

// New returns a Script with its checksum computed from contents.
func New(name, contents string) Script {
	return Script{Name: name, Contents: contents, checksum: Checksum(contents)}
}

// Checksum returns the hex SHA-256 of the loaded contents.
func (s Script) Checksum() string {
	if s.checksum == "" {
		return Checksum(s.Contents)
	}
	return s.checksum
}

// Checksum computes the hex-encoded SHA-256 of contents.
func Checksum(contents string) string {
	sum := sha256.Sum256([]byte(contents))
	return hex.EncodeToString(sum[:])
}

// Source discovers scripts. Implementations return scripts sorted by name.
type Source interface {
	Scripts() ([]Script, error)
}

// DirSource reads scripts from Dir inside FS whose base name matches Pattern.
type DirSource struct {
	FS      fs.FS
	Dir     string
	Pattern string
}

// Scripts implements Source. Subdirectories are not walked.
func (d DirSource) Scripts() ([]Script, error) {
	dir := d.Dir
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	pattern := d.Pattern
	if strings.TrimSpace(pattern) == "" {
		pattern = constants.DefaultScriptPattern
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid script pattern %q: %w", pattern, err)
	}
	entries, err := fs.ReadDir(d.FS, dir)
	if err != nil {
		return nil, fmt.Errorf("read scripts dir %s: %w", dir, err)
	}
	var out []Script
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ok, _ := path.Match(pattern, e.Name()); !ok {
			continue
		}
		b, err := fs.ReadFile(d.FS, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read script %s: %w", e.Name(), err)
		}
		out = append(out, New(e.Name(), string(b)))
	}
	return Sorted(out)
}

// Static is a fixed list of scripts.
type Static []Script

// Scripts implements Source.
func (s Static) Scripts() ([]Script, error) {
	return Sorted(append([]Script(nil), s...))
}

// Sorted sorts scripts by name ascending. It rejects duplicate names and
// names longer than the journal column holds, so neither can reach execution.
func Sorted(scripts []Script) ([]Script, error) {
	for _, s := range scripts {
		if err := ValidateName(s.Name); err != nil {
			return nil, err
		}
	}
	sort.SliceStable(scripts, func(i, j int) bool { return scripts[i].Name < scripts[j].Name })
	for i := 1; i < len(scripts); i++ {
		if scripts[i].Name == scripts[i-1].Name {
			return nil, fmt.Errorf("%w: %s", dberrors.ErrDuplicateScript, scripts[i].Name)
		}
	}
	return scripts, nil
}

// ValidateName checks that name fits the journal's ScriptName column, which
// is sized in characters.
func ValidateName(name string) error {
	if n := utf8.RuneCountInString(name); n > constants.ScriptNameMaxLength {
		return fmt.Errorf("%w: %d characters exceeds %d: %s",
			dberrors.ErrScriptNameTooLong, n, constants.ScriptNameMaxLength, name)
	}
	return nil
}

// Pending returns the scripts whose names are not in applied, keeping the
// order of all.
func Pending(all []Script, applied []string) []Script {
	done := make(map[string]struct{}, len(applied))
	for _, name := range applied {
		done[name] = struct{}{}
	}
	out := make([]Script, 0, len(all))
	for _, s := range all {
		if _, ok := done[s.Name]; !ok {
			out = append(out, s)
		}
	}
	return out
}
