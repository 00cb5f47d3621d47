// Package discover locates single artifacts by file-name suffix.
package discover

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// NotFoundError reports that no artifact with the expected suffix exists
// below Dir.
type NotFoundError struct {
	Kind   string
	Suffix string
	Dir    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no %s found: expected one *%s file in %s", e.Kind, e.Suffix, e.Dir)
}

// AmbiguousError reports that more than one artifact matched.
type AmbiguousError struct {
	Kind    string
	Suffix  string
	Dir     string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("multiple %s files found in %s (%s); keep exactly one *%s file",
		e.Kind, e.Dir, strings.Join(e.Matches, ", "), e.Suffix)
}

// Finder searches a directory tree for exactly one file with Suffix.
type Finder struct {
	Kind   string // human-readable artifact name for diagnostics
	Suffix string
}

// Find walks dir recursively and returns the path of the single match.
func (f Finder) Find(dir string) (string, error) {
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &NotFoundError{Kind: f.Kind, Suffix: f.Suffix, Dir: dir}
		}
		return "", fmt.Errorf("searching %s: %w", dir, err)
	}

	rel, err := f.FindFS(os.DirFS(dir), ".", dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filepath.FromSlash(rel)), nil
}

// FindFS walks root inside fsys. label names the location in diagnostics.
func (f Finder) FindFS(fsys fs.FS, root, label string) (string, error) {
	var matches []string
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), f.Suffix) {
			matches = append(matches, p)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("searching %s: %w", label, err)
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{Kind: f.Kind, Suffix: f.Suffix, Dir: label}
	case 1:
		return matches[0], nil
	}

	sort.Strings(matches)
	for i, m := range matches {
		matches[i] = path.Clean(m)
	}
	return "", &AmbiguousError{Kind: f.Kind, Suffix: f.Suffix, Dir: label, Matches: matches}
}
