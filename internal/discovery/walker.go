// Package discovery enumerates the Python source files under a directory
// tree, honoring .gitignore the same way the teacher's original walker
// did, so that a directory-to-directory comparison never diffs generated
// or vendored Python.
package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// skipDirs lists directory names that are never descended into, regardless
// of .gitignore contents.
var skipDirs = map[string]bool{
	".git":               true,
	"__pycache__":        true,
	".venv":              true,
	"venv":               true,
	"env":                true,
	".mypy_cache":        true,
	".pytest_cache":      true,
	"build":              true,
	"dist":               true,
	"*.egg-info":         true, // matched by suffix below, kept here for documentation
	".tox":               true,
	"node_modules":       true,
}

// File is one discovered Python source file.
type File struct {
	Path    string // absolute (or caller-relative) filesystem path
	RelPath string // path relative to the walked root, slash-separated
}

// Walker enumerates *.py files under a root directory.
type Walker struct{}

// NewWalker creates a Walker.
func NewWalker() *Walker { return &Walker{} }

// Discover walks root and returns every *.py file found. When recursive is
// false, only files directly inside root are returned (matching the CLI's
// -r/--recursive flag semantics from spec §6 and
// original_source/pyff/entrypoints.py, which otherwise only compares files
// literally named on the command line).
func (w *Walker) Discover(root string, recursive bool) ([]File, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	var gitIgnore *ignore.GitIgnore
	gitignorePath := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(gitignorePath); err == nil {
		gitIgnore, err = ignore.CompileIgnoreFile(gitignorePath)
		if err != nil {
			return nil, fmt.Errorf("parse .gitignore: %w", err)
		}
	}

	var files []File
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			fmt.Fprintf(os.Stderr, "pydiff: skipping %s: %v\n", path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			fmt.Fprintf(os.Stderr, "pydiff: skipping symlink %s\n", path)
			return nil
		}

		name := d.Name()

		if d.IsDir() {
			if path != root {
				if strings.HasPrefix(name, ".") {
					return fs.SkipDir
				}
				if skipDirs[name] || strings.HasSuffix(name, ".egg-info") {
					return fs.SkipDir
				}
				if !recursive {
					return fs.SkipDir
				}
			}
			return nil
		}

		if filepath.Ext(name) != ".py" {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "pydiff: skipping %s: %v\n", path, err)
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if gitIgnore != nil && gitIgnore.MatchesPath(relPath) {
			return nil
		}

		files = append(files, File{Path: path, RelPath: relPath})
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk %s: %w", root, walkErr)
	}

	return files, nil
}

// IsTestFile reports whether a Python filename follows a common test
// naming convention (pytest's test_*.py / *_test.py, or conftest.py).
// Exposed for renderers/CLI that want to label files, not consulted by the
// comparison engine itself — the engine diffs whatever it is given.
func IsTestFile(name string) bool {
	base := strings.TrimSuffix(name, ".py")
	return strings.HasPrefix(base, "test_") || strings.HasSuffix(base, "_test") || base == "conftest"
}
