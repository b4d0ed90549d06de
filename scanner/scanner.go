// Package scanner finds the source files below a directory.
package scanner

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// Scanner walks a directory tree the way the go tool does: testdata and
// vendor directories are skipped, and so is every directory whose name
// starts with "." or "_".
type Scanner struct {
	rootDir    string
	extensions []string
}

// New returns a Scanner of the files under rootDir with one of extensions,
// or of every file when none are given.
func New(rootDir string, extensions ...string) *Scanner {
	return &Scanner{
		rootDir:    rootDir,
		extensions: extensions,
	}
}

// Files returns the target files in lexical order.
func (s *Scanner) Files() ([]string, error) {
	var files []string
	err := s.walk(func(path string, d fs.DirEntry) {
		if !d.IsDir() && s.IsTarget(path) {
			files = append(files, path)
		}
	})
	return files, err
}

// Dirs returns the root and every directory Files descends into.
func (s *Scanner) Dirs() ([]string, error) {
	var dirs []string
	err := s.walk(func(path string, d fs.DirEntry) {
		if d.IsDir() {
			dirs = append(dirs, path)
		}
	})
	return dirs, err
}

func (s *Scanner) walk(visit func(path string, d fs.DirEntry)) error {
	err := filepath.WalkDir(s.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != s.rootDir && Skipped(d.Name()) {
			return filepath.SkipDir
		}
		visit(path, d)
		return nil
	})
	if err != nil {
		return fmt.Errorf("error walking %s: %w", s.rootDir, err)
	}
	return nil
}

// Skipped reports whether a directory named name is left out of a scan.
func Skipped(name string) bool {
	return name == "testdata" || name == "vendor" ||
		strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

// IsTarget reports whether path has one of the scanned extensions.
func (s *Scanner) IsTarget(path string) bool {
	if len(s.extensions) == 0 {
		return true
	}

	ext := filepath.Ext(path)
	for _, targetExt := range s.extensions {
		if ext == targetExt {
			return true
		}
	}
	return false
}
