// Package scan walks a directory tree and returns the files found, honouring
// glob-based exclusion rules and an optional file predicate.
package scan

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

type config struct {
	excludes []string
	filter   func(path string, entry fs.DirEntry) bool
}

// Option configures a Scan call.
type Option func(*config)

// WithExclude skips any path whose directory-relative slash form matches one
// of the doublestar patterns. Matching directories are pruned entirely.
func WithExclude(patterns ...string) Option {
	return func(cfg *config) {
		for _, pattern := range patterns {
			if pattern == "" {
				continue
			}
			cfg.excludes = append(cfg.excludes, pattern)
		}
	}
}

// WithFilter keeps only the files for which fn returns true. Directories are
// recursed into regardless of the filter.
func WithFilter(fn func(path string, entry fs.DirEntry) bool) Option {
	return func(cfg *config) {
		cfg.filter = fn
	}
}

// Scan returns the flat list of file paths found by recursive descent from
// dir. Filesystem errors propagate to the caller; a cancelled context stops
// the walk with the context error.
func Scan(ctx context.Context, dir string, opts ...Option) ([]string, error) {
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	for _, pattern := range cfg.excludes {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("scan: invalid exclude pattern %q", pattern)
		}
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		for _, pattern := range cfg.excludes {
			matched, err := doublestar.Match(pattern, rel)
			if err != nil {
				return err
			}
			if !matched {
				continue
			}
			if entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if entry.IsDir() {
			return nil
		}
		if cfg.filter != nil && !cfg.filter(path, entry) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
