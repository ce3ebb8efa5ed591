package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-project/layering"
	"github.com/goliatone/go-project/pkg/bus"
)

// DefaultConfigNames returns the configuration file names probed at the
// project root, in order of preference.
func DefaultConfigNames() []string {
	return []string{"project.config.yml", "project.config.yaml", "project.config.json"}
}

// DefaultMetadataName is the project metadata file probed by Metadata.
const DefaultMetadataName = "package.json"

// ConfigNotFoundError reports that the configuration document could not be
// located: either no project root exists, or the root holds none of the
// expected configuration files.
type ConfigNotFoundError struct {
	Root       string
	Candidates []string
}

// Error implements the error interface.
func (e *ConfigNotFoundError) Error() string {
	if e.Root == "" {
		return "project: configuration not found: no project root located"
	}
	paths := make([]string, len(e.Candidates))
	for i, name := range e.Candidates {
		paths[i] = filepath.Join(e.Root, name)
	}
	return fmt.Sprintf("project: configuration not found: expected one of %s", strings.Join(paths, ", "))
}

// ConfigLoadError reports that a configuration or metadata file exists but
// could not be parsed as a structured document.
type ConfigLoadError struct {
	Path  string
	cause error
}

// Error implements the error interface.
func (e *ConfigLoadError) Error() string {
	return fmt.Sprintf("project: load %s: %v", e.Path, e.cause)
}

// Unwrap implements the implicit interface used by errors.Is and errors.As.
func (e *ConfigLoadError) Unwrap() error {
	return e.cause
}

// Source loads the project configuration document, caching parsed results by
// absolute file path until a forced reload discards them.
type Source struct {
	locator      *Locator
	configNames  []string
	metadataName string
	bus          *bus.Bus

	mu    sync.RWMutex
	cache map[string]map[string]any
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithLocator replaces the root locator used to resolve file paths.
func WithLocator(locator *Locator) SourceOption {
	return func(s *Source) {
		if locator != nil {
			s.locator = locator
		}
	}
}

// WithConfigNames replaces the configuration file candidates probed at the
// project root.
func WithConfigNames(names ...string) SourceOption {
	return func(s *Source) {
		candidates := make([]string, 0, len(names))
		for _, name := range names {
			if name == "" {
				continue
			}
			candidates = append(candidates, name)
		}
		if len(candidates) > 0 {
			s.configNames = candidates
		}
	}
}

// WithSourceBus emits config.loaded and config.reloaded events on b whenever
// the source reads the configuration file from disk.
func WithSourceBus(b *bus.Bus) SourceOption {
	return func(s *Source) {
		s.bus = b
	}
}

// WithMetadataName replaces the project metadata file name.
func WithMetadataName(name string) SourceOption {
	return func(s *Source) {
		if name != "" {
			s.metadataName = name
		}
	}
}

// NewSource constructs a Source with the supplied options.
func NewSource(opts ...SourceOption) *Source {
	s := &Source{
		locator:      NewLocator(),
		configNames:  DefaultConfigNames(),
		metadataName: DefaultMetadataName,
		cache:        map[string]map[string]any{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

var (
	defaultSourceOnce sync.Once
	defaultSource     *Source
)

// Default returns the process-wide Source, constructed lazily exactly once.
func Default() *Source {
	defaultSourceOnce.Do(func() {
		defaultSource = NewSource()
	})
	return defaultSource
}

// ConfigPath resolves the absolute path of the configuration document,
// returning a ConfigNotFoundError when the root or the file is missing.
func (s *Source) ConfigPath() (string, error) {
	root, ok := s.locator.Root()
	if !ok {
		return "", &ConfigNotFoundError{Candidates: s.configNames}
	}
	for _, name := range s.configNames {
		path := filepath.Join(root, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", &ConfigNotFoundError{Root: root, Candidates: s.configNames}
}

// Load returns the configuration document. With force false a previously
// parsed document is served from the cache without touching the filesystem;
// with force true the cache entry is discarded first, guaranteeing a fresh
// read of the current on-disk content. Returned documents are deep clones, so
// callers can mutate them freely without affecting later loads.
func (s *Source) Load(force bool) (map[string]any, error) {
	path, err := s.ConfigPath()
	if err != nil {
		return nil, err
	}

	if force {
		// The entry is discarded before the re-read, so a reload that fails
		// to parse can never leave a pre-failure document behind.
		s.mu.Lock()
		delete(s.cache, path)
		s.mu.Unlock()
	} else {
		s.mu.RLock()
		doc, ok := s.cache[path]
		s.mu.RUnlock()
		if ok {
			return layering.Clone(doc), nil
		}
	}

	doc, err := parseConfigFile(path)
	if err != nil {
		return nil, err
	}

	// Publishing the freshly parsed document under the write lock replaces
	// the entry atomically: concurrent readers observe either the previous
	// document or this one, never a torn entry.
	s.mu.Lock()
	s.cache[path] = doc
	s.mu.Unlock()

	if s.bus != nil {
		event := bus.BuildConfigLoadedEvent(path)
		if force {
			event = bus.BuildConfigReloadedEvent(path)
		}
		_ = s.bus.Emit(context.Background(), event)
	}

	return layering.Clone(doc), nil
}

// Metadata loads the project metadata document (name, version and friends).
// Metadata is advisory: a missing file yields an empty map, not an error.
func (s *Source) Metadata() (map[string]any, error) {
	path, ok := s.locator.ResolvePath(s.metadataName)
	if !ok {
		return map[string]any{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]any{}, nil
		}
		return nil, &ConfigLoadError{Path: path, cause: err}
	}
	meta := map[string]any{}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, &ConfigLoadError{Path: path, cause: err}
	}
	return meta, nil
}

func parseConfigFile(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigLoadError{Path: path, cause: err}
	}

	doc := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, &ConfigLoadError{Path: path, cause: err}
		}
	default:
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, &ConfigLoadError{Path: path, cause: err}
		}
	}
	return doc, nil
}
