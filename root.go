package project

import (
	"os"
	"path/filepath"
)

// DefaultRootEnvVar names the environment variable that, when set, supplies
// the project root directly and skips the filesystem ascent.
const DefaultRootEnvVar = "PROJECT_ROOT"

// DefaultMarkers returns the marker file names recognised when walking
// ancestor directories for a project root.
func DefaultMarkers() []string {
	return []string{"package.json", "go.mod"}
}

// Locator finds the project root by walking ancestor directories until one of
// its marker files shows up, or by honouring an environment override.
type Locator struct {
	startDir string
	markers  []string
	envVar   string
}

// LocatorOption configures a Locator.
type LocatorOption func(*Locator)

// WithStartDir sets the directory the ascent starts from. Defaults to the
// current working directory.
func WithStartDir(dir string) LocatorOption {
	return func(l *Locator) {
		l.startDir = dir
	}
}

// WithMarkers replaces the marker file names checked in each candidate
// directory. Empty names are dropped.
func WithMarkers(names ...string) LocatorOption {
	return func(l *Locator) {
		markers := make([]string, 0, len(names))
		for _, name := range names {
			if name == "" {
				continue
			}
			markers = append(markers, name)
		}
		if len(markers) > 0 {
			l.markers = markers
		}
	}
}

// WithRootEnvVar replaces the environment variable consulted for an explicit
// root override. An empty name disables the override entirely.
func WithRootEnvVar(name string) LocatorOption {
	return func(l *Locator) {
		l.envVar = name
	}
}

// NewLocator constructs a Locator with the supplied options.
func NewLocator(opts ...LocatorOption) *Locator {
	l := &Locator{
		markers: DefaultMarkers(),
		envVar:  DefaultRootEnvVar,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Root resolves the project root. An environment override is returned
// verbatim without marker verification. Otherwise the ascent starts at the
// configured start directory and stops cleanly, reporting false, once the
// filesystem root is reached without a match. Root performs existence checks
// only; it never creates or modifies anything.
//
// Recomputation may yield a different value if the working directory or the
// environment changes between calls.
func (l *Locator) Root() (string, bool) {
	if l.envVar != "" {
		if root := os.Getenv(l.envVar); root != "" {
			return root, true
		}
	}

	dir := l.startDir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", false
		}
		dir = cwd
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}

	for {
		for _, marker := range l.markers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// ResolvePath joins the resolved root with the given segments. It reports
// false when no root can be located.
func (l *Locator) ResolvePath(segments ...string) (string, bool) {
	root, ok := l.Root()
	if !ok {
		return "", false
	}
	return filepath.Join(append([]string{root}, segments...)...), true
}
