package layering

import "strings"

// SplitPath breaks a dot-addressed path into its segments, dropping empty
// segments so "a..b" and ".a.b" behave like "a.b".
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, ".")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		segments = append(segments, part)
	}
	return segments
}

// Lookup walks doc following the dot-addressed path and reports the value
// found there. An empty path addresses the whole document.
func Lookup(doc map[string]any, path string) (any, bool) {
	segments := SplitPath(path)
	if len(segments) == 0 {
		return doc, doc != nil
	}

	var current any = doc
	for _, segment := range segments {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// LookupMap is Lookup restricted to map-valued results. Missing paths and
// non-map values both report false.
func LookupMap(doc map[string]any, path string) (map[string]any, bool) {
	value, ok := Lookup(doc, path)
	if !ok {
		return nil, false
	}
	m, ok := value.(map[string]any)
	return m, ok
}
