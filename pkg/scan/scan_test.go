package scan

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"
)

func buildTree(t *testing.T, files ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create directories for %q: %v", name, err)
		}
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("failed to write %q: %v", name, err)
		}
	}
	return dir
}

func relative(t *testing.T, dir string, paths []string) []string {
	t.Helper()
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			t.Fatalf("failed to relativize %q: %v", path, err)
		}
		out = append(out, filepath.ToSlash(rel))
	}
	sort.Strings(out)
	return out
}

func TestScanListsAllFiles(t *testing.T) {
	dir := buildTree(t,
		"main.go",
		"internal/app/app.go",
		"docs/readme.md",
	)

	files, err := Scan(context.Background(), dir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	want := []string{"docs/readme.md", "internal/app/app.go", "main.go"}
	if got := relative(t, dir, files); !reflect.DeepEqual(want, got) {
		t.Fatalf("Scan() = %#v, want %#v", got, want)
	}
}

func TestScanExcludePrunesDirectories(t *testing.T) {
	dir := buildTree(t,
		"main.go",
		"node_modules/pkg/index.js",
		"vendor/lib/lib.go",
		"internal/app/app.go",
	)

	files, err := Scan(context.Background(), dir, WithExclude("node_modules/**", "vendor"))
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	got := relative(t, dir, files)
	for _, path := range got {
		if strings.HasPrefix(path, "node_modules/") || strings.HasPrefix(path, "vendor/") {
			t.Fatalf("excluded path leaked: %q", path)
		}
	}
	want := []string{"internal/app/app.go", "main.go"}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("Scan() = %#v, want %#v", got, want)
	}
}

func TestScanExcludeMatchesFiles(t *testing.T) {
	dir := buildTree(t,
		"app.go",
		"app_test.go",
		"internal/util_test.go",
	)

	files, err := Scan(context.Background(), dir, WithExclude("**/*_test.go", "*_test.go"))
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	want := []string{"app.go"}
	if got := relative(t, dir, files); !reflect.DeepEqual(want, got) {
		t.Fatalf("Scan() = %#v, want %#v", got, want)
	}
}

func TestScanFilterAppliesToFilesOnly(t *testing.T) {
	dir := buildTree(t,
		"a.go",
		"b.txt",
		"nested/c.go",
	)

	files, err := Scan(context.Background(), dir, WithFilter(func(path string, entry fs.DirEntry) bool {
		return filepath.Ext(entry.Name()) == ".go"
	}))
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	want := []string{"a.go", "nested/c.go"}
	if got := relative(t, dir, files); !reflect.DeepEqual(want, got) {
		t.Fatalf("Scan() = %#v, want %#v", got, want)
	}
}

func TestScanInvalidPattern(t *testing.T) {
	if _, err := Scan(context.Background(), t.TempDir(), WithExclude("[")); err == nil {
		t.Fatal("expected an invalid pattern to fail")
	}
}

func TestScanCancelledContext(t *testing.T) {
	dir := buildTree(t, "a.go")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Scan(ctx, dir); err == nil {
		t.Fatal("expected a cancelled context to stop the walk")
	}
}

func TestScanMissingDirectory(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent")
	if _, err := Scan(context.Background(), missing); err == nil {
		t.Fatal("expected a missing directory to fail")
	}
}
