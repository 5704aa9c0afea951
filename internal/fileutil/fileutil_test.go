package fileutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "nested", "card.png")

	if err := WriteAtomic(dst, []byte("first"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteAtomic(dst, []byte("second"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Fatalf("content mismatch: got %q", got)
	}
	entries, err := os.ReadDir(filepath.Dir(dst))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be gone, found %d entries", len(entries))
	}
}

func TestCopyTo(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	if err := os.WriteFile(src, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	n, err := CopyTo(&buf, src)
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 || buf.String() != "data" {
		t.Fatalf("unexpected copy: %d %q", n, buf.String())
	}
}

func TestCopyTo_MissingSource(t *testing.T) {
	var buf bytes.Buffer
	if _, err := CopyTo(&buf, filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestRemoveEmptyDirs(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"a/b/c", "d", ".git/objects", "keep"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "keep", "x.png"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	removed, err := RemoveEmptyDirs(root, ".git")
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 4 {
		t.Fatalf("expected a/b/c, a/b, a and d removed, got %v", removed)
	}
	for _, dir := range []string{".git/objects", "keep"} {
		if _, err := os.Stat(filepath.Join(root, dir)); err != nil {
			t.Fatalf("%s should survive: %v", dir, err)
		}
	}
	if _, err := os.Stat(filepath.Join(root, "a")); !os.IsNotExist(err) {
		t.Fatalf("expected a to be removed, got %v", err)
	}
}

func TestRemoveEmptyDirs_MissingRoot(t *testing.T) {
	removed, err := RemoveEmptyDirs(filepath.Join(t.TempDir(), "missing"))
	if err != nil || len(removed) != 0 {
		t.Fatalf("expected no-op, got %v %v", removed, err)
	}
}
