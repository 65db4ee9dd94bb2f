package fsstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewDirLockPath(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	lock, err := NewDirLock(root, "triggers.tables")
	if err != nil {
		t.Fatalf("NewDirLock() error = %v", err)
	}
	want := filepath.Join(root, ".fslocks", "triggers.tables.lck")
	if lock.Path() != want {
		t.Fatalf("Path() = %q, want %q", lock.Path(), want)
	}
}

func TestNewDirLockInvalidName(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	invalid := []string{
		"",
		"Triggers.tables",
		"triggers/tables",
		".triggers",
		"triggers.",
		"triggers tables",
		"triggers..tables",
	}
	for _, name := range invalid {
		name := name
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := NewDirLock(root, name)
			if !errors.Is(err, ErrInvalidPath) {
				t.Fatalf("NewDirLock(%q) error = %v, want ErrInvalidPath", name, err)
			}
		})
	}
	if _, err := NewDirLock("  ", "ok"); !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("NewDirLock(empty root) error = %v, want ErrInvalidPath", err)
	}
}

func TestWriteJSONAtomicDigestMatchesRead(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "stats.json")
	type payload struct {
		Name string `json:"name"`
	}
	digest, err := WriteJSONAtomic(path, payload{Name: "alpha"}, FileOptions{})
	if err != nil {
		t.Fatalf("WriteJSONAtomic() error = %v", err)
	}

	doc, err := ReadDocument(path)
	if err != nil {
		t.Fatalf("ReadDocument() error = %v", err)
	}
	if doc.Digest != digest {
		t.Fatalf("ReadDocument() digest = %q, want %q", doc.Digest, digest)
	}
	var out payload
	ok, err := doc.Decode(&out)
	if err != nil || !ok {
		t.Fatalf("Decode() = (%v, %v), want (true, nil)", ok, err)
	}
	if out.Name != "alpha" {
		t.Fatalf("Decode() name = %q, want alpha", out.Name)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm() != defaultFilePerm {
		t.Fatalf("perm = %v, want %v", info.Mode().Perm(), os.FileMode(defaultFilePerm))
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("dir entries = %d, want 1 (temp files must not linger)", len(entries))
	}
}

func TestReadDocumentMissingAndCorrupt(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	doc, err := ReadDocument(filepath.Join(dir, "missing.json"))
	if err != nil {
		t.Fatalf("ReadDocument(missing) error = %v", err)
	}
	if doc.Exists() {
		t.Fatalf("ReadDocument(missing) exists = true")
	}
	var out map[string]any
	if ok, err := doc.Decode(&out); ok || err != nil {
		t.Fatalf("Decode(missing) = (%v, %v), want (false, nil)", ok, err)
	}

	corrupt := filepath.Join(dir, "corrupt.json")
	if err := os.WriteFile(corrupt, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	doc, err = ReadDocument(corrupt)
	if err != nil {
		t.Fatalf("ReadDocument(corrupt) error = %v", err)
	}
	if _, err := doc.Decode(&out); !errors.Is(err, ErrDecodeFailed) {
		t.Fatalf("Decode(corrupt) error = %v, want ErrDecodeFailed", err)
	}
}
