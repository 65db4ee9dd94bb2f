package fsstore

import (
	"fmt"
	"os"
	"path/filepath"
)

func EnsureDir(path string, perm os.FileMode) error {
	normalized, err := cleanPath(path)
	if err != nil {
		return err
	}
	if perm == 0 {
		perm = defaultDirPerm
	}
	if err := os.MkdirAll(normalized, perm); err != nil {
		return fmt.Errorf("fsstore ensure dir %s: %w", normalized, err)
	}
	return nil
}

// WriteFileAtomic replaces path with content. Readers observe either the old
// or the new document, never a partial write.
func WriteFileAtomic(path string, content []byte, opts FileOptions) error {
	normalizedPath, err := cleanPath(path)
	if err != nil {
		return err
	}
	return writeAtomic(normalizedPath, content, opts.withDefaults())
}

func writeAtomic(path string, content []byte, opts FileOptions) error {
	parentDir := filepath.Dir(path)
	if err := EnsureDir(parentDir, opts.DirPerm); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(parentDir, "."+filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("%w: create temp for %s: %v", ErrAtomicWriteFailed, path, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if committed {
			return
		}
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	steps := []struct {
		name string
		run  func() error
	}{
		{"write", func() error { _, err := tmp.Write(content); return err }},
		{"sync", tmp.Sync},
		{"chmod", func() error { return tmp.Chmod(opts.FilePerm) }},
		{"close", tmp.Close},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			return fmt.Errorf("%w: %s temp for %s: %v", ErrAtomicWriteFailed, step.name, path, err)
		}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("%w: rename temp for %s: %v", ErrAtomicWriteFailed, path, err)
	}
	committed = true

	// Best effort directory sync; ignore failures.
	if dirFD, err := os.Open(parentDir); err == nil {
		_ = dirFD.Sync()
		_ = dirFD.Close()
	}
	return nil
}
