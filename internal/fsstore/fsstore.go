// Package fsstore holds the file primitives behind the trigger tables:
// atomic document writes, digests of what is on disk and a cross-process
// lock on the data directory.
package fsstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrInvalidPath       = errors.New("fsstore: invalid path")
	ErrLockTimeout       = errors.New("fsstore: lock timeout")
	ErrLockUnavailable   = errors.New("fsstore: lock unavailable")
	ErrEncodeFailed      = errors.New("fsstore: encode failed")
	ErrDecodeFailed      = errors.New("fsstore: decode failed")
	ErrAtomicWriteFailed = errors.New("fsstore: atomic write failed")
)

const (
	defaultDirPerm  os.FileMode = 0o700
	defaultFilePerm os.FileMode = 0o600
)

// FileOptions sets the permissions of created directories and documents.
// Zero values mean owner-only.
type FileOptions struct {
	DirPerm  os.FileMode
	FilePerm os.FileMode
}

func (o FileOptions) withDefaults() FileOptions {
	if o.DirPerm == 0 {
		o.DirPerm = defaultDirPerm
	}
	if o.FilePerm == 0 {
		o.FilePerm = defaultFilePerm
	}
	return o
}

func cleanPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	return filepath.Clean(path), nil
}
