package fsstore

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Document is the raw content of a JSON document together with the digest
// of its bytes. An empty Digest means the document does not exist.
type Document struct {
	Path   string
	Data   []byte
	Digest string
}

func (d Document) Exists() bool {
	return d.Digest != ""
}

// Decode unmarshals the document into out. A missing or blank document
// leaves out untouched and reports false.
func (d Document) Decode(out any) (bool, error) {
	if len(bytes.TrimSpace(d.Data)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(d.Data, out); err != nil {
		return false, fmt.Errorf("%w: decode %s: %v", ErrDecodeFailed, d.Path, err)
	}
	return true, nil
}

func ReadDocument(path string) (Document, error) {
	normalizedPath, err := cleanPath(path)
	if err != nil {
		return Document{}, err
	}
	data, err := os.ReadFile(normalizedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Document{Path: normalizedPath}, nil
		}
		return Document{Path: normalizedPath}, fmt.Errorf("read document %s: %w", normalizedPath, err)
	}
	return Document{Path: normalizedPath, Data: data, Digest: Digest(data)}, nil
}

// WriteJSONAtomic encodes v as indented JSON and atomically replaces path.
// The digest of the written bytes is returned so callers can later tell their
// own writes apart from external edits.
func WriteJSONAtomic(path string, v any, opts FileOptions) (string, error) {
	normalizedPath, err := cleanPath(path)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("%w: encode %s: %v", ErrEncodeFailed, normalizedPath, err)
	}
	data = append(data, '\n')
	if err := writeAtomic(normalizedPath, data, opts.withDefaults()); err != nil {
		return "", err
	}
	return Digest(data), nil
}

func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
