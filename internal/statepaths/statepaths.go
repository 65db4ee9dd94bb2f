package statepaths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultDataDir   = "~/.responder"
	defaultBackupDir = "backups"
)

// DataDir is the directory holding the four table documents.
func DataDir() string {
	return resolveDir(viper.GetString("data_dir"), defaultDataDir)
}

// BackupDir resolves backup.dir. Relative paths live under DataDir.
func BackupDir() string {
	return resolveChildDir(DataDir(), viper.GetString("backup.dir"), defaultBackupDir)
}

func resolveDir(raw, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = fallback
	}
	return filepath.Clean(expandHomePath(raw))
}

func resolveChildDir(parent, raw, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = fallback
	}
	raw = expandHomePath(raw)
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Join(parent, raw)
}

func expandHomePath(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return p
	}
	if p == "~" {
		return home
	}
	return filepath.Join(home, p[2:])
}
