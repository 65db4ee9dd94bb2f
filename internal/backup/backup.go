// Package backup copies the table documents into timestamped directories.
package backup

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/HUSSAIN3DEL/telegram-bot-hussain/internal/fsstore"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/triggers"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const (
	dirLayout    = "20060102_150405"
	ManifestName = "manifest.yaml"
)

// Source hands out the document paths while they are safe to copy.
type Source interface {
	WithDocuments(ctx context.Context, fn func(docs []triggers.DocumentFile) error) error
}

type Options struct {
	Dir         string
	Keep        int // 0 keeps every backup
	Now         func() time.Time
	Logger      *slog.Logger
	FileOptions fsstore.FileOptions
}

type FileEntry struct {
	Table   string `yaml:"table"`
	Name    string `yaml:"name"`
	Bytes   int    `yaml:"bytes"`
	SHA256  string `yaml:"sha256,omitempty"`
	Present bool   `yaml:"present"`
}

type Manifest struct {
	RunID     string      `yaml:"run_id"`
	CreatedAt time.Time   `yaml:"created_at"`
	Source    string      `yaml:"source"`
	Files     []FileEntry `yaml:"files"`
}

type Result struct {
	Dir      string
	Manifest Manifest
	Pruned   []string
}

// Copied counts documents that existed and were copied.
func (r Result) Copied() int {
	n := 0
	for _, f := range r.Manifest.Files {
		if f.Present {
			n++
		}
	}
	return n
}

type Manager struct {
	src  Source
	opts Options
}

func NewManager(src Source, opts Options) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	opts.Dir = filepath.Clean(strings.TrimSpace(opts.Dir))
	return &Manager{src: src, opts: opts}
}

// Run copies every document into a new directory named after the current
// time and writes a manifest next to the copies.
func (m *Manager) Run(ctx context.Context) (Result, error) {
	now := m.opts.Now()
	dir, err := m.newRunDir(now)
	if err != nil {
		return Result{}, err
	}
	manifest := Manifest{RunID: uuid.NewString(), CreatedAt: now.UTC()}

	err = m.src.WithDocuments(ctx, func(docs []triggers.DocumentFile) error {
		for _, doc := range docs {
			manifest.Source = filepath.Dir(doc.Path)
			entry, err := m.copyDocument(doc, dir)
			if err != nil {
				return err
			}
			manifest.Files = append(manifest.Files, entry)
		}
		return nil
	})
	if err == nil {
		err = m.writeManifest(dir, manifest)
	}
	if err != nil {
		// A run without its manifest is not a backup.
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			m.opts.Logger.Warn("backup_cleanup_failed", "dir", dir, "error", rmErr.Error())
		}
		return Result{}, fmt.Errorf("backup %s: %w", dir, err)
	}

	result := Result{Dir: dir, Manifest: manifest}
	m.opts.Logger.Info("backup_created", "dir", dir, "run_id", manifest.RunID, "files", result.Copied())

	pruned, err := m.Prune()
	if err != nil {
		m.opts.Logger.Warn("backup_prune_failed", "error", err.Error())
	}
	result.Pruned = pruned
	return result, nil
}

func (m *Manager) writeManifest(dir string, manifest Manifest) error {
	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ManifestName, err)
	}
	return fsstore.WriteFileAtomic(filepath.Join(dir, ManifestName), data, m.opts.FileOptions)
}

func (m *Manager) copyDocument(doc triggers.DocumentFile, dir string) (FileEntry, error) {
	name := filepath.Base(doc.Path)
	entry := FileEntry{Table: doc.Table, Name: name}
	raw, err := fsstore.ReadDocument(doc.Path)
	if err != nil {
		return entry, err
	}
	if !raw.Exists() {
		return entry, nil
	}
	if err := fsstore.WriteFileAtomic(filepath.Join(dir, name), raw.Data, m.opts.FileOptions); err != nil {
		return entry, err
	}
	entry.Present = true
	entry.Bytes = len(raw.Data)
	entry.SHA256 = raw.Digest
	return entry, nil
}

func (m *Manager) newRunDir(now time.Time) (string, error) {
	if err := fsstore.EnsureDir(m.opts.Dir, m.opts.FileOptions.DirPerm); err != nil {
		return "", err
	}
	base := now.Format(dirLayout)
	dir := filepath.Join(m.opts.Dir, base)
	for i := 2; ; i++ {
		err := os.Mkdir(dir, dirPerm(m.opts.FileOptions))
		if err == nil {
			return dir, nil
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("backup dir %s: %w", dir, err)
		}
		dir = filepath.Join(m.opts.Dir, fmt.Sprintf("%s_%d", base, i))
	}
}

// List returns backup directories, oldest first. Runs within the same
// second are ordered by their numeric suffix.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.opts.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var runs []runDir
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if run, ok := parseRunDir(e.Name()); ok {
			runs = append(runs, run)
		}
	}
	sort.Slice(runs, func(i, j int) bool {
		if runs[i].stamp != runs[j].stamp {
			return runs[i].stamp < runs[j].stamp
		}
		return runs[i].seq < runs[j].seq
	})
	dirs := make([]string, 0, len(runs))
	for _, run := range runs {
		dirs = append(dirs, run.name)
	}
	return dirs, nil
}

// Prune removes the oldest backups beyond Keep.
func (m *Manager) Prune() ([]string, error) {
	if m.opts.Keep <= 0 {
		return nil, nil
	}
	dirs, err := m.List()
	if err != nil || len(dirs) <= m.opts.Keep {
		return nil, err
	}
	var removed []string
	for _, name := range dirs[:len(dirs)-m.opts.Keep] {
		path := filepath.Join(m.opts.Dir, name)
		if err := os.RemoveAll(path); err != nil {
			return removed, err
		}
		removed = append(removed, path)
	}
	return removed, nil
}

// ReadManifest loads the manifest of one backup directory.
func ReadManifest(dir string) (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return Manifest{}, err
	}
	var out Manifest
	if err := yaml.Unmarshal(data, &out); err != nil {
		return Manifest{}, fmt.Errorf("decode %s: %w", ManifestName, err)
	}
	return out, nil
}

type runDir struct {
	name  string
	stamp string
	seq   int
}

// parseRunDir accepts the names newRunDir creates: a timestamp, optionally
// followed by _N with N >= 2.
func parseRunDir(name string) (runDir, bool) {
	if len(name) < len(dirLayout) {
		return runDir{}, false
	}
	stamp, rest := name[:len(dirLayout)], name[len(dirLayout):]
	if _, err := time.Parse(dirLayout, stamp); err != nil {
		return runDir{}, false
	}
	run := runDir{name: name, stamp: stamp, seq: 1}
	if rest == "" {
		return run, true
	}
	n, err := strconv.Atoi(strings.TrimPrefix(rest, "_"))
	if !strings.HasPrefix(rest, "_") || err != nil || n < 2 {
		return runDir{}, false
	}
	run.seq = n
	return run, true
}

func dirPerm(opts fsstore.FileOptions) os.FileMode {
	if opts.DirPerm == 0 {
		return 0o700
	}
	return opts.DirPerm
}
