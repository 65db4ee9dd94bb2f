package triggers

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/HUSSAIN3DEL/telegram-bot-hussain/internal/fsstore"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/internal/retryutil"
)

// Documents lists the four table documents in a fixed order.
func (s *FileStore) Documents() []DocumentFile {
	return []DocumentFile{
		{Table: "image_triggers", Path: filepath.Join(s.root, ImageTriggersFile)},
		{Table: "text_triggers", Path: filepath.Join(s.root, TextTriggersFile)},
		{Table: "senders", Path: filepath.Join(s.root, SendersFile)},
		{Table: "stats", Path: filepath.Join(s.root, StatsFile)},
	}
}

// Load replaces the in-memory tables with the documents under root. A
// missing or unreadable document becomes an empty table; only an unusable
// data directory is an error.
func (s *FileStore) Load(ctx context.Context) error {
	if err := ensureNotCanceled(ctx); err != nil {
		return err
	}
	if err := fsstore.EnsureDir(s.root, s.opts.FileOptions.DirPerm); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withFileLock(ctx, func() error {
		s.resetLocked()
		for _, doc := range s.Documents() {
			raw, err := fsstore.ReadDocument(doc.Path)
			s.digests[doc.Table] = raw.Digest
			if err != nil {
				s.opts.Logger.Warn("store_table_load_failed", "table", doc.Table, "path", doc.Path, "error", err.Error())
				continue
			}
			if err := s.decodeLocked(doc.Table, raw); err != nil {
				s.opts.Logger.Warn("store_table_load_failed", "table", doc.Table, "path", doc.Path, "error", err.Error())
			}
		}
		s.refreshDerivedLocked()
		s.opts.Logger.Info("store_loaded",
			"root", s.root,
			"image_triggers", s.images.Len(),
			"text_triggers", s.texts.Len(),
			"senders", s.senders.Len(),
		)
		return nil
	})
}

// Reload re-reads documents changed on disk by someone other than this
// store. Unpersisted in-memory changes take precedence; a document that does
// not decode is ignored until it is fixed.
func (s *FileStore) Reload(ctx context.Context) (bool, error) {
	if err := ensureNotCanceled(ctx); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dirty {
		s.opts.Logger.Warn("store_reload_skipped", "reason", "unpersisted_changes")
		return false, nil
	}
	changed := false
	err := s.withFileLock(ctx, func() error {
		for _, doc := range s.Documents() {
			raw, err := fsstore.ReadDocument(doc.Path)
			if err != nil {
				s.opts.Logger.Warn("store_table_reload_failed", "table", doc.Table, "error", err.Error())
				continue
			}
			if raw.Digest == s.digests[doc.Table] {
				continue
			}
			if err := s.decodeLocked(doc.Table, raw); err != nil {
				s.opts.Logger.Warn("store_table_reload_failed", "table", doc.Table, "error", err.Error())
				continue
			}
			s.digests[doc.Table] = raw.Digest
			changed = true
			s.opts.Logger.Info("store_table_reloaded", "table", doc.Table)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if changed {
		s.refreshDerivedLocked()
		s.generation++
	}
	return changed, nil
}

// decodeLocked replaces one table with the content of raw. On error the
// current table is kept.
func (s *FileStore) decodeLocked(name string, raw fsstore.Document) error {
	switch name {
	case "image_triggers":
		images := newTable[ImageTrigger]()
		if _, err := raw.Decode(images); err != nil {
			return err
		}
		s.images = newTable[ImageTrigger]()
		images.Each(func(id string, row *ImageTrigger) bool {
			row.ID = id
			s.images.Insert(id, row)
			return true
		})
	case "text_triggers":
		texts := newTable[TextTrigger]()
		if _, err := raw.Decode(texts); err != nil {
			return err
		}
		// Rows are keyed by their normalized canonical alias, whatever key
		// a hand edit left them under. A row without one takes it from its
		// key. The first row of a colliding key wins, as on insert.
		s.texts = newTable[TextTrigger]()
		texts.Each(func(key string, row *TextTrigger) bool {
			row.CanonicalAlias = strings.TrimSpace(row.CanonicalAlias)
			if row.CanonicalAlias == "" {
				row.CanonicalAlias = strings.TrimSpace(key)
			}
			normalized := Normalize(row.CanonicalAlias)
			if normalized == "" {
				return true
			}
			if !s.texts.Insert(normalized, row) {
				s.opts.Logger.Warn("store_text_key_collision", "key", key, "normalized", normalized)
			}
			return true
		})
	case "senders":
		senders := newTable[SenderProfile]()
		if _, err := raw.Decode(senders); err != nil {
			return err
		}
		s.senders = senders
	case "stats":
		var stats AggregateStats
		if _, err := raw.Decode(&stats); err != nil {
			return err
		}
		s.stats = stats
	default:
		return fmt.Errorf("unknown table %q", name)
	}
	return nil
}

// Flush writes all tables now. It is used at shutdown and by the background
// retry after a failed write.
func (s *FileStore) Flush(ctx context.Context) error {
	if err := ensureNotCanceled(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persistLocked(ctx); err != nil {
		s.dirty = true
		return err
	}
	s.dirty = false
	return nil
}

// WithDocuments writes the tables and runs fn while no writer can replace
// the documents.
func (s *FileStore) WithDocuments(ctx context.Context, fn func(docs []DocumentFile) error) error {
	if err := ensureNotCanceled(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withFileLock(ctx, func() error {
		if err := s.writeDocumentsLocked(); err != nil {
			s.dirty = true
			return err
		}
		s.dirty = false
		return fn(s.Documents())
	})
}

func (s *FileStore) commitLocked(ctx context.Context, op string) {
	err := s.persistLocked(ctx)
	if err == nil {
		s.dirty = false
		return
	}
	s.dirty = true
	s.opts.Logger.Warn("store_persist_failed", "op", op, "error", err.Error())
	s.scheduleRetryLocked()
}

func (s *FileStore) scheduleRetryLocked() {
	if s.retrying {
		return
	}
	s.retrying = true
	retryutil.AsyncRetry(s.opts.Logger, "store_persist", s.opts.RetryPolicy, func(ctx context.Context) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.dirty {
			return nil
		}
		if err := s.persistLocked(ctx); err != nil {
			return err
		}
		s.dirty = false
		return nil
	}, func(error) {
		s.mu.Lock()
		s.retrying = false
		s.mu.Unlock()
	})
}

func (s *FileStore) persistLocked(ctx context.Context) error {
	return s.withFileLock(ctx, s.writeDocumentsLocked)
}

func (s *FileStore) writeDocumentsLocked() error {
	values := map[string]any{
		"image_triggers": s.images,
		"text_triggers":  s.texts,
		"senders":        s.senders,
		"stats":          &s.stats,
	}
	var errs []error
	for _, doc := range s.Documents() {
		digest, err := fsstore.WriteJSONAtomic(doc.Path, values[doc.Table], s.opts.FileOptions)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.digests[doc.Table] = digest
	}
	return errors.Join(errs...)
}

func (s *FileStore) withFileLock(ctx context.Context, fn func() error) error {
	lock, err := fsstore.NewDirLock(s.root, tablesLockKey)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	lockCtx, cancel := context.WithTimeout(ctx, s.opts.LockTimeout)
	defer cancel()
	return lock.Do(lockCtx, fn)
}
