package triggers

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/HUSSAIN3DEL/telegram-bot-hussain/internal/fsstore"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/internal/retryutil"
	"github.com/google/uuid"
)

const (
	ImageTriggersFile = "image_triggers.json"
	TextTriggersFile  = "text_triggers.json"
	SendersFile       = "senders.json"
	StatsFile         = "stats.json"

	tablesLockKey      = "triggers.tables"
	defaultLockTimeout = 5 * time.Second
	labelMaxRunes      = 20
)

type Options struct {
	Now         func() time.Time
	NewID       func() string
	Logger      *slog.Logger
	FileOptions fsstore.FileOptions
	LockTimeout time.Duration
	RetryPolicy retryutil.Policy
}

func (o Options) normalize() Options {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = func() string {
			return "img_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
		}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.LockTimeout <= 0 {
		o.LockTimeout = defaultLockTimeout
	}
	return o
}

// FileStore keeps all four tables in memory and rewrites them as JSON
// documents under root after every mutation.
type FileStore struct {
	root string
	opts Options

	mu         sync.Mutex
	images     *table[ImageTrigger]
	imageByKey map[string]string
	texts      *table[TextTrigger]
	senders    *table[SenderProfile]
	stats      AggregateStats
	digests    map[string]string
	generation uint64
	dirty      bool
	retrying   bool
}

func NewFileStore(root string, opts Options) *FileStore {
	opts = opts.normalize()
	s := &FileStore{
		root:    filepath.Clean(strings.TrimSpace(root)),
		opts:    opts,
		digests: map[string]string{},
	}
	s.resetLocked()
	return s
}

func (s *FileStore) Root() string {
	return s.root
}

func (s *FileStore) resetLocked() {
	s.images = newTable[ImageTrigger]()
	s.texts = newTable[TextTrigger]()
	s.senders = newTable[SenderProfile]()
	s.stats = AggregateStats{}
	s.refreshDerivedLocked()
}

// refreshDerivedLocked rebuilds the attachment index and the table-size
// totals. Fire counters are left alone.
func (s *FileStore) refreshDerivedLocked() {
	s.imageByKey = make(map[string]string, s.images.Len())
	s.images.Each(func(id string, row *ImageTrigger) bool {
		if _, taken := s.imageByKey[row.AttachmentKey]; !taken {
			s.imageByKey[row.AttachmentKey] = id
		}
		return true
	})
	s.stats.TotalSenders = s.senders.Len()
	s.stats.TotalImageTriggers = s.images.Len()
	s.stats.TotalTextTriggers = s.texts.Len()
	if s.stats.PerDay == nil {
		s.stats.PerDay = map[string]DayStats{}
	}
	if s.stats.StartTime.IsZero() {
		s.stats.StartTime = s.opts.Now().UTC()
	}
}

func (s *FileStore) UpsertSender(ctx context.Context, obs Observation) (SenderProfile, error) {
	if err := ensureNotCanceled(ctx); err != nil {
		return SenderProfile{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.Now().UTC()
	key := senderKey(obs.ID)
	profile, ok := s.senders.Get(key)
	if !ok {
		profile = &SenderProfile{ID: obs.ID, JoinedAt: now}
		s.senders.Insert(key, profile)
		s.stats.TotalSenders = s.senders.Len()
	}
	if name := strings.TrimSpace(obs.DisplayName); name != "" {
		profile.DisplayName = name
	}
	profile.Username = strings.TrimSpace(obs.Username)
	profile.LastActive = now
	profile.IsPrivileged = obs.Privileged
	profile.IsBlocked = obs.Blocked

	s.commitLocked(ctx, "upsert_sender")
	return *profile, nil
}

func (s *FileStore) InsertImageTrigger(ctx context.Context, attachmentKey string, aliases []string, reply string, author int64) (string, error) {
	if err := ensureNotCanceled(ctx); err != nil {
		return "", err
	}
	attachmentKey = strings.TrimSpace(attachmentKey)
	if attachmentKey == "" {
		return "", fmt.Errorf("%w: empty attachment key", ErrValidation)
	}
	if strings.TrimSpace(reply) == "" {
		return "", fmt.Errorf("%w: empty reply", ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.opts.NewID()
	for {
		if _, taken := s.images.Get(id); !taken {
			break
		}
		id = s.opts.NewID()
	}
	s.images.Insert(id, &ImageTrigger{
		ID:            id,
		AttachmentKey: attachmentKey,
		Aliases:       CleanAliases(aliases),
		Reply:         reply,
		CreatedBy:     author,
		CreatedAt:     s.opts.Now().UTC(),
	})
	if _, taken := s.imageByKey[attachmentKey]; !taken {
		s.imageByKey[attachmentKey] = id
	}
	s.stats.TotalImageTriggers = s.images.Len()
	if profile, ok := s.senders.Get(senderKey(author)); ok {
		profile.TriggersAuthoredImage++
	}
	s.generation++

	s.commitLocked(ctx, "insert_image_trigger")
	return id, nil
}

// InsertTextTrigger stores reply under every alias whose normalized key is
// new. Existing keys keep their answer. The call succeeds even when every
// alias was skipped.
func (s *FileStore) InsertTextTrigger(ctx context.Context, aliases []string, reply string, author int64) (TextInsertResult, error) {
	if err := ensureNotCanceled(ctx); err != nil {
		return TextInsertResult{}, err
	}
	if strings.TrimSpace(reply) == "" {
		return TextInsertResult{}, fmt.Errorf("%w: empty reply", ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cleaned := CleanAliases(aliases)
	now := s.opts.Now().UTC()
	var result TextInsertResult
	for _, alias := range cleaned {
		key := Normalize(alias)
		if key == "" {
			continue
		}
		added := s.texts.Insert(key, &TextTrigger{
			CanonicalAlias: alias,
			Aliases:        append([]string(nil), cleaned...),
			Reply:          reply,
			CreatedBy:      author,
			CreatedAt:      now,
		})
		if added {
			result.Added = append(result.Added, alias)
		} else {
			result.Skipped = append(result.Skipped, alias)
		}
	}
	s.stats.TotalTextTriggers = s.texts.Len()
	if result.AnyAdded() {
		if profile, ok := s.senders.Get(senderKey(author)); ok {
			profile.TriggersAuthoredText++
		}
		s.generation++
	}

	s.commitLocked(ctx, "insert_text_trigger")
	return result, nil
}

func (s *FileStore) RecordImageFire(ctx context.Context, attachmentKey string, sender int64) (string, bool, error) {
	if err := ensureNotCanceled(ctx); err != nil {
		return "", false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.imageByKey[strings.TrimSpace(attachmentKey)]
	if !ok {
		return "", false, nil
	}
	row, ok := s.images.Get(id)
	if !ok {
		return "", false, nil
	}
	now := s.opts.Now()
	row.UsageCount++
	row.LastUsed = timePtr(now.UTC())
	s.stats.ImageFires++
	s.recordFireLocked(ctx, now, sender, KindImage)
	return row.Reply, true, nil
}

// RecordTextFire looks key up as given; callers pass an already normalized
// key.
func (s *FileStore) RecordTextFire(ctx context.Context, key string, sender int64) (string, bool, error) {
	if err := ensureNotCanceled(ctx); err != nil {
		return "", false, err
	}
	if key == "" {
		return "", false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.texts.Get(key)
	if !ok {
		return "", false, nil
	}
	now := s.opts.Now()
	row.UsageCount++
	row.LastUsed = timePtr(now.UTC())
	s.stats.TextFires++
	s.recordFireLocked(ctx, now, sender, KindText)
	return row.Reply, true, nil
}

func (s *FileStore) recordFireLocked(ctx context.Context, now time.Time, sender int64, kind Kind) {
	s.stats.TotalFires++
	day := s.stats.PerDay[DayKey(now)]
	if kind == KindImage {
		day.ImageFires++
	} else {
		day.TextFires++
	}
	s.stats.PerDay[DayKey(now)] = day
	if profile, ok := s.senders.Get(senderKey(sender)); ok {
		profile.UsageCount++
	}
	s.commitLocked(ctx, "record_"+string(kind)+"_fire")
}

func (s *FileStore) TextKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.texts.Keys()
}

// DeleteTrigger removes an image trigger by id or a text trigger by alias.
// The requester's stored profile must be privileged.
func (s *FileStore) DeleteTrigger(ctx context.Context, kind Kind, key string, requester int64) (uint64, error) {
	if err := ensureNotCanceled(ctx); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, ok := s.senders.Get(senderKey(requester))
	if !ok || !profile.IsPrivileged {
		return s.generation, fmt.Errorf("%w: sender %d may not delete triggers", ErrForbidden, requester)
	}

	var removed bool
	switch kind {
	case KindImage:
		removed = s.images.Delete(strings.TrimSpace(key))
	case KindText:
		removed = s.texts.Delete(Normalize(key))
	default:
		return s.generation, fmt.Errorf("%w: unknown trigger kind %q", ErrValidation, kind)
	}
	if !removed {
		return s.generation, fmt.Errorf("%w: %s trigger %q", ErrNotFound, kind, key)
	}
	s.refreshDerivedLocked()
	s.generation++

	s.commitLocked(ctx, "delete_trigger")
	return s.generation, nil
}

// ListDeletable numbers image triggers first, then text triggers, in table
// order. The returned generation identifies the table state the ordinals
// refer to.
func (s *FileStore) ListDeletable() ([]DeletableItem, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]DeletableItem, 0, s.images.Len()+s.texts.Len())
	s.images.Each(func(id string, row *ImageTrigger) bool {
		items = append(items, DeletableItem{
			Ordinal: len(items) + 1,
			Kind:    KindImage,
			Key:     id,
			Label:   truncateRunes(strings.Join(row.Aliases, ", "), labelMaxRunes),
		})
		return true
	})
	s.texts.Each(func(key string, row *TextTrigger) bool {
		items = append(items, DeletableItem{
			Ordinal: len(items) + 1,
			Kind:    KindText,
			Key:     key,
			Label:   row.CanonicalAlias + " → " + truncateRunes(row.Reply, labelMaxRunes),
		})
		return true
	})
	return items, s.generation
}

func (s *FileStore) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *FileStore) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Images:     make([]ImageTrigger, 0, s.images.Len()),
		Texts:      make([]TextTrigger, 0, s.texts.Len()),
		Senders:    make([]SenderProfile, 0, s.senders.Len()),
		Stats:      s.stats,
		Generation: s.generation,
		TakenAt:    s.opts.Now(),
	}
	s.images.Each(func(_ string, row *ImageTrigger) bool {
		item := *row
		item.Aliases = append([]string(nil), row.Aliases...)
		item.LastUsed = copyTime(row.LastUsed)
		snap.Images = append(snap.Images, item)
		return true
	})
	s.texts.Each(func(key string, row *TextTrigger) bool {
		item := *row
		item.Key = key
		item.Aliases = append([]string(nil), row.Aliases...)
		item.LastUsed = copyTime(row.LastUsed)
		snap.Texts = append(snap.Texts, item)
		return true
	})
	s.senders.Each(func(_ string, row *SenderProfile) bool {
		snap.Senders = append(snap.Senders, *row)
		return true
	})
	snap.Stats.PerDay = make(map[string]DayStats, len(s.stats.PerDay))
	for day, counts := range s.stats.PerDay {
		snap.Stats.PerDay[day] = counts
	}
	return snap
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func ensureNotCanceled(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
