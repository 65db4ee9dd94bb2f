package triggers

import (
	"strconv"
	"time"
)

type Kind string

const (
	KindImage Kind = "image"
	KindText  Kind = "text"
)

// ImageTrigger maps a platform attachment (sticker or photo) to a reply.
type ImageTrigger struct {
	ID            string     `json:"id"`
	AttachmentKey string     `json:"attachment_key"`
	Aliases       []string   `json:"aliases"`
	Reply         string     `json:"reply"`
	CreatedBy     int64      `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UsageCount    int        `json:"usage_count"`
	LastUsed      *time.Time `json:"last_used,omitempty"`
}

// TextTrigger is stored under Normalize(CanonicalAlias).
type TextTrigger struct {
	// Key is the table key, filled in snapshots only.
	Key            string     `json:"-"`
	CanonicalAlias string     `json:"canonical_alias"`
	Aliases        []string   `json:"aliases"`
	Reply          string     `json:"reply"`
	CreatedBy      int64      `json:"created_by"`
	CreatedAt      time.Time  `json:"created_at"`
	UsageCount     int        `json:"usage_count"`
	LastUsed       *time.Time `json:"last_used,omitempty"`
}

type SenderProfile struct {
	ID                    int64     `json:"id" yaml:"id"`
	DisplayName           string    `json:"display_name" yaml:"display_name"`
	Username              string    `json:"username,omitempty" yaml:"username,omitempty"`
	JoinedAt              time.Time `json:"joined_at" yaml:"joined_at"`
	UsageCount            int       `json:"usage_count" yaml:"usage_count"`
	TriggersAuthoredImage int       `json:"triggers_authored_image" yaml:"triggers_authored_image"`
	TriggersAuthoredText  int       `json:"triggers_authored_text" yaml:"triggers_authored_text"`
	LastActive            time.Time `json:"last_active" yaml:"last_active"`
	IsPrivileged          bool      `json:"is_privileged" yaml:"is_privileged"`
	IsBlocked             bool      `json:"is_blocked" yaml:"is_blocked"`
}

type DayStats struct {
	ImageFires int `json:"image_fires" yaml:"image_fires"`
	TextFires  int `json:"text_fires" yaml:"text_fires"`
}

func (d DayStats) Total() int {
	return d.ImageFires + d.TextFires
}

type AggregateStats struct {
	StartTime          time.Time           `json:"start_time"`
	TotalSenders       int                 `json:"total_senders"`
	TotalImageTriggers int                 `json:"total_image_triggers"`
	TotalTextTriggers  int                 `json:"total_text_triggers"`
	TotalFires         int                 `json:"total_fires"`
	ImageFires         int                 `json:"image_fires"`
	TextFires          int                 `json:"text_fires"`
	PerDay             map[string]DayStats `json:"per_day"`
}

// Observation is what the transport knows about a sender at the time of an
// interaction.
type Observation struct {
	ID          int64
	DisplayName string
	Username    string
	Privileged  bool
	Blocked     bool
}

// TextInsertResult reports, per alias, whether it was stored or skipped
// because its normalized key already existed.
type TextInsertResult struct {
	Added   []string
	Skipped []string
}

func (r TextInsertResult) AnyAdded() bool {
	return len(r.Added) > 0
}

// DeletableItem is one row of a delete-by-number listing. Key is the stable
// identifier to pass to DeleteTrigger: the id for images, the normalized
// alias for texts.
type DeletableItem struct {
	Ordinal int
	Kind    Kind
	Key     string
	Label   string
}

// Snapshot is a deep copy of all tables, safe to read without locking.
type Snapshot struct {
	Images     []ImageTrigger
	Texts      []TextTrigger
	Senders    []SenderProfile
	Stats      AggregateStats
	Generation uint64
	TakenAt    time.Time
}

// DocumentFile names one persisted table document.
type DocumentFile struct {
	Table string
	Path  string
}

const dayLayout = "2006-01-02"

// DayKey is the per_day bucket a timestamp falls into.
func DayKey(t time.Time) string {
	return t.Format(dayLayout)
}

func senderKey(id int64) string {
	return strconv.FormatInt(id, 10)
}
