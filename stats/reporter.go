// Package stats answers operator queries over a store snapshot.
package stats

import (
	"sort"
	"strings"
	"time"

	"github.com/HUSSAIN3DEL/telegram-bot-hussain/triggers"
)

const (
	defaultPageSize   = 50
	defaultMaxResults = 10
	defaultTopSenders = 5
)

type SnapshotSource interface {
	Snapshot() triggers.Snapshot
}

type Options struct {
	PageSize   int
	MaxResults int
	TopSenders int
}

type Reporter struct {
	source SnapshotSource
	opts   Options
}

func NewReporter(source SnapshotSource, opts Options) *Reporter {
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = defaultMaxResults
	}
	if opts.TopSenders <= 0 {
		opts.TopSenders = defaultTopSenders
	}
	return &Reporter{source: source, opts: opts}
}

type Summary struct {
	StartTime          time.Time                `json:"start_time" yaml:"start_time"`
	UptimeDays         int                      `json:"uptime_days" yaml:"uptime_days"`
	TotalSenders       int                      `json:"total_senders" yaml:"total_senders"`
	TotalImageTriggers int                      `json:"total_image_triggers" yaml:"total_image_triggers"`
	TotalTextTriggers  int                      `json:"total_text_triggers" yaml:"total_text_triggers"`
	TotalFires         int                      `json:"total_fires" yaml:"total_fires"`
	ImageFires         int                      `json:"image_fires" yaml:"image_fires"`
	TextFires          int                      `json:"text_fires" yaml:"text_fires"`
	Today              triggers.DayStats        `json:"today" yaml:"today"`
	AvgFiresPerDay     float64                  `json:"avg_fires_per_day" yaml:"avg_fires_per_day"`
	TopSenders         []triggers.SenderProfile `json:"top_senders" yaml:"top_senders"`
}

// Entry is one trigger as shown in listings and search results.
type Entry struct {
	Kind       triggers.Kind `json:"kind" yaml:"kind"`
	Key        string        `json:"key" yaml:"key"`
	Aliases    []string      `json:"aliases" yaml:"aliases"`
	Reply      string        `json:"reply" yaml:"reply"`
	UsageCount int           `json:"usage_count" yaml:"usage_count"`
}

type Page struct {
	Entries []Entry
	Page    int
	Pages   int
	Total   int
}

// Summary reports lifetime and today's counters. Uptime is counted in whole
// days, and the daily average divides by at least one day.
func (r *Reporter) Summary(now time.Time) Summary {
	snap := r.source.Snapshot()
	st := snap.Stats
	days := 0
	if !st.StartTime.IsZero() && now.After(st.StartTime) {
		days = int(now.Sub(st.StartTime) / (24 * time.Hour))
	}
	return Summary{
		StartTime:          st.StartTime,
		UptimeDays:         days,
		TotalSenders:       st.TotalSenders,
		TotalImageTriggers: st.TotalImageTriggers,
		TotalTextTriggers:  st.TotalTextTriggers,
		TotalFires:         st.TotalFires,
		ImageFires:         st.ImageFires,
		TextFires:          st.TextFires,
		Today:              st.PerDay[triggers.DayKey(now)],
		AvgFiresPerDay:     float64(st.TotalFires) / float64(max(days, 1)),
		TopSenders:         topSenders(snap.Senders, r.opts.TopSenders),
	}
}

// TopSenders returns up to n senders by usage, most active first.
func (r *Reporter) TopSenders(n int) []triggers.SenderProfile {
	if n <= 0 {
		n = r.opts.TopSenders
	}
	return topSenders(r.source.Snapshot().Senders, n)
}

func (r *Reporter) Sender(id int64) (triggers.SenderProfile, bool) {
	for _, profile := range r.source.Snapshot().Senders {
		if profile.ID == id {
			return profile, true
		}
	}
	return triggers.SenderProfile{}, false
}

func (r *Reporter) PageSize() int {
	return r.opts.PageSize
}

// List pages through all triggers, images first. Pages count from 1 and
// out-of-range pages are clamped.
func (r *Reporter) List(page int) Page {
	entries := entries(r.source.Snapshot())
	pages := (len(entries) + r.opts.PageSize - 1) / r.opts.PageSize
	if pages == 0 {
		pages = 1
	}
	page = min(max(page, 1), pages)
	start := min((page-1)*r.opts.PageSize, len(entries))
	end := min(start+r.opts.PageSize, len(entries))
	return Page{Entries: entries[start:end], Page: page, Pages: pages, Total: len(entries)}
}

// Search finds triggers whose aliases or reply contain query after
// normalization.
func (r *Reporter) Search(query string) []Entry {
	needle := triggers.Normalize(query)
	if needle == "" {
		return nil
	}
	var out []Entry
	for _, entry := range entries(r.source.Snapshot()) {
		if !entryContains(entry, needle) {
			continue
		}
		out = append(out, entry)
		if len(out) >= r.opts.MaxResults {
			break
		}
	}
	return out
}

func entryContains(entry Entry, needle string) bool {
	if strings.Contains(triggers.Normalize(entry.Reply), needle) {
		return true
	}
	for _, alias := range entry.Aliases {
		if strings.Contains(triggers.Normalize(alias), needle) {
			return true
		}
	}
	return false
}

func entries(snap triggers.Snapshot) []Entry {
	out := make([]Entry, 0, len(snap.Images)+len(snap.Texts))
	for _, img := range snap.Images {
		out = append(out, Entry{Kind: triggers.KindImage, Key: img.ID, Aliases: img.Aliases, Reply: img.Reply, UsageCount: img.UsageCount})
	}
	for _, txt := range snap.Texts {
		out = append(out, Entry{Kind: triggers.KindText, Key: txt.Key, Aliases: []string{txt.CanonicalAlias}, Reply: txt.Reply, UsageCount: txt.UsageCount})
	}
	return out
}

func topSenders(senders []triggers.SenderProfile, n int) []triggers.SenderProfile {
	sorted := append([]triggers.SenderProfile(nil), senders...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UsageCount > sorted[j].UsageCount
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
