package telegram

import (
	"strings"
	"time"
)

const (
	AttachmentKeyUniqueID = "file_unique_id"
	AttachmentKeyFileID   = "file_id"
)

type RunOptions struct {
	BotToken       string
	PollTimeout    time.Duration
	MaxConcurrency int
	// AttachmentKey picks which Telegram file identifier keys image
	// triggers.
	AttachmentKey string
	// QueueSize bounds the pending events per sender worker.
	QueueSize int
	// WorkerIdle retires a sender worker after this long without events.
	WorkerIdle time.Duration
}

func normalizeRunOptions(opts RunOptions) RunOptions {
	opts.BotToken = strings.TrimSpace(opts.BotToken)
	opts.AttachmentKey = strings.ToLower(strings.TrimSpace(opts.AttachmentKey))

	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 30 * time.Second
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 16
	}
	if opts.WorkerIdle <= 0 {
		opts.WorkerIdle = 10 * time.Minute
	}
	if opts.AttachmentKey != AttachmentKeyFileID {
		opts.AttachmentKey = AttachmentKeyUniqueID
	}
	return opts
}
