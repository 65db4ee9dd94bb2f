// Package triggers owns the persisted trigger, sender and statistics tables.
package triggers

import "context"

// Store is the mutation and query surface shared by the matcher, the
// conversation engine and the reporting commands. Errors other than
// ErrNotFound, ErrForbidden and ErrValidation come only from a canceled
// context: a failed write is retried in the background and never reported to
// the caller.
type Store interface {
	UpsertSender(ctx context.Context, obs Observation) (SenderProfile, error)

	InsertImageTrigger(ctx context.Context, attachmentKey string, aliases []string, reply string, author int64) (string, error)
	InsertTextTrigger(ctx context.Context, aliases []string, reply string, author int64) (TextInsertResult, error)

	RecordImageFire(ctx context.Context, attachmentKey string, sender int64) (string, bool, error)
	RecordTextFire(ctx context.Context, key string, sender int64) (string, bool, error)
	TextKeys() []string

	DeleteTrigger(ctx context.Context, kind Kind, key string, requester int64) (uint64, error)
	ListDeletable() ([]DeletableItem, uint64)
	Generation() uint64

	Snapshot() Snapshot
}

var _ Store = (*FileStore)(nil)
