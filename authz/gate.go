// Package authz decides who may author triggers and who receives replies.
package authz

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const defaultMemberCacheTTL = time.Minute

// MemberStatusResolver asks the chat platform for a user's role in a chat,
// e.g. "member", "administrator" or "creator".
type MemberStatusResolver interface {
	ChatMemberStatus(ctx context.Context, chatID, userID int64) (string, error)
}

type Config struct {
	AdminIDs      []int64
	SuperAdminIDs []int64
	BlockedIDs    []int64

	// GroupAdmins lets chat administrators of a group author triggers there.
	GroupAdmins    bool
	MemberCacheTTL time.Duration

	// PrivilegedOnlyReplies restricts auto-replies to privileged senders.
	PrivilegedOnlyReplies bool
}

type Chat struct {
	ID    int64
	Group bool
}

type Gate struct {
	admins   map[int64]bool
	supers   map[int64]bool
	blocked  map[int64]bool
	cfg      Config
	resolver MemberStatusResolver
	logger   *slog.Logger
	now      func() time.Time

	mu    sync.Mutex
	cache map[memberKey]memberEntry
}

type memberKey struct {
	chatID int64
	userID int64
}

type memberEntry struct {
	privileged bool
	expiresAt  time.Time
}

func New(cfg Config, resolver MemberStatusResolver, logger *slog.Logger) *Gate {
	if cfg.MemberCacheTTL <= 0 {
		cfg.MemberCacheTTL = defaultMemberCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		admins:   idSet(cfg.AdminIDs),
		supers:   idSet(cfg.SuperAdminIDs),
		blocked:  idSet(cfg.BlockedIDs),
		cfg:      cfg,
		resolver: resolver,
		logger:   logger,
		now:      time.Now,
		cache:    map[memberKey]memberEntry{},
	}
}

func (g *Gate) IsSuperAdmin(sender int64) bool {
	return g.supers[sender]
}

func (g *Gate) IsBlocked(sender int64) bool {
	return g.blocked[sender]
}

// IsPrivileged reports whether sender may author and administer triggers in
// chat. A failed membership lookup counts as not privileged.
func (g *Gate) IsPrivileged(ctx context.Context, sender int64, chat Chat) bool {
	if g.blocked[sender] {
		return false
	}
	if g.admins[sender] || g.supers[sender] {
		return true
	}
	if !g.cfg.GroupAdmins || !chat.Group || g.resolver == nil {
		return false
	}
	return g.groupAdmin(ctx, sender, chat.ID)
}

// MayReceiveReplies reports whether auto-replies are delivered to sender.
func (g *Gate) MayReceiveReplies(ctx context.Context, sender int64, chat Chat) bool {
	if g.blocked[sender] {
		return false
	}
	if !g.cfg.PrivilegedOnlyReplies {
		return true
	}
	return g.IsPrivileged(ctx, sender, chat)
}

func (g *Gate) groupAdmin(ctx context.Context, sender, chatID int64) bool {
	key := memberKey{chatID: chatID, userID: sender}
	now := g.now()

	g.mu.Lock()
	if entry, ok := g.cache[key]; ok && now.Before(entry.expiresAt) {
		g.mu.Unlock()
		return entry.privileged
	}
	g.mu.Unlock()

	status, err := g.resolver.ChatMemberStatus(ctx, chatID, sender)
	if err != nil {
		g.logger.Warn("authz_member_lookup_failed", "chat_id", chatID, "user_id", sender, "error", err.Error())
		return false
	}
	privileged := privilegedStatus(status)

	g.mu.Lock()
	g.cache[key] = memberEntry{privileged: privileged, expiresAt: now.Add(g.cfg.MemberCacheTTL)}
	g.mu.Unlock()
	return privileged
}

// Forget drops cached membership results, e.g. after a role change.
func (g *Gate) Forget(chatID int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for key := range g.cache {
		if key.chatID == chatID {
			delete(g.cache, key)
		}
	}
}

func privilegedStatus(status string) bool {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "administrator", "creator", "owner":
		return true
	default:
		return false
	}
}

func idSet(ids []int64) map[int64]bool {
	out := make(map[int64]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}
