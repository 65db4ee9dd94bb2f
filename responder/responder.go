// Package responder routes inbound events through the authorization gate,
// the command table, the authoring dialogues and the matcher.
package responder

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/HUSSAIN3DEL/telegram-bot-hussain/authz"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/conversation"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/event"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/internal/backup"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/internal/outputfmt"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/matcher"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/stats"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/triggers"
)

// Gate is the authorization surface the responder consults.
type Gate interface {
	IsBlocked(sender int64) bool
	IsPrivileged(ctx context.Context, sender int64, chat authz.Chat) bool
	MayReceiveReplies(ctx context.Context, sender int64, chat authz.Chat) bool
}

// Backupper takes a snapshot of the table documents.
type Backupper interface {
	Run(ctx context.Context) (backup.Result, error)
}

type Config struct {
	BotName    string
	BotVersion string

	RepliesEnabled bool
	ImageReplies   bool
	TextReplies    bool
	ReplyDelay     time.Duration

	// The following are only displayed by /help and /settings.
	Fuzzy          bool
	PrivilegedOnly bool
	GroupAdmins    bool
	PageSize       int
	MaxResults     int

	ShowErrors bool
	DateFormat string
	UsersLimit int
}

type Deps struct {
	Store    triggers.Store
	Gate     Gate
	Engine   *conversation.Engine
	Matcher  *matcher.Matcher
	Reporter *stats.Reporter
	Backup   Backupper
	Logger   *slog.Logger
	Now      func() time.Time
}

type Responder struct {
	store    triggers.Store
	gate     Gate
	engine   *conversation.Engine
	matcher  *matcher.Matcher
	reporter *stats.Reporter
	backup   Backupper
	logger   *slog.Logger
	now      func() time.Time
	cfg      Config
	commands map[string]command
}

func New(deps Deps, cfg Config) *Responder {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if cfg.DateFormat == "" {
		cfg.DateFormat = "2006-01-02 15:04"
	}
	if cfg.UsersLimit <= 0 {
		cfg.UsersLimit = 10
	}
	r := &Responder{
		store:    deps.Store,
		gate:     deps.Gate,
		engine:   deps.Engine,
		matcher:  deps.Matcher,
		reporter: deps.Reporter,
		backup:   deps.Backup,
		logger:   deps.Logger,
		now:      deps.Now,
		cfg:      cfg,
	}
	r.commands = r.commandTable()
	return r
}

// request carries what every handler needs about the current event.
type request struct {
	in         event.Inbound
	chat       authz.Chat
	privileged bool
	profile    triggers.SenderProfile
}

// Handle processes one inbound event and returns the replies to send, in
// order. Failures are logged and, when enabled, answered with a generic
// notice.
func (r *Responder) Handle(ctx context.Context, in event.Inbound) (replies []event.Reply) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("responder_panic",
				"sender_id", in.SenderID,
				"chat_id", in.ChatID,
				"kind", string(in.Kind),
				"panic", fmt.Sprint(rec),
				"stack", string(debug.Stack()),
			)
			replies = r.errorNotice()
		}
	}()

	out, err := r.handle(ctx, in)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		r.logger.Error("responder_handle_failed",
			"sender_id", in.SenderID,
			"chat_id", in.ChatID,
			"kind", string(in.Kind),
			"command", in.Command,
			"error", outputfmt.FormatErrorForDisplay(err),
		)
		return r.errorNotice()
	}
	for i := range out {
		if out[i].ReplyTo == 0 {
			out[i].ReplyTo = in.MessageID
		}
	}
	return out
}

func (r *Responder) handle(ctx context.Context, in event.Inbound) ([]event.Reply, error) {
	chat := authz.Chat{ID: in.ChatID, Group: in.IsGroup()}
	blocked := r.gate.IsBlocked(in.SenderID)
	privileged := !blocked && r.gate.IsPrivileged(ctx, in.SenderID, chat)

	profile, err := r.store.UpsertSender(ctx, triggers.Observation{
		ID:          in.SenderID,
		DisplayName: in.SenderName,
		Username:    in.SenderUsername,
		Privileged:  privileged,
		Blocked:     blocked,
	})
	if err != nil {
		return nil, err
	}
	if blocked {
		r.logger.Debug("responder_blocked_sender", "sender_id", in.SenderID)
		return nil, nil
	}
	req := request{in: in, chat: chat, privileged: privileged, profile: profile}

	if in.Kind == event.KindCommand {
		return r.dispatchCommand(ctx, req)
	}

	result, consumed, err := r.engine.HandleInput(ctx, in)
	if err != nil {
		return nil, err
	}
	if consumed {
		return r.renderConversation(result), nil
	}
	return r.autoReply(ctx, req)
}

func (r *Responder) autoReply(ctx context.Context, req request) ([]event.Reply, error) {
	if !r.cfg.RepliesEnabled {
		return nil, nil
	}
	in := req.in
	var (
		match matcher.Match
		ok    bool
		err   error
	)
	switch in.Kind {
	case event.KindAttachment:
		if !r.cfg.ImageReplies {
			return nil, nil
		}
		if !r.gate.MayReceiveReplies(ctx, in.SenderID, req.chat) {
			return nil, nil
		}
		match, ok, err = r.matcher.MatchImage(ctx, in.SenderID, in.AttachmentKey)
	case event.KindText:
		if !r.cfg.TextReplies {
			return nil, nil
		}
		if !r.gate.MayReceiveReplies(ctx, in.SenderID, req.chat) {
			return nil, nil
		}
		match, ok, err = r.matcher.MatchText(ctx, in.SenderID, in.Text)
	default:
		return nil, nil
	}
	if err != nil || !ok {
		return nil, err
	}
	r.logger.Info("responder_trigger_fired",
		"sender_id", in.SenderID,
		"chat_id", in.ChatID,
		"rule", string(match.Rule),
		"key", match.Key,
	)
	if err := sleepContext(ctx, r.cfg.ReplyDelay); err != nil {
		return nil, err
	}
	return []event.Reply{event.Text(match.Reply)}, nil
}

func (r *Responder) errorNotice() []event.Reply {
	if !r.cfg.ShowErrors {
		return nil
	}
	return []event.Reply{event.Text(msgGenericError)}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
