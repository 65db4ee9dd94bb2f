package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/HUSSAIN3DEL/telegram-bot-hussain/event"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/triggers"
)

const defaultIdleTimeout = 15 * time.Minute

// Store is the subset of the trigger store the dialogues write to.
type Store interface {
	InsertImageTrigger(ctx context.Context, attachmentKey string, aliases []string, reply string, author int64) (string, error)
	InsertTextTrigger(ctx context.Context, aliases []string, reply string, author int64) (triggers.TextInsertResult, error)
	DeleteTrigger(ctx context.Context, kind triggers.Kind, key string, requester int64) (uint64, error)
	ListDeletable() ([]triggers.DeletableItem, uint64)
	Generation() uint64
}

type Options struct {
	// IdleTimeout ends a flow that saw no input for this long.
	IdleTimeout time.Duration
	Now         func() time.Time
	Logger      *slog.Logger
}

type Engine struct {
	store Store
	opts  Options

	mu       sync.Mutex
	sessions map[int64]*session
}

func New(store Store, opts Options) *Engine {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = defaultIdleTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Engine{store: store, opts: opts, sessions: map[int64]*session{}}
}

// Mode returns the sender's current flow.
func (e *Engine) Mode(sender int64) Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.sessionLocked(sender, false); s != nil {
		return s.mode
	}
	return ModeNone
}

// BeginImage starts the image flow: attachment, then aliases, then reply.
func (e *Engine) BeginImage(sender int64, privileged bool) Result {
	if !privileged {
		return Result{Step: StepDenied}
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.sessionLocked(sender, true)
	discarded := s.clearFlow()
	s.mode = ModeAwaitingImage
	e.touchLocked(s)
	e.logTransition(sender, discarded, s.mode)
	return Result{Step: StepAskImage, Discarded: discarded, Flow: triggers.KindImage}
}

// BeginText starts the text flow with the comma separated aliases in args.
// Without a usable alias the sender is left with no active flow.
func (e *Engine) BeginText(sender int64, privileged bool, args string) Result {
	if !privileged {
		return Result{Step: StepDenied}
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.sessionLocked(sender, true)
	discarded := s.clearFlow()
	aliases := triggers.SplitAliases(args)
	if len(aliases) == 0 {
		e.dropIfEmptyLocked(sender, s)
		return Result{Step: StepInvalid, Hint: HintEmptyAliases, Discarded: discarded, Flow: triggers.KindText}
	}
	s.mode = ModeAwaitingTextReply
	s.pendingAliases = aliases
	e.touchLocked(s)
	e.logTransition(sender, discarded, s.mode)
	return Result{Step: StepAskReply, Discarded: discarded, Flow: triggers.KindText, Aliases: aliases}
}

// Cancel ends the active flow, if any.
func (e *Engine) Cancel(sender int64) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.sessionLocked(sender, false)
	if s == nil || !s.mode.Active() {
		return Result{Step: StepIdle}
	}
	prev := s.clearFlow()
	e.dropIfEmptyLocked(sender, s)
	e.logTransition(sender, prev, ModeNone)
	return Result{Step: StepCancelled, Discarded: prev}
}

// HandleInput feeds one event to the sender's active flow. Events of a kind
// the current step does not expect are not consumed and should be matched
// as ordinary messages.
func (e *Engine) HandleInput(ctx context.Context, in event.Inbound) (Result, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.sessionLocked(in.SenderID, false)
	if s == nil || !s.mode.Active() {
		return Result{}, false, nil
	}

	switch s.mode {
	case ModeAwaitingImage:
		if in.Kind != event.KindAttachment || strings.TrimSpace(in.AttachmentKey) == "" {
			return Result{}, false, nil
		}
		s.pendingKey = strings.TrimSpace(in.AttachmentKey)
		e.touchLocked(s)
		e.advanceLocked(in.SenderID, s, ModeAwaitingImageAliases)
		return Result{Step: StepAskAliases, Flow: triggers.KindImage}, true, nil

	case ModeAwaitingImageAliases:
		if in.Kind != event.KindText {
			return Result{}, false, nil
		}
		e.touchLocked(s)
		aliases := triggers.SplitAliases(in.Text)
		if len(aliases) == 0 {
			return Result{Step: StepInvalid, Hint: HintEmptyAliases, Flow: triggers.KindImage}, true, nil
		}
		s.pendingAliases = aliases
		e.advanceLocked(in.SenderID, s, ModeAwaitingImageReply)
		return Result{Step: StepAskReply, Flow: triggers.KindImage, Aliases: aliases}, true, nil

	case ModeAwaitingImageReply:
		if in.Kind != event.KindText {
			return Result{}, false, nil
		}
		e.touchLocked(s)
		id, err := e.store.InsertImageTrigger(ctx, s.pendingKey, s.pendingAliases, in.Text, in.SenderID)
		if errors.Is(err, triggers.ErrValidation) {
			return Result{Step: StepInvalid, Hint: HintEmptyReply}, true, nil
		}
		if err != nil {
			return Result{}, true, err
		}
		aliases := s.pendingAliases
		s.clearFlow()
		e.dropIfEmptyLocked(in.SenderID, s)
		e.opts.Logger.Info("conversation_image_trigger_saved", "sender_id", in.SenderID, "trigger_id", id)
		return Result{Step: StepImageSaved, Flow: triggers.KindImage, TriggerID: id, Aliases: aliases, Reply: in.Text}, true, nil

	case ModeAwaitingTextReply:
		if in.Kind != event.KindText {
			return Result{}, false, nil
		}
		e.touchLocked(s)
		result, err := e.store.InsertTextTrigger(ctx, s.pendingAliases, in.Text, in.SenderID)
		if errors.Is(err, triggers.ErrValidation) {
			return Result{Step: StepInvalid, Hint: HintEmptyReply}, true, nil
		}
		if err != nil {
			return Result{}, true, err
		}
		aliases := s.pendingAliases
		s.clearFlow()
		e.dropIfEmptyLocked(in.SenderID, s)
		e.opts.Logger.Info("conversation_text_trigger_saved",
			"sender_id", in.SenderID,
			"added", len(result.Added),
			"skipped", len(result.Skipped),
		)
		return Result{Step: StepTextSaved, Flow: triggers.KindText, Text: result, Aliases: aliases, Reply: in.Text}, true, nil
	}
	return Result{}, false, nil
}

// ListForDeletion numbers the current triggers and pins that numbering for
// the sender's next DeleteOrdinal calls. An empty listing pins nothing.
func (e *Engine) ListForDeletion(sender int64, privileged bool) Result {
	if !privileged {
		return Result{Step: StepDenied}
	}
	items, generation := e.store.ListDeletable()

	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.sessionLocked(sender, true)
	if len(items) == 0 {
		s.listing = nil
		e.dropIfEmptyLocked(sender, s)
		return Result{Step: StepListed}
	}
	s.listing = &listing{items: items, generation: generation, takenAt: e.opts.Now()}
	e.touchLocked(s)
	return Result{Step: StepListed, Items: items, MaxOrdinal: len(items)}
}

// DeleteOrdinal deletes the trigger numbered arg in the sender's pinned
// listing. A listing taken before another insert or delete is refused and
// must be refreshed.
func (e *Engine) DeleteOrdinal(ctx context.Context, sender int64, privileged bool, arg string) (Result, error) {
	if !privileged {
		return Result{Step: StepDenied}, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.sessionLocked(sender, false)
	if s == nil || s.listing == nil {
		return Result{Step: StepInvalid, Hint: HintNoListing}, nil
	}
	pinned := s.listing
	e.touchLocked(s)
	ordinal, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return Result{Step: StepInvalid, Hint: HintOrdinalNotNumber, MaxOrdinal: len(pinned.items)}, nil
	}
	if ordinal < 1 || ordinal > len(pinned.items) {
		return Result{Step: StepInvalid, Hint: HintOrdinalRange, MaxOrdinal: len(pinned.items)}, nil
	}
	if e.store.Generation() != pinned.generation {
		s.listing = nil
		e.dropIfEmptyLocked(sender, s)
		return Result{Step: StepStaleListing}, nil
	}

	item := pinned.items[ordinal-1]
	generation, err := e.store.DeleteTrigger(ctx, item.Kind, item.Key, sender)
	switch {
	case errors.Is(err, triggers.ErrNotFound):
		return Result{Step: StepNotFound, Deleted: item}, nil
	case errors.Is(err, triggers.ErrForbidden):
		return Result{Step: StepDenied}, nil
	case err != nil:
		return Result{}, err
	}
	// The listing still describes every other row, so it stays valid.
	pinned.generation = generation
	e.opts.Logger.Info("conversation_trigger_deleted",
		"sender_id", sender,
		"kind", string(item.Kind),
		"key", item.Key,
		"ordinal", ordinal,
	)
	return Result{Step: StepDeleted, Deleted: item}, nil
}

// sessionLocked returns the sender's session, expiring it when idle. With
// create set a missing session is created. A lookup is not activity; only
// input a flow consumes refreshes the idle clock (touchLocked).
func (e *Engine) sessionLocked(sender int64, create bool) *session {
	now := e.opts.Now()
	s, ok := e.sessions[sender]
	if ok && now.Sub(s.touched) > e.opts.IdleTimeout {
		if s.mode.Active() {
			e.opts.Logger.Info("conversation_expired", "sender_id", sender, "mode", string(s.mode))
		}
		delete(e.sessions, sender)
		s, ok = nil, false
	}
	if !ok {
		if !create {
			return nil
		}
		s = &session{touched: now}
		e.sessions[sender] = s
	}
	return s
}

func (e *Engine) touchLocked(s *session) {
	s.touched = e.opts.Now()
}

func (e *Engine) advanceLocked(sender int64, s *session, next Mode) {
	e.logTransition(sender, s.mode, next)
	s.mode = next
}

func (e *Engine) dropIfEmptyLocked(sender int64, s *session) {
	if s.empty() {
		delete(e.sessions, sender)
	}
}

func (e *Engine) logTransition(sender int64, from, to Mode) {
	e.opts.Logger.Debug("conversation_transition",
		"sender_id", sender,
		"from", modeName(from),
		"to", modeName(to),
	)
}

func modeName(m Mode) string {
	if m == ModeNone {
		return "none"
	}
	return string(m)
}
