package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/HUSSAIN3DEL/telegram-bot-hussain/event"
	runtimeworker "github.com/HUSSAIN3DEL/telegram-bot-hussain/internal/channelruntime/worker"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/internal/outputfmt"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/internal/telegramapi"
)

// API is the part of the Bot API the loop uses.
type API interface {
	GetMe(ctx context.Context) (telegramapi.User, error)
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegramapi.Update, int64, error)
	SendText(ctx context.Context, chatID int64, text, markdown string, disablePreview bool, replyTo int64) error
}

type Handler interface {
	Handle(ctx context.Context, in event.Inbound) []event.Reply
}

type Dependencies struct {
	API     API
	Handler Handler
	Logger  *slog.Logger
}

// Run polls for updates until ctx is canceled. Events of one sender are
// always handled in arrival order; with MaxConcurrency above one, different
// senders are handled in parallel.
func Run(ctx context.Context, d Dependencies, opts RunOptions) error {
	if d.API == nil {
		return fmt.Errorf("telegram api is required")
	}
	if d.Handler == nil {
		return fmt.Errorf("telegram handler is required")
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	opts = normalizeRunOptions(opts)

	me, err := d.API.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("telegram getMe: %w", err)
	}
	botUser := me.Username
	logger.Info("telegram_start",
		"bot_id", me.ID,
		"bot_username", botUser,
		"poll_timeout", opts.PollTimeout.String(),
		"max_concurrency", opts.MaxConcurrency,
		"attachment_key", opts.AttachmentKey,
	)

	process := func(workerCtx context.Context, in event.Inbound) {
		deliver(workerCtx, d.API, logger, in, d.Handler.Handle(workerCtx, in))
	}

	var workers *runtimeworker.Pool[int64, event.Inbound]
	if opts.MaxConcurrency > 1 {
		workers = runtimeworker.NewPool[int64, event.Inbound](ctx, runtimeworker.PoolOptions[event.Inbound]{
			MaxConcurrency: opts.MaxConcurrency,
			QueueSize:      opts.QueueSize,
			IdleAfter:      opts.WorkerIdle,
			Handle:         process,
		})
		defer workers.Close()
	}

	var offset int64
	for {
		updates, nextOffset, err := d.API.GetUpdates(ctx, offset, opts.PollTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				logger.Info("telegram_stop", "reason", "context_canceled")
				return nil
			}
			if telegramapi.IsPollTimeoutError(err) {
				logger.Debug("telegram_get_updates_timeout", "error", outputfmt.FormatErrorForDisplay(err))
			} else {
				logger.Warn("telegram_get_updates_error", "error", outputfmt.FormatErrorForDisplay(err))
			}
			if !sleepOrDone(ctx, time.Second) {
				logger.Info("telegram_stop", "reason", "context_canceled")
				return nil
			}
			continue
		}
		offset = nextOffset

		for _, u := range updates {
			in, ok := EventFromUpdate(u, botUser, opts.AttachmentKey)
			if !ok {
				logger.Debug("telegram_update_skipped", "update_id", u.UpdateID)
				continue
			}
			if workers == nil {
				process(ctx, in)
				continue
			}
			if err := workers.Submit(ctx, in.SenderID, in); err != nil {
				logger.Info("telegram_stop", "reason", "context_canceled")
				return nil
			}
		}
	}
}

func deliver(ctx context.Context, api API, logger *slog.Logger, in event.Inbound, replies []event.Reply) {
	for _, r := range replies {
		if r.Empty() {
			continue
		}
		if err := api.SendText(ctx, in.ChatID, r.Text, r.Markdown, r.DisablePreview, r.ReplyTo); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("telegram_send_error",
				"chat_id", in.ChatID,
				"reply_to", r.ReplyTo,
				"error", outputfmt.FormatErrorForDisplay(err),
			)
		}
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
