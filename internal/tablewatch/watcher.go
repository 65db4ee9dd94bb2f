// Package tablewatch reloads the trigger tables when they are edited on
// disk while the bot runs.
package tablewatch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/HUSSAIN3DEL/telegram-bot-hussain/internal/outputfmt"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/triggers"
	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 100 * time.Millisecond

type Reloader interface {
	Reload(ctx context.Context) (bool, error)
}

type Options struct {
	Debounce time.Duration
	Logger   *slog.Logger
}

type Watcher struct {
	dir      string
	reloader Reloader
	opts     Options
	watcher  *fsnotify.Watcher
}

func New(dir string, reloader Reloader, opts Options) (*Watcher, error) {
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{dir: dir, reloader: reloader, opts: opts, watcher: w}, nil
}

// Run blocks until ctx is done. Bursts of events are collapsed into one
// reload after the debounce interval.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	w.opts.Logger.Info("tablewatch_start", "dir", w.dir, "debounce", w.opts.Debounce.String())

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 || !isTableFile(ev.Name) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
			} else {
				timer.Reset(w.opts.Debounce)
			}
			timerCh = timer.C
		case <-timerCh:
			timerCh = nil
			w.reload(ctx)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.opts.Logger.Warn("tablewatch_error", "error", outputfmt.FormatErrorForDisplay(err))
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	changed, err := w.reloader.Reload(ctx)
	if err != nil {
		w.opts.Logger.Warn("tablewatch_reload_failed", "error", outputfmt.FormatErrorForDisplay(err))
		return
	}
	if changed {
		w.opts.Logger.Info("tablewatch_reloaded", "dir", w.dir)
	}
}

func isTableFile(path string) bool {
	switch filepath.Base(path) {
	case triggers.ImageTriggersFile, triggers.TextTriggersFile, triggers.SendersFile, triggers.StatsFile:
		return true
	}
	return false
}
