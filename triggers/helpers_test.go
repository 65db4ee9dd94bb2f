package triggers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/HUSSAIN3DEL/telegram-bot-hussain/internal/retryutil"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func testOptions(clock *fakeClock) Options {
	next := 0
	return Options{
		Now: clock.Now,
		NewID: func() string {
			next++
			return fmt.Sprintf("img_%03d", next)
		},
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		RetryPolicy: retryutil.Policy{Delay: time.Hour, Attempts: 1},
	}
}

func newTestStore(t *testing.T) (*FileStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewFileStore(t.TempDir(), testOptions(clock))
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return store, clock
}

func seedSender(t *testing.T, store *FileStore, id int64, privileged bool) SenderProfile {
	t.Helper()
	profile, err := store.UpsertSender(context.Background(), Observation{
		ID:          id,
		DisplayName: fmt.Sprintf("sender-%d", id),
		Privileged:  privileged,
	})
	if err != nil {
		t.Fatalf("UpsertSender(%d) error = %v", id, err)
	}
	return profile
}

func writeDoc(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile(%s) error = %v", name, err)
	}
}
