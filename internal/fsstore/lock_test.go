package fsstore

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestDirLockRunsCriticalSection(t *testing.T) {
	t.Parallel()

	lock, err := NewDirLock(t.TempDir(), "triggers.tables")
	if err != nil {
		t.Fatalf("NewDirLock() error = %v", err)
	}

	called := false
	err = lock.Do(context.Background(), func() error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if !called {
		t.Fatalf("Do() did not run critical section")
	}

	h, err := lock.ReadHolder()
	if err != nil {
		t.Fatalf("ReadHolder() error = %v", err)
	}
	if h.PID != os.Getpid() || h.AcquiredAt.IsZero() {
		t.Fatalf("ReadHolder() = %#v, want this process", h)
	}
}

func TestDirLockPropagatesError(t *testing.T) {
	t.Parallel()

	lock, err := NewDirLock(t.TempDir(), "triggers.tables")
	if err != nil {
		t.Fatalf("NewDirLock() error = %v", err)
	}
	boom := errors.New("boom")
	if err := lock.Do(context.Background(), func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("Do() error = %v, want %v", err, boom)
	}
}

func TestDirLockTimesOutWhileHeld(t *testing.T) {
	t.Parallel()

	lock, err := NewDirLock(t.TempDir(), "triggers.tables")
	if err != nil {
		t.Fatalf("NewDirLock() error = %v", err)
	}

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- lock.Do(context.Background(), func() error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	err = lock.Do(ctx, func() error { return nil })
	close(release)
	if !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("Do() error = %v, want ErrLockTimeout", err)
	}
	if !strings.Contains(err.Error(), "pid "+strconv.Itoa(os.Getpid())) {
		t.Fatalf("Do() error = %v, want holder pid", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("holder Do() error = %v", err)
	}
}
