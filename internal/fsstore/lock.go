package fsstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	lockDirName   = ".fslocks"
	lockRetryWait = 25 * time.Millisecond
)

var lockNameRE = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9._-]{0,118}[a-z0-9])?$`)

// DirLock is an exclusive lock shared by every process using the same data
// directory. The lock file lives in root/.fslocks/<name>.lck.
type DirLock struct {
	path string
}

// Holder is what the lock owner writes into the lock file.
type Holder struct {
	PID        int       `json:"pid"`
	Hostname   string    `json:"hostname,omitempty"`
	Program    string    `json:"program,omitempty"`
	AcquiredAt time.Time `json:"acquired_at"`
}

func NewDirLock(root, name string) (DirLock, error) {
	root, err := cleanPath(root)
	if err != nil {
		return DirLock{}, err
	}
	name = strings.TrimSpace(name)
	if !lockNameRE.MatchString(name) || strings.Contains(name, "..") {
		return DirLock{}, fmt.Errorf("%w: lock name %q", ErrInvalidPath, name)
	}
	return DirLock{path: filepath.Join(root, lockDirName, name+".lck")}, nil
}

func (l DirLock) Path() string { return l.path }

// Do runs fn while holding the lock. Waiting is bounded by ctx; a timeout
// error names the current holder when the lock file says who it is.
func (l DirLock) Do(ctx context.Context, fn func() error) error {
	if l.path == "" {
		return fmt.Errorf("%w: zero DirLock", ErrInvalidPath)
	}
	if fn == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := EnsureDir(filepath.Dir(l.path), defaultDirPerm); err != nil {
		return err
	}
	return withLockFile(ctx, l.path, fn)
}

// ReadHolder reports the last owner recorded in the lock file.
func (l DirLock) ReadHolder() (Holder, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return Holder{}, err
	}
	var h Holder
	if err := json.Unmarshal(data, &h); err != nil {
		return Holder{}, fmt.Errorf("%w: lock holder %s: %v", ErrDecodeFailed, l.path, err)
	}
	return h, nil
}

func writeLockHolder(file *os.File, lockPath string) {
	host, _ := os.Hostname()
	data, err := json.Marshal(Holder{
		PID:        os.Getpid(),
		Hostname:   host,
		Program:    filepath.Base(os.Args[0]),
		AcquiredAt: time.Now().UTC(),
	})
	if err != nil {
		return
	}
	_ = file.Truncate(0)
	_, _ = file.WriteAt(append(data, '\n'), 0)
}

func waitForLockRetry(ctx context.Context, lockPath string) error {
	timer := time.NewTimer(lockRetryWait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
	}
	if h, err := (DirLock{path: lockPath}).ReadHolder(); err == nil && h.PID != 0 {
		return fmt.Errorf("%w: %s held by pid %d on %s since %s: %v",
			ErrLockTimeout, lockPath, h.PID, h.Hostname, h.AcquiredAt.Format(time.RFC3339), ctx.Err())
	}
	return fmt.Errorf("%w: %s: %v", ErrLockTimeout, lockPath, ctx.Err())
}
