package docsets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// ErrLockTimeout indicates the lock acquisition timed out.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// RefreshLock serializes artifact refresh across processes sharing a base
// directory, using flock(2). The kernel releases the lock automatically if
// the holder crashes.
type RefreshLock struct {
	path string
	file *os.File
}

// NewRefreshLock creates a lock backed by the given file path.
func NewRefreshLock(path string) *RefreshLock {
	return &RefreshLock{path: path}
}

// TryAcquire attempts to take the lock without blocking. Returns true if
// this process now holds it, false if another process does.
func (l *RefreshLock) TryAcquire() (bool, error) {
	if err := l.open(); err != nil {
		return false, err
	}

	err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err == nil {
		return true, nil
	}

	_ = l.file.Close()
	l.file = nil
	if errors.Is(err, syscall.EWOULDBLOCK) {
		return false, nil
	}
	return false, fmt.Errorf("flock failed: %w", err)
}

// Await blocks until the lock becomes available or the timeout expires,
// then holds it. Returns ErrLockTimeout on expiry.
func (l *RefreshLock) Await(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	pollInterval := 10 * time.Millisecond

	for {
		acquired, err := l.TryAcquire()
		if err != nil {
			return err
		}
		if acquired {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrLockTimeout
		}

		time.Sleep(pollInterval)
		// Back off up to half a second between attempts.
		pollInterval = min(pollInterval*2, 500*time.Millisecond)
	}
}

// Release drops the lock. Safe to call when the lock is not held.
func (l *RefreshLock) Release() error {
	if l.file == nil {
		return nil
	}

	err := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil

	if err != nil {
		return fmt.Errorf("flock unlock failed: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("close failed: %w", closeErr)
	}
	return nil
}

// Held reports whether this instance currently holds the lock.
func (l *RefreshLock) Held() bool {
	return l.file != nil
}

func (l *RefreshLock) open() error {
	if l.file != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("failed to open lock file: %w", err)
	}
	l.file = file
	return nil
}
