package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// InstanceLock provides cross-process locking on the devseek data directory
// using gofrs/flock. The serve command holds it so two server instances
// never share one telemetry database and log file. Works on all platforms
// (Unix, Linux, macOS, Windows).
type InstanceLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewInstanceLock creates a lock for the given data directory. The lock
// file is created at <dir>/.serve.lock.
func NewInstanceLock(dir string) *InstanceLock {
	lockPath := filepath.Join(dir, ".serve.lock")
	return &InstanceLock{
		path:  lockPath,
		flock: flock.New(lockPath),
	}
}

// TryLock attempts to acquire the lock without blocking.
// Returns true if the lock was acquired, false if another process holds it.
func (l *InstanceLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}

	if acquired {
		l.locked = true
	}
	return acquired, nil
}

// Unlock releases the lock. Safe to call multiple times or on an unlocked
// InstanceLock.
func (l *InstanceLock) Unlock() error {
	if !l.locked {
		return nil
	}

	if err := l.flock.Unlock(); err != nil {
		l.locked = false
		return fmt.Errorf("failed to release lock: %w", err)
	}

	l.locked = false
	return nil
}

// Path returns the path to the lock file.
func (l *InstanceLock) Path() string {
	return l.path
}

// IsLocked returns true if this process currently holds the lock.
func (l *InstanceLock) IsLocked() bool {
	return l.locked
}
