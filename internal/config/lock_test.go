package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceLock_TryLockUnlock(t *testing.T) {
	// Given: a lock on a fresh data directory
	dir := t.TempDir()
	lock := NewInstanceLock(dir)

	// When: acquiring the lock
	acquired, err := lock.TryLock()

	// Then: it succeeds and the lock file exists
	require.NoError(t, err)
	assert.True(t, acquired)
	assert.True(t, lock.IsLocked())

	_, err = os.Stat(lock.Path())
	require.NoError(t, err, "lock file should be created")

	require.NoError(t, lock.Unlock())
	assert.False(t, lock.IsLocked())
}

func TestInstanceLock_SecondHolderRejected(t *testing.T) {
	// Given: a held lock
	dir := t.TempDir()
	first := NewInstanceLock(dir)
	acquired, err := first.TryLock()
	require.NoError(t, err)
	require.True(t, acquired)
	defer func() { _ = first.Unlock() }()

	// When: a second lock on the same directory tries to acquire
	second := NewInstanceLock(dir)
	acquired, err = second.TryLock()

	// Then: the attempt is refused without error
	require.NoError(t, err)
	assert.False(t, acquired)
	assert.False(t, second.IsLocked())
}

func TestInstanceLock_ReleasedLockReacquirable(t *testing.T) {
	// Given: a lock that was acquired and released
	dir := t.TempDir()
	first := NewInstanceLock(dir)
	acquired, err := first.TryLock()
	require.NoError(t, err)
	require.True(t, acquired)
	require.NoError(t, first.Unlock())

	// When: another lock tries the same directory
	second := NewInstanceLock(dir)
	acquired, err = second.TryLock()

	// Then: it succeeds
	require.NoError(t, err)
	assert.True(t, acquired)
	require.NoError(t, second.Unlock())
}

func TestInstanceLock_UnlockWithoutLock(t *testing.T) {
	// Given: a lock that was never acquired
	lock := NewInstanceLock(t.TempDir())

	// When/Then: Unlock is a no-op, repeatedly
	require.NoError(t, lock.Unlock())
	require.NoError(t, lock.Unlock())
}

func TestInstanceLock_CreatesMissingDirectory(t *testing.T) {
	// Given: a data directory that does not exist yet
	dir := filepath.Join(t.TempDir(), "nested", ".devseek")
	lock := NewInstanceLock(dir)

	// When: acquiring the lock
	acquired, err := lock.TryLock()

	// Then: the directory is created on the way
	require.NoError(t, err)
	assert.True(t, acquired)
	require.NoError(t, lock.Unlock())
}
