package profiling

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func profileSize(t *testing.T, path string) int64 {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info.Size()
}

func TestProfiler_StartCPU(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cpu.prof")

	stop, err := NewProfiler().StartCPU(path)
	require.NoError(t, err)

	// Burn some cycles so the profile has samples to flush.
	sum := 0
	for i := 0; i < 1_000_000; i++ {
		sum += i
	}
	_ = sum

	stop()
	assert.Greater(t, profileSize(t, path), int64(0))
}

func TestProfiler_StartCPU_BadPath(t *testing.T) {
	_, err := NewProfiler().StartCPU(filepath.Join(t.TempDir(), "missing", "cpu.prof"))
	assert.Error(t, err)
}

func TestProfiler_StartTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.out")

	stop, err := NewProfiler().StartTrace(path)
	require.NoError(t, err)
	stop()

	assert.Greater(t, profileSize(t, path), int64(0))
}

func TestProfiler_WriteHeap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.prof")

	require.NoError(t, NewProfiler().WriteHeap(path))
	assert.Greater(t, profileSize(t, path), int64(0))
}
