package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatch(t *testing.T, path string, onChange func()) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	w := New(path, onChange, zerolog.Nop()).WithDebounce(50 * time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	})

	// let the watch register before the test writes
	time.Sleep(100 * time.Millisecond)
	return cancel
}

func TestWatchCoalescesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "oui.yaml")
	require.NoError(t, os.WriteFile(path, []byte("vendors: {}\n"), 0o644))

	var calls atomic.Int32
	startWatch(t, path, func() { calls.Add(1) })

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("vendors: {}\n"), 0o644))
	}

	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestWatchIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "oui.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	var calls atomic.Int32
	startWatch(t, path, func() { calls.Add(1) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o644))
	time.Sleep(300 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestWatchSeesAtomicReplace(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "oui.yaml")
	require.NoError(t, os.WriteFile(path, []byte("vendors: {}\n"), 0o644))

	var calls atomic.Int32
	startWatch(t, path, func() { calls.Add(1) })

	tmp := filepath.Join(dir, ".oui.yaml.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte("vendors:\n  \"00:1B:54\": Cisco\n"), 0o644))
	require.NoError(t, os.Rename(tmp, path))

	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatchMissingDirectory(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "nope", "oui.yaml"), func() {}, zerolog.Nop())
	assert.Error(t, w.Watch(context.Background()))
}
