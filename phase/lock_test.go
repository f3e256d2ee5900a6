package phase

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLockAndUnlock(t *testing.T) {
	m, _ := newTestManager(t)
	lock := &Lock{Path: filepath.Join(t.TempDir(), "eggs.lock")}
	runPhase(t, m, lock)
	require.Equal(t, strconv.Itoa(os.Getpid()), readFile(t, "/", lock.Path))

	runPhase(t, m, lock.UnlockPhase())
	_, err := os.Stat(lock.Path)
	require.True(t, os.IsNotExist(err))
}

func TestLockHeldByRunningInstance(t *testing.T) {
	m, _ := newTestManager(t)
	path := filepath.Join(t.TempDir(), "eggs.lock")
	require.NoError(t, os.WriteFile(path, []byte("4242\n"), 0o644))
	writeFile(t, m.Root, "/proc/4242/status", "Name: eggs")

	lock := &Lock{Path: path}
	require.NoError(t, lock.Prepare(m))
	require.ErrorContains(t, lock.Run(), "another instance of eggs (pid 4242)")

	// a failed lock must not remove the file of the other instance
	lock.Cancel()
	require.FileExists(t, path)
}

func TestLockRemovesStaleFile(t *testing.T) {
	m, _ := newTestManager(t)
	path := filepath.Join(t.TempDir(), "eggs.lock")
	require.NoError(t, os.WriteFile(path, []byte("4242\n"), 0o644))

	lock := &Lock{Path: path}
	runPhase(t, m, lock)
	require.Equal(t, strconv.Itoa(os.Getpid()), readFile(t, "/", path))
}
