//go:build unix

package kstate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFlockExclusive_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lock")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, flockExclusive(f))
	require.NoError(t, funlock(f))
	require.NoError(t, flockExclusive(f), "relock after unlock")
	require.NoError(t, funlock(f))
}

func TestFlockExclusive_SerializesHolders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lock")
	f1, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)
	defer f1.Close()
	f2, err := os.OpenFile(path, os.O_RDWR, 0)
	require.NoError(t, err)
	defer f2.Close()

	require.NoError(t, flockExclusive(f1))

	acquired := make(chan error, 1)
	go func() {
		acquired <- flockExclusive(f2)
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired the lock while the first still held it")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, funlock(f1))
	require.NoError(t, <-acquired, "second holder proceeds once the lock is released")
	require.NoError(t, funlock(f2))
}

func TestFlockExclusive_BadFd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lock")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	require.NoError(t, err)
	f.Close()

	require.Error(t, flockExclusive(f))
}
