//go:build darwin || linux

package singleinstance_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/siguna/dlpagent/internal/singleinstance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecondAcquireFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dlpagent.lock")

	first := singleinstance.New(path)
	ok, err := first.Acquire()
	require.NoError(t, err)
	require.True(t, ok)
	defer first.Release()

	second := singleinstance.New(path)
	ok2, err := second.Acquire()
	require.NoError(t, err)
	assert.False(t, ok2, "a second gate on the same lock file must not acquire")
}

func TestOwnerPIDReflectsAcquiringProcess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dlpagent.lock")

	gate := singleinstance.New(path)
	ok, err := gate.Acquire()
	require.NoError(t, err)
	require.True(t, ok)
	defer gate.Release()

	pid, found := singleinstance.OwnerPID(path)
	assert.True(t, found)
	assert.Equal(t, os.Getpid(), pid)
}

func TestOwnerPIDNotFoundWithoutALock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dlpagent.lock")

	_, found := singleinstance.OwnerPID(path)
	assert.False(t, found)
}

func TestReleaseThenReacquire(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dlpagent.lock")

	first := singleinstance.New(path)
	ok, err := first.Acquire()
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, first.Release())

	second := singleinstance.New(path)
	ok2, err := second.Acquire()
	require.NoError(t, err)
	assert.True(t, ok2, "after Release, a new gate must be able to acquire")
	second.Release()
}
