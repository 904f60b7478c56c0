// Package singleinstance implements the Single-Instance Gate (C7): a
// process-wide lock that makes a second agent launch exit quietly rather
// than run two mediators against the same clipboard (base spec §4.7).
package singleinstance

import (
	"os"
	"strconv"
	"strings"
)

// Gate acquires a system-level lock for the agent's lifetime.
type Gate interface {
	// Acquire returns (true, nil) if this process holds the lock, (false,
	// nil) if another instance already holds it, or a non-nil error for an
	// unexpected failure to even attempt the lock.
	Acquire() (bool, error)

	// Release gives up the lock. Safe to call even if Acquire returned
	// false.
	Release() error
}

// pidPath is the sidecar file a successful Acquire writes the holder's PID
// into, so a later process (`--remove`) can find and terminate it — the
// platform lock primitives (flock, a named mutex) do not themselves expose
// the holder's PID to an unrelated process.
func pidPath(lockPath string) string {
	return lockPath + ".pid"
}

func writeOwnerPID(lockPath string) {
	_ = os.WriteFile(pidPath(lockPath), []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func removeOwnerPID(lockPath string) {
	os.Remove(pidPath(lockPath))
}

// OwnerPID reads the PID recorded by whichever process last acquired the
// lock at lockPath. It returns false if no PID file exists or its contents
// are not a valid PID — callers treat that as "nothing to terminate", not
// as an error.
func OwnerPID(lockPath string) (int, bool) {
	data, err := os.ReadFile(pidPath(lockPath))
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}
