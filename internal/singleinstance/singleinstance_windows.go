//go:build windows

package singleinstance

import (
	"fmt"
	"strings"
	"syscall"

	"golang.org/x/sys/windows"
)

// mutexGate holds a named Win32 mutex for the agent's process lifetime. path
// also names a PID sidecar file (see pidPath), since a named mutex alone
// does not expose its holder's PID to another process.
type mutexGate struct {
	mutexName string
	path      string
	handle    windows.Handle
}

// New returns a Gate backed by a named Win32 mutex. path is turned into a
// Global\ mutex name so the check holds across user sessions, matching the
// original Windows agent's single-instance intent, and doubles as the path
// the PID sidecar file is written alongside. The path's backslashes are
// replaced with '/', since a kernel object name may not contain a backslash
// after its namespace prefix.
func New(path string) Gate {
	return &mutexGate{mutexName: `Global\` + strings.ReplaceAll(path, `\`, `/`), path: path}
}

func (g *mutexGate) Acquire() (bool, error) {
	namePtr, err := syscall.UTF16PtrFromString(g.mutexName)
	if err != nil {
		return false, err
	}
	handle, err := windows.CreateMutex(nil, false, namePtr)
	if handle == 0 {
		return false, fmt.Errorf("CreateMutex failed: %w", err)
	}
	if err == windows.ERROR_ALREADY_EXISTS {
		windows.CloseHandle(handle)
		return false, nil
	}
	g.handle = handle
	writeOwnerPID(g.path)
	return true, nil
}

func (g *mutexGate) Release() error {
	if g.handle == 0 {
		return nil
	}
	removeOwnerPID(g.path)
	return windows.CloseHandle(g.handle)
}

// TerminateProcess stops pid, the mechanism `--remove` uses to stop another
// running agent instance found via OwnerPID.
func TerminateProcess(pid int) error {
	handle, err := windows.OpenProcess(windows.PROCESS_TERMINATE, false, uint32(pid))
	if err != nil {
		return fmt.Errorf("OpenProcess failed: %w", err)
	}
	defer windows.CloseHandle(handle)
	return windows.TerminateProcess(handle, 1)
}
