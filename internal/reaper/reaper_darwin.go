//go:build darwin

package reaper

import (
	"os/exec"
	"strconv"
	"strings"
	"syscall"
)

// psScanner shells out to `ps` for the process table, since macOS has no
// /proc filesystem and this agent avoids a cgo libproc binding.
type psScanner struct{}

// NewScanner returns the Darwin process Scanner.
func NewScanner() Scanner { return psScanner{} }

func (psScanner) List() ([]ProcessInfo, error) {
	out, err := exec.Command("ps", "-axo", "pid=,comm=").Output()
	if err != nil {
		return nil, err
	}
	argv0s := argv0ByPID()

	var procs []ProcessInfo
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, " ", 2)
		if len(fields) != 2 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		// macOS's `comm=` reports the full executable path, unlike Linux's
		// truncated /proc/<pid>/comm, so it doubles as Path here.
		path := fields[1]
		name := path
		if idx := strings.LastIndex(name, "/"); idx >= 0 {
			name = name[idx+1:]
		}
		procs = append(procs, ProcessInfo{PID: pid, Name: name, Path: path, Argv0: argv0s[pid]})
	}
	return procs, nil
}

// argv0ByPID shells out to `ps` a second time with the full argument
// string, since `comm=` alone never reports argv[0] when it differs from
// the executable (e.g. a script run as `python sharex_clone.py`).
func argv0ByPID() map[int]string {
	out, err := exec.Command("ps", "-axo", "pid=,args=").Output()
	if err != nil {
		return nil
	}
	argv0 := make(map[int]string)
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, " ", 2)
		if len(fields) != 2 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil {
			continue
		}
		if toks := strings.Fields(fields[1]); len(toks) > 0 {
			argv0[pid] = toks[0]
		}
	}
	return argv0
}

type sigKiller struct{}

// NewKiller returns the Darwin process Killer.
func NewKiller() Killer { return sigKiller{} }

func (sigKiller) Kill(pid int) error {
	return syscall.Kill(pid, syscall.SIGKILL)
}
