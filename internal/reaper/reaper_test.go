package reaper_test

import (
	"context"
	"testing"
	"time"

	"github.com/siguna/dlpagent/internal/reaper"
	"github.com/stretchr/testify/assert"
)

func TestIsBannedMatchesSubstring(t *testing.T) {
	assert.True(t, reaper.IsBanned(reaper.ProcessInfo{Name: "obs64.exe"}))
	assert.True(t, reaper.IsBanned(reaper.ProcessInfo{Name: "ShareX.exe"}))
	assert.False(t, reaper.IsBanned(reaper.ProcessInfo{Name: "chrome.exe"}))
}

func TestIsBannedExcludesInterpreters(t *testing.T) {
	assert.False(t, reaper.IsBanned(reaper.ProcessInfo{Name: "node"}))
	assert.False(t, reaper.IsBanned(reaper.ProcessInfo{Name: "python3"}))
}

func TestIsBannedMatchesExecutablePath(t *testing.T) {
	assert.True(t, reaper.IsBanned(reaper.ProcessInfo{Name: "app.exe", Path: `C:\Tools\ShareX\app.exe`}))
}

func TestIsBannedMatchesArgv0ButExcludesInterpreterArgv0(t *testing.T) {
	assert.True(t, reaper.IsBanned(reaper.ProcessInfo{Name: "python3.10", Argv0: "sharex_clone.py"}))
	assert.False(t, reaper.IsBanned(reaper.ProcessInfo{Name: "python3.10", Argv0: "python3"}))
}

func TestIsBannedMatchesWindowTitle(t *testing.T) {
	assert.True(t, reaper.IsBanned(reaper.ProcessInfo{Name: "ScreenClipHost.exe", Title: "Snipping Tool"}))
	assert.False(t, reaper.IsBanned(reaper.ProcessInfo{Name: "explorer.exe", Title: "File Explorer"}))
}

func TestRunKillsBannedProcesses(t *testing.T) {
	scanner := &reaper.FakeScanner{Procs: []reaper.ProcessInfo{
		{PID: 100, Name: "obs64.exe"},
		{PID: 200, Name: "chrome.exe"},
		{PID: 300, Name: "sharex"},
	}}
	killer := &reaper.FakeKiller{}
	// New clamps the interval to the spec's 500ms floor (base spec §4.6),
	// so the test waits just past one tick of that floor.
	r := reaper.New(scanner, killer, 10*time.Millisecond, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 650*time.Millisecond)
	defer cancel()
	r.Run(ctx)

	assert.Contains(t, killer.Killed, 100)
	assert.Contains(t, killer.Killed, 300)
	assert.NotContains(t, killer.Killed, 200)
}
