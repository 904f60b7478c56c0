// Package reaper implements the Screenshot/Capture Tool Reaper (C6): a
// periodic scan that terminates any running process matching
// policy.BannedProcesses by name, executable path, or argv[0] (excluding
// well-known script interpreters from argv[0] substring matching), plus —
// on Windows — any process owning a visible top-level window whose title
// matches policy.BannedWindowTitles (base spec §4.6).
package reaper

import (
	"context"
	"strings"
	"time"

	"github.com/siguna/dlpagent/internal/policy"
	"go.uber.org/zap"
)

// ProcessInfo is the per-process data the reaper needs, sourced differently
// per platform (Linux: /proc scan; Darwin: ps shell-out; Windows: toolhelp
// snapshot + EnumWindows). Path and Argv0 are best-effort: a platform leaves
// a field empty rather than erroring when it cannot be read, and IsBanned
// treats an empty field as "no match" for it. Title is populated only on
// Windows, for top-level windows owned by the process (base spec §4.6).
type ProcessInfo struct {
	PID   int
	Name  string
	Path  string
	Argv0 string
	Title string
}

// Scanner lists currently running processes.
type Scanner interface {
	List() ([]ProcessInfo, error)
}

// Killer terminates a process by PID.
type Killer interface {
	Kill(pid int) error
}

// Reaper runs the periodic scan-and-kill loop.
type Reaper struct {
	scanner  Scanner
	killer   Killer
	interval time.Duration
	logger   *zap.Logger
}

// New builds a Reaper. interval is clamped to the minimum the spec allows
// (500ms, base spec §4.6) if smaller.
func New(scanner Scanner, killer Killer, interval time.Duration, logger *zap.Logger) *Reaper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval < 500*time.Millisecond {
		interval = 500 * time.Millisecond
	}
	return &Reaper{scanner: scanner, killer: killer, interval: interval, logger: logger}
}

// Run blocks, scanning every interval until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.scanOnce()
		}
	}
}

// scanOnce lists processes and kills any banned match, logging failures
// but never stopping the loop on a single kill failure.
func (r *Reaper) scanOnce() {
	procs, err := r.scanner.List()
	if err != nil {
		r.logger.Debug("process scan failed", zap.Error(err))
		return
	}
	for _, p := range procs {
		if !IsBanned(p) {
			continue
		}
		if err := r.killer.Kill(p.PID); err != nil {
			r.logger.Warn("failed to terminate banned process",
				zap.String("name", p.Name), zap.Int("pid", p.PID), zap.Error(err))
			continue
		}
		r.logger.Info("terminated banned screen-capture process",
			zap.String("name", p.Name), zap.Int("pid", p.PID))
	}
}

// IsBanned reports whether p matches policy.BannedProcesses by executable
// name, executable path, or argv[0], or (Windows only) policy.
// BannedWindowTitles by the title of a top-level window it owns (base spec
// §4.6: "matching against executable name, executable path, or argv[0]").
// Well-known script interpreters are excluded from argv[0] matching only —
// Name/Path matching is never skipped for them — since argv[0] is where the
// offending script shows up ("python sharex_clone.py"), while Name/Path
// would only ever identify the shared, legitimate interpreter binary.
func IsBanned(p ProcessInfo) bool {
	if matchesBanned(p.Name) || matchesBanned(p.Path) {
		return true
	}
	if p.Argv0 != "" && !policy.IsInterpreter(strings.ToLower(baseName(p.Argv0))) && matchesBanned(p.Argv0) {
		return true
	}
	if p.Title != "" && policy.IsBannedTitle(p.Title) {
		return true
	}
	return false
}

func matchesBanned(s string) bool {
	if s == "" {
		return false
	}
	base := strings.ToLower(s)
	for _, banned := range policy.BannedProcesses {
		if strings.Contains(base, strings.ToLower(banned)) {
			return true
		}
	}
	return false
}

// baseName strips a leading directory component from either a Unix or
// Windows-style path, since argv[0] may carry either separator depending on
// how the process was launched.
func baseName(path string) string {
	if idx := strings.LastIndexAny(path, `/\`); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
