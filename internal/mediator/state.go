// Package mediator implements the Clipboard Mediator (C8, core) and the
// Browser Watchdog (C9), which share a single locked Mediator State per
// base spec §3/§4.8/§4.9. The two components are implemented in one
// package because the watchdog reads and mutates the same state struct the
// mediator owns; splitting them would force watchdog to reach into
// mediator's unexported fields across a package boundary for no benefit.
package mediator

import (
	"time"

	"github.com/siguna/dlpagent/internal/fingerprint"
	"github.com/siguna/dlpagent/internal/model"
)

// mediatorState is the single shared instance described in base spec §3.
// All access goes through Mediator.mu.
type mediatorState struct {
	heldItem        *model.Item
	heldFingerprint fingerprint.Fingerprint
	safeFingerprint fingerprint.Fingerprint
	verdict         model.Verdict

	currentApp string
	sourceApp  string

	browserAllowed bool
	watchdogActive bool

	// consecutiveAllowedSince is when browser_allowed most recently became
	// true with held_item still set; zero while not counting. Used by the
	// watchdog's ~5s sustained-allow drop (base spec §4.9).
	consecutiveAllowedSince time.Time

	lastClipboardFingerprint fingerprint.QuickHash

	warnedFingerprints map[fingerprint.Fingerprint]bool
	warningInflight    map[fingerprint.Fingerprint]bool
}

func newMediatorState() *mediatorState {
	return &mediatorState{
		warnedFingerprints: make(map[fingerprint.Fingerprint]bool),
		warningInflight:    make(map[fingerprint.Fingerprint]bool),
	}
}

func (s *mediatorState) clearHeld() {
	s.heldItem = nil
	s.heldFingerprint = ""
	s.verdict = model.VerdictUnknown
}
