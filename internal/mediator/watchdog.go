package mediator

import (
	"context"
	"time"

	"github.com/siguna/dlpagent/internal/fingerprint"
	"github.com/siguna/dlpagent/internal/model"
	"github.com/siguna/dlpagent/internal/policy"
	"go.uber.org/zap"
)

// startWatchdogLocked starts the Browser Watchdog (C9) for appName if one
// isn't already running. Caller holds m.mu.
func (m *Mediator) startWatchdogLocked(appName string) {
	if m.state.watchdogActive {
		return
	}
	m.state.watchdogActive = true
	m.state.browserAllowed = false
	m.state.consecutiveAllowedSince = time.Time{}

	ctx, cancel := context.WithCancel(m.rootCtx)
	m.watchdogCancel = cancel
	m.watchdogWG.Add(1)
	go func() {
		defer m.watchdogWG.Done()
		m.runWatchdog(ctx, appName)
	}()
}

// stopWatchdogLocked signals any running watchdog to exit. Caller holds
// m.mu. Per base spec §4.9, "only one watchdog instance at a time" and it
// "terminates on app-switch."
func (m *Mediator) stopWatchdogLocked() {
	if m.watchdogCancel != nil {
		m.watchdogCancel()
		m.watchdogCancel = nil
	}
	m.state.watchdogActive = false
}

func (m *Mediator) runWatchdog(ctx context.Context, appName string) {
	tick := m.cfg.WatchdogTickInterval
	if tick <= 0 {
		tick = 150 * time.Millisecond
	}
	idle := m.cfg.WatchdogIdleInterval
	if idle <= 0 {
		idle = 300 * time.Millisecond
	}
	grace := m.cfg.BrowserAllowGrace
	if grace <= 0 {
		grace = 5 * time.Second
	}
	probeTimeout := m.cfg.URLProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = 300 * time.Millisecond
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.clock.After(tick):
		}

		if m.watchdogStep(ctx, appName, probeTimeout, grace) {
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-m.clock.After(idle):
		}
	}
}

// watchdogStep runs one iteration of base spec §4.9's loop body. It returns
// true if held_item is present (caller should tick again at the short
// interval) and false if idle sleep is warranted.
func (m *Mediator) watchdogStep(ctx context.Context, appName string, probeTimeout, grace time.Duration) bool {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	url, err := m.prober.CurrentURL(probeCtx, appName, "")
	cancel()

	allowed := false
	if err != nil {
		m.logger.Debug("browser URL probe failed, treating as untrusted", zap.Error(err))
	} else {
		allowed = policy.IsAllowedDomain(url)
	}

	m.mu.Lock()
	if !m.state.watchdogActive {
		m.mu.Unlock()
		return false
	}
	m.state.browserAllowed = allowed
	m.mu.Unlock()

	qh := m.clipboard.FingerprintCurrent()
	m.mu.Lock()
	changed := qh != m.state.lastClipboardFingerprint
	m.state.lastClipboardFingerprint = qh
	m.mu.Unlock()

	if changed {
		m.handleInBrowserCopy(appName)
	}

	m.mu.Lock()
	if m.state.heldItem == nil {
		m.mu.Unlock()
		return false
	}

	if m.state.browserAllowed {
		item := m.state.heldItem
		if m.state.consecutiveAllowedSince.IsZero() {
			m.state.consecutiveAllowedSince = m.clock.Now()
		}
		sustained := m.clock.Now().Sub(m.state.consecutiveAllowedSince) >= grace
		m.mu.Unlock()

		if err := m.clipboard.Put(item); err != nil {
			m.logger.Debug("watchdog restore failed", zap.Error(err))
		}
		// Record the restored content's hash so the next tick does not take
		// this restore for a new in-browser copy.
		restored := m.clipboard.FingerprintCurrent()

		m.mu.Lock()
		m.state.lastClipboardFingerprint = restored
		if sustained {
			m.state.clearHeld()
			m.state.consecutiveAllowedSince = time.Time{}
		}
		m.mu.Unlock()
		return true
	}

	m.state.consecutiveAllowedSince = time.Time{}
	m.mu.Unlock()

	if _, err := m.clipboard.Take(); err != nil {
		m.logger.Debug("watchdog clipboard clear failed", zap.Error(err))
	}
	return true
}

// handleInBrowserCopy implements §4.9 step 2: a new copy happened inside the
// browser itself, distinct from an app-switch capture.
func (m *Mediator) handleInBrowserCopy(appName string) {
	captured, err := m.clipboard.Take()
	if err != nil {
		m.logger.Debug("watchdog take failed on in-browser copy", zap.Error(err))
	}
	if captured == nil {
		return
	}

	fp := fingerprint.Of(captured.CanonicalBytes())

	m.mu.Lock()
	if !m.state.safeFingerprint.Empty() && fp == m.state.safeFingerprint {
		m.restoreLocked(captured)
		m.mu.Unlock()
		return
	}
	m.state.heldItem = captured
	m.state.heldFingerprint = fp
	m.state.verdict = model.VerdictUnknown
	m.state.sourceApp = appName
	m.state.consecutiveAllowedSince = time.Time{}
	m.mu.Unlock()

	m.spawnClassification(fp, captured, appName)
}
