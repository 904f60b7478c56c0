package mediator

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/siguna/dlpagent/internal/alertsink"
	"github.com/siguna/dlpagent/internal/appsource"
	"github.com/siguna/dlpagent/internal/browserprobe"
	"github.com/siguna/dlpagent/internal/classifier"
	dlpclipboard "github.com/siguna/dlpagent/internal/clipboard"
	"github.com/siguna/dlpagent/internal/fingerprint"
	"github.com/siguna/dlpagent/internal/model"
	"github.com/siguna/dlpagent/internal/policy"
	"go.uber.org/zap"
)

// Config bundles the tunables the mediator/watchdog need, independent of
// internal/config.Config so this package has no import-cycle exposure to
// the rest of the agent's config surface.
type Config struct {
	DelayedAlertSettle   time.Duration
	AlertAutoDismiss     time.Duration
	WatchdogTickInterval time.Duration
	WatchdogIdleInterval time.Duration
	BrowserAllowGrace    time.Duration
	URLProbeTimeout      time.Duration
}

// Mediator owns the single Mediator State and implements C8's event
// handling and C9's watchdog loop (base spec §4.8, §4.9).
type Mediator struct {
	mu    sync.Mutex
	state *mediatorState

	clipboard  dlpclipboard.Clipboard
	classifier classifier.Classifier
	userSink   alertsink.UserNotifier
	adminSink  alertsink.AdminNotifier
	prober     browserprobe.Prober

	cfg    Config
	clock  clock.Clock
	logger *zap.Logger

	rootCtx    context.Context
	rootCancel context.CancelFunc
	wg         sync.WaitGroup

	watchdogCancel context.CancelFunc
	watchdogWG     sync.WaitGroup
}

// New builds a Mediator. clk defaults to the real clock if nil.
func New(
	cb dlpclipboard.Clipboard,
	cl classifier.Classifier,
	userSink alertsink.UserNotifier,
	adminSink alertsink.AdminNotifier,
	prober browserprobe.Prober,
	cfg Config,
	clk clock.Clock,
	logger *zap.Logger,
) *Mediator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Mediator{
		state:      newMediatorState(),
		clipboard:  cb,
		classifier: cl,
		userSink:   userSink,
		adminSink:  adminSink,
		prober:     prober,
		cfg:        cfg,
		clock:      clk,
		logger:     logger,
		rootCtx:    ctx,
		rootCancel: cancel,
	}
}

// Close stops the watchdog loop, then waits for already-running
// classification/alert/SMTP tasks to finish before cancelling the mediator's
// root context, so those tasks are not cancelled (base spec §5:
// "non-cancellable, run to completion").
func (m *Mediator) Close() {
	m.mu.Lock()
	m.stopWatchdogLocked()
	m.mu.Unlock()
	m.wg.Wait()
	m.rootCancel()
}

// Run consumes appsource events until ctx is cancelled, dispatching each to
// HandleAppActivated. Base spec §4.2: "event delivery is single-threaded
// from the mediator's perspective."
func (m *Mediator) Run(ctx context.Context, events <-chan appsource.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			m.HandleAppActivated(ev)
		}
	}
}

// HandleAppActivated implements base spec §4.8.1.
func (m *Mediator) HandleAppActivated(ev appsource.Event) {
	m.mu.Lock()
	m.state.currentApp = ev.AppName
	m.stopWatchdogLocked()

	switch {
	case policy.IsAllowedApp(ev.AppName):
		m.handleTrustedLocked()
	case policy.IsBrowserApp(ev.AppName):
		m.handleBrowserLocked(ev)
	default:
		m.handleUntrustedLocked(ev.AppName)
	}
}

// handleTrustedLocked implements §4.8.1(a). Caller holds m.mu.
func (m *Mediator) handleTrustedLocked() {
	defer m.mu.Unlock()
	if m.state.heldItem == nil {
		return
	}
	item := m.state.heldItem
	m.state.clearHeld()
	if err := m.clipboard.Put(item); err != nil {
		m.logger.Warn("failed to restore held item on trusted app activation", zap.Error(err))
	}
}

// handleBrowserLocked implements §4.8.1(b). Caller holds m.mu; unlocks
// before returning.
func (m *Mediator) handleBrowserLocked(ev appsource.Event) {
	captured, err := m.clipboard.Take()
	if err != nil {
		m.logger.Debug("clipboard take failed on browser activation", zap.Error(err))
	}
	if captured != nil {
		fp := fingerprint.Of(captured.CanonicalBytes())
		if !m.state.safeFingerprint.Empty() && fp == m.state.safeFingerprint {
			m.restoreLocked(captured)
		} else {
			m.state.heldItem = captured
			m.state.heldFingerprint = fp
			m.state.verdict = model.VerdictUnknown
			m.state.sourceApp = ev.AppName
			m.mu.Unlock()
			m.spawnClassification(fp, captured, ev.AppName)
			m.mu.Lock()
		}
	}
	m.startWatchdogLocked(ev.AppName)
	m.mu.Unlock()
}

// handleUntrustedLocked implements §4.8.1(c). Caller holds m.mu.
func (m *Mediator) handleUntrustedLocked(appName string) {
	defer m.mu.Unlock()

	captured, err := m.clipboard.Take()
	if err != nil {
		m.logger.Debug("clipboard take failed on untrusted app activation", zap.Error(err))
	}
	if captured == nil {
		captured = m.state.heldItem
	}
	if captured == nil {
		return
	}

	// base spec §4.8.1(c)(ii): clear the clipboard unconditionally. Take
	// already empties it on success; this second call only matters when
	// captured came from the reused held_item path above.
	_, _ = m.clipboard.Take()

	fp := fingerprint.Of(captured.CanonicalBytes())
	if !m.state.safeFingerprint.Empty() && fp == m.state.safeFingerprint {
		m.restoreLocked(captured)
		return
	}

	m.state.heldItem = captured
	m.state.heldFingerprint = fp
	m.state.verdict = model.VerdictUnknown
	m.state.sourceApp = appName
	m.mu.Unlock()
	m.spawnClassification(fp, captured, appName)
	m.mu.Lock()
}

// restoreLocked writes item back to the clipboard and clears held state.
// Caller holds m.mu.
func (m *Mediator) restoreLocked(item *model.Item) {
	m.state.clearHeld()
	if err := m.clipboard.Put(item); err != nil {
		m.logger.Warn("failed to restore safe item", zap.Error(err))
	}
}

// spawnClassification implements base spec §4.8.2, as a short-lived task.
func (m *Mediator) spawnClassification(fp fingerprint.Fingerprint, item *model.Item, sourceApp string) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.runClassification(fp, item, sourceApp)
	}()
}

func (m *Mediator) runClassification(fp fingerprint.Fingerprint, item *model.Item, sourceApp string) {
	verdict, err := m.classifier.Classify(m.rootCtx, fp, item)
	if err != nil {
		m.logger.Warn("classification task failed", zap.Error(err))
		verdict = model.VerdictCode
	}

	m.mu.Lock()
	if m.state.heldFingerprint != fp {
		// Superseded by a newer capture (base spec §4.8.5); discard.
		m.mu.Unlock()
		return
	}
	m.state.verdict = verdict

	if verdict == model.VerdictText {
		item := m.state.heldItem
		m.state.clearHeld()
		m.state.safeFingerprint = fp
		m.mu.Unlock()
		if err := m.clipboard.Put(item); err != nil {
			m.logger.Warn("failed to restore text-verdict item", zap.Error(err))
		}
		if qh := m.clipboard.FingerprintCurrent(); qh != 0 {
			m.mu.Lock()
			m.state.lastClipboardFingerprint = qh
			m.mu.Unlock()
		}
		return
	}

	// Code verdict: schedule a delayed alert unless already pending/fired.
	shouldSchedule := !m.state.warningInflight[fp] && !m.state.warnedFingerprints[fp]
	if shouldSchedule {
		m.state.warningInflight[fp] = true
	}
	m.mu.Unlock()

	if shouldSchedule {
		m.spawnDelayedAlert(fp, sourceApp)
	}
}

// spawnDelayedAlert implements base spec §4.8.3.
func (m *Mediator) spawnDelayedAlert(fp fingerprint.Fingerprint, scheduledForApp string) {
	settle := m.cfg.DelayedAlertSettle
	if settle <= 0 {
		settle = 100 * time.Millisecond
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		select {
		case <-m.clock.After(settle):
		case <-m.rootCtx.Done():
			return
		}
		m.runDelayedAlert(fp, scheduledForApp)
	}()
}

func (m *Mediator) runDelayedAlert(fp fingerprint.Fingerprint, scheduledForApp string) {
	m.mu.Lock()
	delete(m.state.warningInflight, fp)

	if m.state.verdict != model.VerdictCode || m.state.warnedFingerprints[fp] {
		m.mu.Unlock()
		return
	}
	m.state.warnedFingerprints[fp] = true

	destApp := m.state.currentApp
	browserAllowed := m.state.browserAllowed
	heldItem := m.state.heldItem
	shouldPopup := destApp == scheduledForApp
	m.mu.Unlock()

	if shouldPopup && m.userSink != nil {
		msg := "Policy Violation: copying source code to external apps is restricted."
		autoDismiss := m.cfg.AlertAutoDismiss
		if autoDismiss <= 0 {
			autoDismiss = 6 * time.Second
		}
		if err := m.userSink.NotifyHold(m.rootCtx, msg, autoDismiss); err != nil {
			m.logger.Debug("notify_user failed", zap.Error(err))
		}
	}

	m.sendAdminAlertIfWarranted(destApp, browserAllowed, heldItem)
}

// sendAdminAlertIfWarranted implements §4.8.3's email suppression rules.
func (m *Mediator) sendAdminAlertIfWarranted(destApp string, browserAllowed bool, item *model.Item) {
	if m.adminSink == nil {
		return
	}
	if policy.IsAllowedApp(destApp) {
		return
	}
	if policy.IsBrowserApp(destApp) && browserAllowed {
		return
	}

	var err error
	if item != nil && item.Kind == model.KindFile {
		err = m.adminSink.NotifyFileCopy(m.rootCtx, item.Path, destApp)
	} else {
		preview := ""
		if item != nil {
			preview = previewOf(item.Text)
		}
		err = m.adminSink.NotifyClipboardPaste(m.rootCtx, preview, destApp)
	}
	if err != nil {
		m.logger.Debug("notify_admin failed", zap.Error(err))
	}
}

func previewOf(text string) string {
	const maxPreview = 200
	if len(text) <= maxPreview {
		return text
	}
	return text[:maxPreview]
}
