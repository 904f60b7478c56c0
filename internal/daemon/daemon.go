// Package daemon wires together the agent's components (C1-C11) into the
// single long-running process a bare invocation starts, matching the
// teacher's Daemon/Initialize/Run/Shutdown shape (internal/daemon/daemon.go)
// generalized from clipboard sync to clipboard mediation.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/siguna/dlpagent/internal/alertsink"
	"github.com/siguna/dlpagent/internal/appsource"
	"github.com/siguna/dlpagent/internal/browserprobe"
	"github.com/siguna/dlpagent/internal/classifier"
	"github.com/siguna/dlpagent/internal/clipboard"
	"github.com/siguna/dlpagent/internal/config"
	"github.com/siguna/dlpagent/internal/gitfirewall"
	"github.com/siguna/dlpagent/internal/mediator"
	"github.com/siguna/dlpagent/internal/reaper"
	"github.com/siguna/dlpagent/internal/singleinstance"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Daemon owns every long-lived component the agent runs: the clipboard
// mediator (which itself owns the browser watchdog), the screenshot reaper,
// and the git push firewall's background reassertion loop.
type Daemon struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    *config.Config
	logger *zap.Logger

	gate      singleinstance.Gate
	mediator  *mediator.Mediator
	appSource appsource.Source
	reaper    *reaper.Reaper
	firewall  *gitfirewall.Firewall
	auditLog  *alertsink.BoltAuditLog
	userSink  *alertsink.FyneUserNotifier

	wg sync.WaitGroup
}

// New constructs a Daemon from cfg/secrets. It opens the audit log and
// classification cache but does not yet acquire the single-instance lock or
// start any background loop; call Run for that.
func New(cfg *config.Config, secrets config.Secrets, logger *zap.Logger) (*Daemon, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	d := &Daemon{ctx: ctx, cancel: cancel, cfg: cfg, logger: logger}

	auditLog, err := alertsink.NewBoltAuditLog(filepath.Join(cfg.Paths().CacheDir, "alerts.db"))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open alert audit log: %w", err)
	}
	d.auditLog = auditLog

	cb := clipboard.New(logger)

	cl, err := classifier.New(secrets.AzureEndpoint, secrets.AzureKey, secrets.AzureModel, cfg.ClassificationCacheSize, logger)
	if err != nil {
		auditLog.Close()
		cancel()
		return nil, fmt.Errorf("failed to initialize classifier: %w", err)
	}

	adminSink := alertsink.NewSMTPAdminNotifier(cfg.SMTP.Host, cfg.SMTP.Port, secrets.EmailSender, secrets.EmailPassword, secrets.EmailReceiver, cfg.DeviceID, auditLog, logger)
	userSink := alertsink.NewFyneUserNotifier(auditLog, logger)
	d.userSink = userSink

	prober := browserprobe.New(logger)

	mcfg := mediator.Config{
		DelayedAlertSettle:   cfg.DelayedAlertSettle,
		AlertAutoDismiss:     cfg.AlertAutoDismiss,
		WatchdogTickInterval: cfg.WatchdogTickInterval,
		WatchdogIdleInterval: cfg.WatchdogIdleInterval,
		BrowserAllowGrace:    time.Duration(cfg.BrowserAllowGraceSeconds) * time.Second,
		URLProbeTimeout:      cfg.URLProbeTimeout,
	}
	d.mediator = mediator.New(cb, cl, userSink, adminSink, prober, mcfg, nil, logger)
	d.appSource = appsource.New(cfg.AppPollInterval)
	d.reaper = reaper.New(reaper.NewScanner(), reaper.NewKiller(), cfg.ReaperInterval, logger)

	firewall, err := gitfirewall.New(cfg.GitConfigReassertInterval, logger)
	if err != nil {
		// Per base spec §7, a broken firewall must never block mediation.
		logger.Warn("git push firewall unavailable, continuing without it", zap.Error(err))
	}
	d.firewall = firewall

	d.gate = singleinstance.New(filepath.Join(cfg.Paths().RunDir, "dlpagent.lock"))

	return d, nil
}

// Run acquires the single-instance lock, starts every background component,
// and blocks until SIGINT/SIGTERM or ctx is cancelled. A second running
// instance causes Run to return (false, nil) immediately (base spec §4.7:
// "quiet exit 0").
func (d *Daemon) Run(ctx context.Context) (acquired bool, err error) {
	acquired, err = d.gate.Acquire()
	if err != nil {
		return false, fmt.Errorf("failed to acquire single-instance lock: %w", err)
	}
	if !acquired {
		d.logger.Info("another instance already holds the clipboard mediator lock, exiting quietly")
		return false, nil
	}
	defer d.gate.Release()

	d.logger.Info("starting dlpagent", zap.String("device_id", d.cfg.DeviceID))

	events, err := d.appSource.Events(d.ctx)
	if err != nil {
		return true, fmt.Errorf("failed to start active-app source: %w", err)
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.mediator.Run(d.ctx, events)
	}()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.reaper.Run(d.ctx)
	}()

	if d.firewall != nil {
		if err := d.firewall.Install(); err != nil {
			d.logger.Warn("git push firewall install failed, continuing without it", zap.Error(err))
		} else {
			d.wg.Add(1)
			go func() {
				defer d.wg.Done()
				d.firewall.Run(d.ctx)
			}()
		}
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.userSink.RunEventLoop()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
		d.logger.Info("shutdown signal received")
	case <-ctx.Done():
		d.logger.Info("context cancelled, shutting down")
	}

	return true, d.Shutdown()
}

// Shutdown stops every background component and releases resources.
// Already-dispatched classification/alert tasks are not cancelled (base
// spec §5: "non-cancellable, run to completion"); Shutdown waits for them.
func (d *Daemon) Shutdown() error {
	d.cancel()
	d.mediator.Close()
	d.userSink.Quit()
	d.wg.Wait()

	var errs error
	if d.firewall != nil {
		d.firewall.Uninstall()
	}
	if d.auditLog != nil {
		errs = multierr.Append(errs, d.auditLog.Close())
	}
	return errs
}
