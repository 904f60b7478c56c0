// Command dlpagent is the single-binary entry point for the DLP endpoint
// agent. It multiplexes the five behaviors base spec §6 names: bare
// invocation runs the clipboard mediator; --install/--remove register or
// unregister auto-start; --git-push-alert and --check-git-push are the two
// entry points the materialized pre-push hooks invoke.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/siguna/dlpagent/internal/alertsink"
	"github.com/siguna/dlpagent/internal/config"
	"github.com/siguna/dlpagent/internal/daemon"
	"github.com/siguna/dlpagent/internal/gitfirewall"
	"github.com/siguna/dlpagent/internal/logging"
	"github.com/siguna/dlpagent/internal/singleinstance"
	"github.com/siguna/dlpagent/internal/startup"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	var (
		install      bool
		remove       bool
		gitPushAlert string
		checkGitPush string
	)

	root := &cobra.Command{
		Use:           "dlpagent",
		Short:         "Endpoint data-loss-prevention agent",
		Version:       version + " (" + commit + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case install:
				return runInstall()
			case remove:
				return runRemove()
			case gitPushAlert != "":
				return runGitPushAlert(cmd.Context(), gitPushAlert)
			case checkGitPush != "":
				return runCheckGitPush(checkGitPush)
			default:
				return runDaemon()
			}
		},
	}

	flags := root.Flags()
	flags.BoolVar(&install, "install", false, "register the agent to start automatically on login")
	flags.BoolVar(&remove, "remove", false, "unregister auto-start and terminate any running instance")
	flags.StringVar(&gitPushAlert, "git-push-alert", "", "send the admin alert for a blocked git push (invoked by the pre-push hook)")
	flags.StringVar(&checkGitPush, "check-git-push", "", "exit 0 if the given repository URL is whitelisted for push, 1 otherwise")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runDaemon implements the bare-invocation behavior: acquire the
// single-instance gate and run every component until signalled. Missing LLM
// configuration is fatal (exit 1), per base spec §6.
func runDaemon() error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	secrets, err := config.LoadSecrets("")
	if err != nil {
		return fmt.Errorf("fatal: %w", err)
	}

	logger, err := logging.New(logging.KindDaemon, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logger.Sync()

	d, err := daemon.New(cfg, secrets, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize daemon: %w", err)
	}

	_, err = d.Run(context.Background())
	return err
}

func runInstall() error {
	logger := quietLogger()
	defer logger.Sync()
	return startup.New(logger).Install()
}

func runRemove() error {
	logger := quietLogger()
	defer logger.Sync()
	if err := startup.New(logger).Remove(); err != nil {
		return err
	}
	return terminateOtherInstances(logger)
}

func runGitPushAlert(ctx context.Context, repoURL string) error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	secrets, _ := config.LoadSecrets("")
	logger := quietLogger()
	defer logger.Sync()

	notifier := alertsink.NewSMTPAdminNotifier(cfg.SMTP.Host, cfg.SMTP.Port, secrets.EmailSender, secrets.EmailPassword, secrets.EmailReceiver, cfg.DeviceID, nil, logger)
	if err := notifier.NotifyGitPush(ctx, repoURL); err != nil {
		logger.Warn("failed to send git push alert", zap.Error(err))
	}
	// Per base spec §7, SMTP failure here is logged-and-swallowed; the hook
	// has already blocked the push and this entry point must still exit 0.
	return nil
}

func runCheckGitPush(repoURL string) error {
	if gitfirewall.CheckPush(repoURL) {
		return nil
	}
	fmt.Fprintln(os.Stderr, "Policy Violation: pushing to this remote is restricted.")
	os.Exit(1)
	return nil
}

func quietLogger() *zap.Logger {
	logger, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// terminateOtherInstances best-effort-signals any other running agent
// process to exit, so `--remove` leaves no mediator holding the clipboard.
// Failure here is logged, not fatal: base spec §6 only requires --remove to
// unregister auto-start and exit 0.
func terminateOtherInstances(logger *zap.Logger) error {
	cfg, err := config.Load("")
	if err != nil {
		logger.Debug("failed to load config while terminating other instances", zap.Error(err))
		return nil
	}
	lockPath := filepath.Join(cfg.Paths().RunDir, "dlpagent.lock")
	gate := singleinstance.New(lockPath)
	acquired, err := gate.Acquire()
	if err != nil {
		logger.Debug("failed to probe single-instance lock", zap.Error(err))
		return nil
	}
	if acquired {
		// No other instance was running.
		_ = gate.Release()
		return nil
	}

	pid, ok := singleinstance.OwnerPID(lockPath)
	if !ok {
		logger.Debug("another instance holds the lock but its PID could not be determined")
		return nil
	}
	if err := singleinstance.TerminateProcess(pid); err != nil {
		logger.Debug("failed to terminate other running instance", zap.Int("pid", pid), zap.Error(err))
		return nil
	}
	logger.Info("terminated other running instance", zap.Int("pid", pid))
	return nil
}
