// Package gitfirewall implements the Git Push Firewall (C10): a materialized
// pre-push hook plus a global core.hooksPath assertion that a background
// task re-asserts to defeat user reverts (base spec §4.10).
package gitfirewall

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/siguna/dlpagent/internal/policy"
	"go.uber.org/zap"
)

const hooksDirName = ".dlp_git_hooks"

// Firewall installs and maintains the pre-push hook and hooksPath config.
type Firewall struct {
	hooksDir         string
	agentExe         string
	reassertInterval time.Duration
	logger           *zap.Logger
}

// CheckPush reports whether remoteURL is permitted by policy.GitWhitelist,
// the decision function shared by the CLI's `--check-git-push` entry point
// and the Windows-native hook variants that delegate to it.
func CheckPush(remoteURL string) bool {
	return policy.IsWhitelistedRemote(remoteURL)
}

// New builds a Firewall rooted at the current user's home directory.
func New(reassertInterval time.Duration, logger *zap.Logger) (*Firewall, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if reassertInterval <= 0 {
		reassertInterval = 5 * time.Second
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve agent executable path: %w", err)
	}
	return &Firewall{
		hooksDir:         filepath.Join(home, hooksDirName),
		agentExe:         exe,
		reassertInterval: reassertInterval,
		logger:           logger,
	}, nil
}

// Install materializes the hooks directory and scripts and sets
// core.hooksPath. Installation failures are logged and returned; the daemon
// logs them again and keeps running, so a broken firewall never prevents
// clipboard mediation from starting (base spec §7).
func (f *Firewall) Install() error {
	if err := os.MkdirAll(f.hooksDir, 0o755); err != nil {
		f.logger.Warn("failed to create git hooks directory", zap.Error(err))
		return err
	}

	for name, content := range f.hookScripts() {
		path := filepath.Join(f.hooksDir, name)
		mode := os.FileMode(0o644)
		if !strings.HasSuffix(name, ".bat") && !strings.HasSuffix(name, ".ps1") {
			mode = 0o755 // POSIX sh hooks, executed directly by Git/Git-Bash
		}
		if err := os.WriteFile(path, []byte(content), mode); err != nil {
			f.logger.Warn("failed to write git hook script", zap.String("path", path), zap.Error(err))
			return err
		}
	}

	if err := f.assertHooksPath(); err != nil {
		f.logger.Warn("failed to set core.hooksPath", zap.Error(err))
		return err
	}
	f.logger.Info("git push firewall installed", zap.String("hooksDir", f.hooksDir))
	return nil
}

// Uninstall clears the global hooksPath setting, best-effort, per base spec
// §4.10 ("on process exit, the global setting is cleared").
func (f *Firewall) Uninstall() {
	cmd := exec.Command("git", "config", "--global", "--unset", "core.hooksPath")
	if err := cmd.Run(); err != nil {
		f.logger.Debug("failed to unset core.hooksPath on shutdown", zap.Error(err))
	}
}

func (f *Firewall) assertHooksPath() error {
	cmd := exec.Command("git", "config", "--global", "core.hooksPath", f.hooksDir)
	return cmd.Run()
}

func (f *Firewall) currentHooksPath() (string, error) {
	cmd := exec.Command("git", "config", "--global", "core.hooksPath")
	out, err := cmd.Output()
	if err != nil {
		// A missing/default config exits non-zero; treat as "unset".
		return "", nil
	}
	return strings.TrimSpace(string(out)), nil
}

// Run polls core.hooksPath at f.reassertInterval and re-applies it whenever
// it drifts, per base spec §4.10's "background task re-asserts this
// configuration at ~5s cadence." It additionally watches the global gitconfig
// file with fsnotify so a revert is caught immediately rather than waiting
// out the full poll interval.
func (f *Firewall) Run(ctx context.Context) {
	f.watchGitConfig(ctx)

	ticker := time.NewTicker(f.reassertInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.reassertIfDrifted()
		}
	}
}

func (f *Firewall) reassertIfDrifted() {
	current, err := f.currentHooksPath()
	if err != nil {
		f.logger.Debug("failed to read current core.hooksPath", zap.Error(err))
		return
	}
	if current == f.hooksDir {
		return
	}
	f.logger.Info("core.hooksPath drifted, re-asserting firewall")
	if err := f.assertHooksPath(); err != nil {
		f.logger.Warn("failed to re-assert core.hooksPath", zap.Error(err))
	}
}

// watchGitConfig starts a best-effort fsnotify watch on ~/.gitconfig so a
// manual edit triggers an immediate reassert rather than waiting for the
// next poll tick. Failure to start the watch is logged and otherwise
// ignored; the poll loop in Run still provides the ~5s guarantee.
func (f *Firewall) watchGitConfig(ctx context.Context) {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	configPath := filepath.Join(home, ".gitconfig")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		f.logger.Debug("failed to start gitconfig watcher", zap.Error(err))
		return
	}
	if err := watcher.Add(filepath.Dir(configPath)); err != nil {
		f.logger.Debug("failed to watch gitconfig directory", zap.Error(err))
		watcher.Close()
		return
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) == filepath.Clean(configPath) {
					f.reassertIfDrifted()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				f.logger.Debug("gitconfig watcher error", zap.Error(err))
			}
		}
	}()
}

// whitelistBashArray renders policy.GitWhitelist as a bash array literal.
func whitelistBashArray() string {
	quoted := make([]string, len(policy.GitWhitelist))
	for i, w := range policy.GitWhitelist {
		quoted[i] = `"` + w + `"`
	}
	return strings.Join(quoted, " ")
}
