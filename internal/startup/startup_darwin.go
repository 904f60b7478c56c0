package startup

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"
)

const launchAgentLabel = "co.siguna.dlpagent"

type darwinInstaller struct {
	logger *zap.Logger
}

func newPlatformInstaller(logger *zap.Logger) Installer {
	return &darwinInstaller{logger: logger}
}

func (d *darwinInstaller) plistPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "Library", "LaunchAgents", launchAgentLabel+".plist"), nil
}

// Install writes a LaunchAgent plist with RunAtLoad and KeepAlive set, per
// base spec §4.11, and loads it with launchctl.
func (d *darwinInstaller) Install() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to resolve executable path: %w", err)
	}
	path, err := d.plistPath()
	if err != nil {
		return fmt.Errorf("failed to resolve LaunchAgents directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create LaunchAgents directory: %w", err)
	}

	plist := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>%s</string>
	<key>ProgramArguments</key>
	<array>
		<string>%s</string>
	</array>
	<key>RunAtLoad</key>
	<true/>
	<key>KeepAlive</key>
	<true/>
</dict>
</plist>
`, launchAgentLabel, exe)

	if err := os.WriteFile(path, []byte(plist), 0o644); err != nil {
		return fmt.Errorf("failed to write launch agent plist: %w", err)
	}

	if err := exec.Command("launchctl", "load", "-w", path).Run(); err != nil {
		d.logger.Warn("launchctl load failed", zap.Error(err))
		return err
	}
	d.logger.Info("auto-start registered", zap.String("plist", path))
	return nil
}

func (d *darwinInstaller) Remove() error {
	path, err := d.plistPath()
	if err != nil {
		return err
	}
	_ = exec.Command("launchctl", "unload", "-w", path).Run()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove launch agent plist: %w", err)
	}
	d.logger.Info("auto-start removed")
	return nil
}
