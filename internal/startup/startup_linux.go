package startup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/coreos/go-systemd/v22/dbus"
	"go.uber.org/zap"
)

const unitName = "dlpagent.service"

type linuxInstaller struct {
	logger *zap.Logger
}

func newPlatformInstaller(logger *zap.Logger) Installer {
	return &linuxInstaller{logger: logger}
}

func (l *linuxInstaller) unitPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "systemd", "user", unitName), nil
}

// Install writes a systemd user unit and enables+starts it via D-Bus, per
// base spec §4.11.
func (l *linuxInstaller) Install() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to resolve executable path: %w", err)
	}
	path, err := l.unitPath()
	if err != nil {
		return fmt.Errorf("failed to resolve systemd user unit directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create systemd user unit directory: %w", err)
	}

	unit := fmt.Sprintf(`[Unit]
Description=DLP Agent clipboard mediator
After=graphical-session.target

[Service]
ExecStart=%s
Restart=on-failure
RestartSec=5

[Install]
WantedBy=default.target
`, exe)

	if err := os.WriteFile(path, []byte(unit), 0o644); err != nil {
		return fmt.Errorf("failed to write systemd unit file: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := dbus.NewUserConnectionContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to systemd user bus: %w", err)
	}
	defer conn.Close()

	if err := conn.ReloadContext(ctx); err != nil {
		return fmt.Errorf("failed to reload systemd user units: %w", err)
	}
	if _, _, err := conn.EnableUnitFilesContext(ctx, []string{unitName}, false, true); err != nil {
		return fmt.Errorf("failed to enable systemd unit: %w", err)
	}
	if _, err := conn.StartUnitContext(ctx, unitName, "replace", nil); err != nil {
		return fmt.Errorf("failed to start systemd unit: %w", err)
	}

	l.logger.Info("auto-start registered", zap.String("unit", path))
	return nil
}

func (l *linuxInstaller) Remove() error {
	path, err := l.unitPath()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := dbus.NewUserConnectionContext(ctx)
	if err == nil {
		defer conn.Close()
		_, _ = conn.StopUnitContext(ctx, unitName, "replace", nil)
		_, _ = conn.DisableUnitFilesContext(ctx, []string{unitName}, false)
		_ = conn.ReloadContext(ctx)
	} else {
		l.logger.Debug("failed to connect to systemd user bus during removal", zap.Error(err))
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove systemd unit file: %w", err)
	}
	l.logger.Info("auto-start removed")
	return nil
}
