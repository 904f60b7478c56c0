package startup

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sys/windows/registry"
)

const runValueName = "DLPAgent"

type windowsInstaller struct {
	logger *zap.Logger
}

func newPlatformInstaller(logger *zap.Logger) Installer {
	return &windowsInstaller{logger: logger}
}

// Install writes a Run registry value under HKCU, per base spec §4.11.
func (w *windowsInstaller) Install() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to resolve executable path: %w", err)
	}

	key, _, err := registry.CreateKey(registry.CURRENT_USER, `Software\Microsoft\Windows\CurrentVersion\Run`, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("failed to open Run registry key: %w", err)
	}
	defer key.Close()

	if err := key.SetStringValue(runValueName, exe); err != nil {
		return fmt.Errorf("failed to write Run registry value: %w", err)
	}
	w.logger.Info("auto-start registered", zap.String("exe", exe))
	return nil
}

func (w *windowsInstaller) Remove() error {
	key, err := registry.OpenKey(registry.CURRENT_USER, `Software\Microsoft\Windows\CurrentVersion\Run`, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("failed to open Run registry key: %w", err)
	}
	defer key.Close()

	if err := key.DeleteValue(runValueName); err != nil && err != registry.ErrNotExist {
		return fmt.Errorf("failed to delete Run registry value: %w", err)
	}
	w.logger.Info("auto-start removed")
	return nil
}
