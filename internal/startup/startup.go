// Package startup implements the Startup Installer (C11): per-OS
// registration of the agent as a per-user auto-start entry (base spec
// §4.11), exposed on the CLI as `--install`/`--remove`.
package startup

import "go.uber.org/zap"

// Installer registers or removes the agent's auto-start entry.
type Installer interface {
	Install() error
	Remove() error
}

// New returns the platform Installer for the running OS.
func New(logger *zap.Logger) Installer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return newPlatformInstaller(logger)
}
