//go:build darwin

package clipboard

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/siguna/dlpagent/internal/fingerprint"
	"github.com/siguna/dlpagent/internal/model"
	"go.uber.org/zap"
)

// darwinClipboard shells out to pbcopy/pbpaste for text and osascript for
// the general pasteboard's file-URL type, per base spec §4.1's "file URL
// type preferred over string type" rule. See SPEC_FULL.md DOMAIN STACK for
// why this is process-exec based rather than a raw Cocoa/AppKit binding.
type darwinClipboard struct {
	logger *zap.Logger
}

// New returns the macOS Clipboard implementation.
func New(logger *zap.Logger) Clipboard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &darwinClipboard{logger: logger}
}

func (c *darwinClipboard) Snapshot() (*model.Item, error) {
	if path, ok := c.readFileURL(); ok {
		return model.NewFile(path), nil
	}
	text, err := c.readText()
	if err != nil {
		return nil, nil
	}
	return model.NewText(text), nil
}

func (c *darwinClipboard) Take() (*model.Item, error) {
	var item *model.Item
	err := withLock(func() error {
		snap, err := c.Snapshot()
		if err != nil || snap == nil {
			return err
		}
		item = snap
		return c.clear()
	})
	return item, err
}

func (c *darwinClipboard) Put(item *model.Item) error {
	return withLock(func() error {
		return retryOpen(c.logger, 10, 50*time.Millisecond, func() error {
			switch item.Kind {
			case model.KindFile:
				if err := c.writeFileURL(item.Path); err == nil {
					return nil
				}
				c.logger.Warn("file-object clipboard write unavailable, degrading to plain path string",
					zap.String("path", item.Path))
				return c.writeText(item.Path)
			case model.KindImage:
				return nil // images are never restored (screen-capture defense)
			default:
				return c.writeText(item.Text)
			}
		})
	})
}

func (c *darwinClipboard) FingerprintCurrent() fingerprint.QuickHash {
	snap, err := c.Snapshot()
	if err != nil || snap == nil {
		return 0
	}
	return fingerprint.QuickHashOf(snap.CanonicalBytes())
}

func (c *darwinClipboard) readText() (string, error) {
	out, err := exec.Command("pbpaste").Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (c *darwinClipboard) writeText(s string) error {
	cmd := exec.Command("pbcopy")
	cmd.Stdin = strings.NewReader(s)
	return cmd.Run()
}

func (c *darwinClipboard) readFileURL() (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	script := `try
	set thePath to POSIX path of (the clipboard as «class furl»)
	return thePath
on error
	return ""
end try`
	out, err := exec.CommandContext(ctx, "osascript", "-e", script).Output()
	if err != nil {
		return "", false
	}
	path := strings.TrimSpace(string(out))
	if path == "" {
		return "", false
	}
	return path, true
}

func (c *darwinClipboard) writeFileURL(path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	script := `set the clipboard to (POSIX file "` + strings.ReplaceAll(path, `"`, `\"`) + `")`
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "osascript", "-e", script)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		c.logger.Debug("osascript file write failed", zap.String("stderr", stderr.String()))
		return err
	}
	return nil
}

func (c *darwinClipboard) clear() error {
	cmd := exec.Command("pbcopy")
	cmd.Stdin = strings.NewReader("")
	return cmd.Run()
}
