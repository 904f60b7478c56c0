//go:build linux

package clipboard

import (
	"os/exec"
	"strings"
	"time"

	"github.com/siguna/dlpagent/internal/fingerprint"
	"github.com/siguna/dlpagent/internal/model"
	"go.uber.org/zap"
)

// linuxClipboard shells out to xclip, falling back to xsel when xclip is
// unavailable (common on minimal X11 installs), per SPEC_FULL.md DOMAIN
// STACK's note that Linux has no single clipboard library equivalent to
// pbcopy/pbpaste.
type linuxClipboard struct {
	logger *zap.Logger
	useXsel bool
}

// New returns the Linux Clipboard implementation, probing for xclip/xsel
// once at construction time.
func New(logger *zap.Logger) Clipboard {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &linuxClipboard{logger: logger}
	if _, err := exec.LookPath("xclip"); err != nil {
		c.useXsel = true
	}
	return c
}

func (c *linuxClipboard) Snapshot() (*model.Item, error) {
	text, err := c.readText()
	if err != nil {
		return nil, nil
	}
	return model.NewText(text), nil
}

func (c *linuxClipboard) Take() (*model.Item, error) {
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

func (c *linuxClipboard) Put(item *model.Item) error {
	return withLock(func() error {
		return retryOpen(c.logger, 10, 50*time.Millisecond, func() error {
			switch item.Kind {
			case model.KindImage:
				return nil
			case model.KindFile:
				return c.writeText(item.Path)
			default:
				return c.writeText(item.Text)
			}
		})
	})
}

func (c *linuxClipboard) FingerprintCurrent() fingerprint.QuickHash {
	snap, err := c.Snapshot()
	if err != nil || snap == nil {
		return 0
	}
	return fingerprint.QuickHashOf(snap.CanonicalBytes())
}

func (c *linuxClipboard) readText() (string, error) {
	var cmd *exec.Cmd
	if c.useXsel {
		cmd = exec.Command("xsel", "--clipboard", "--output")
	} else {
		cmd = exec.Command("xclip", "-selection", "clipboard", "-o")
	}
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (c *linuxClipboard) writeText(s string) error {
	var cmd *exec.Cmd
	if c.useXsel {
		cmd = exec.Command("xsel", "--clipboard", "--input")
	} else {
		cmd = exec.Command("xclip", "-selection", "clipboard")
	}
	cmd.Stdin = strings.NewReader(s)
	return cmd.Run()
}

func (c *linuxClipboard) clear() error {
	return c.writeText("")
}
