//go:build windows || linux

package browserprobe

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// genericProber covers Windows and Linux, neither of which exposes a
// scriptable per-browser "active tab URL" API without a browser extension
// or remote-debugging port this agent does not assume is enabled. Both
// fall back to the window-title heuristic (base spec §4.3).
type genericProber struct {
	logger *zap.Logger
}

// New returns the Windows/Linux Prober.
func New(logger *zap.Logger) Prober {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &genericProber{logger: logger}
}

func (p *genericProber) CurrentURL(ctx context.Context, appName, windowTitle string) (string, error) {
	return titleHeuristic(windowTitle), nil
}

// titleHeuristic derives a destination for a window title, first checking
// titleKeywords (base spec §4.3) since ordinary tab titles for the agent's
// own AllowedDomains (a bare "ChatGPT" or "Claude" tab title) never contain
// a dotted domain substring, then falling back to extracting a bare domain
// from a title of the form "Page Title - domain.tld - Google Chrome".
// Returns "" if nothing recognizable is present.
func titleHeuristic(title string) string {
	if url := matchTitleKeyword(title); url != "" {
		return url
	}
	parts := strings.Split(title, " - ")
	if len(parts) < 2 {
		return ""
	}
	candidate := strings.TrimSpace(parts[len(parts)-2])
	if strings.Contains(candidate, ".") {
		return candidate
	}
	return ""
}
