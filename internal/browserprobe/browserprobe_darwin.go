//go:build darwin

package browserprobe

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// darwinProber asks each supported browser for its active tab's URL via
// AppleScript's application-specific "URL of active tab" dictionary entry,
// matching how the original agent queried Chrome/Safari without a CDP/
// WebExtension dependency.
type darwinProber struct {
	logger *zap.Logger
}

// New returns the macOS Prober.
func New(logger *zap.Logger) Prober {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &darwinProber{logger: logger}
}

var scriptByApp = map[string]string{
	"Google Chrome": `tell application "Google Chrome" to return URL of active tab of front window`,
	"Safari":        `tell application "Safari" to return URL of front document`,
	"Microsoft Edge": `tell application "Microsoft Edge" to return URL of active tab of front window`,
}

func (p *darwinProber) CurrentURL(ctx context.Context, appName, windowTitle string) (string, error) {
	script, ok := scriptByApp[appName]
	if !ok {
		// Firefox has no AppleScript dictionary for tab URLs; fall back to
		// the window-title heuristic (base spec §4.3's documented gap).
		return titleHeuristic(windowTitle), nil
	}
	out, err := exec.CommandContext(ctx, "osascript", "-e", script).Output()
	if err != nil {
		return "", fmt.Errorf("osascript probe failed for %s: %w", appName, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// titleHeuristic derives a destination for a window title, first checking
// titleKeywords (base spec §4.3) since ordinary tab titles for the agent's
// own AllowedDomains (a bare "ChatGPT" or "Claude" tab title) never contain
// a dotted domain substring, then falling back to the last " - "-separated
// chunk of the title when that chunk contains a dot (for a title of the form
// "Page Title - domain.tld — Firefox" this is "domain.tld — Firefox", which
// still contains the domain for substring matching). Returns "" if nothing
// recognizable is present; callers must treat "" as untrusted, never as an
// allow signal.
func titleHeuristic(title string) string {
	if url := matchTitleKeyword(title); url != "" {
		return url
	}
	parts := strings.Split(title, " - ")
	if len(parts) < 2 {
		return ""
	}
	candidate := strings.TrimSpace(parts[len(parts)-1])
	if strings.Contains(candidate, ".") {
		return candidate
	}
	return ""
}
