// Package browserprobe implements the Browser URL Probe (C3): best-effort
// extraction of a browser's current destination, consulted by the watchdog
// (C9) whenever the foreground app is a member of policy.BrowserApps
// (base spec §4.3).
package browserprobe

import (
	"context"
	"strings"
)

// titleKeywords maps a case-insensitive keyword to the synthetic URL a
// window title containing it resolves to, per base spec §4.3's title-
// fallback rule ("derive a synthetic URL ... by matching title keywords
// against a small table"). Grounded on policy.AllowedDomains: ordinary
// browser tab titles for these destinations ("ChatGPT", "New chat -
// ChatGPT", "Claude") carry no dotted domain substring at all, so a generic
// dot-chunk heuristic alone never recognizes them.
var titleKeywords = []struct {
	keyword string
	url     string
}{
	{"chatgpt", "https://chatgpt.com"},
	{"claude", "https://claude.ai"},
	{"gemini", "https://gemini.google.com"},
	{"copilot", "https://copilot.microsoft.com"},
}

// matchTitleKeyword returns the synthetic URL for the first titleKeywords
// entry found in title, or "" if none match.
func matchTitleKeyword(title string) string {
	lower := strings.ToLower(title)
	for _, k := range titleKeywords {
		if strings.Contains(lower, k.keyword) {
			return k.url
		}
	}
	return ""
}

// Prober resolves the current URL of a running browser process, identified
// by its platform app name (e.g. "Google Chrome", "firefox.exe").
type Prober interface {
	// CurrentURL returns the active tab's URL, or "" if it cannot be
	// determined within the configured timeout. A returned error means the
	// probe mechanism itself failed (process not found, AppleScript
	// refused); "" with a nil error means "no URL available", and callers
	// MUST treat that as untrusted per base spec §4.3's fail-closed rule.
	CurrentURL(ctx context.Context, appName, windowTitle string) (string, error)
}
