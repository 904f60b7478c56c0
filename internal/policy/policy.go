// Package policy holds the compiled-in policy sets the mediator, watchdog and
// git firewall consult. Per base spec §6, policy sets are compiled-in
// constants in this version — they are not loaded from config or distributed
// from a server (explicit Non-goal: no per-user policy distribution).
package policy

import "strings"

// AllowedApps are trusted foreground applications where any clipboard
// content is unrestricted.
var AllowedApps = []string{
	"Visual Studio Code",
	"Code",
	"code",
	"iTerm2",
	"Terminal",
	"cmd.exe",
	"powershell.exe",
	"WindowsTerminal.exe",
	"Xcode",
	"IntelliJ IDEA",
	"GoLand",
	"Finder",
	"Explorer.exe",
}

// BrowserApps are applications subject to per-URL policy instead of a flat
// allow/deny.
var BrowserApps = []string{
	"Google Chrome",
	"chrome.exe",
	"Safari",
	"Firefox",
	"firefox.exe",
	"msedge.exe",
	"Microsoft Edge",
}

// AllowedDomains are URL substrings that make a browser a trusted
// destination (matched by substring containment, base spec §4.3).
var AllowedDomains = []string{
	"chatgpt.com",
	"claude.ai",
	"gemini.google.com",
	"copilot.microsoft.com",
}

// BannedProcesses are process identities the reaper terminates on sight.
// Well-known interpreter names are deliberately excluded from argv[0]
// substring matching to avoid false positives (base spec §4.6).
var BannedProcesses = []string{
	"obs64.exe",
	"obs32.exe",
	"obs",
	"ScreenToGif",
	"licecap",
	"sharex",
	"ShareX.exe",
	"QuickTime Player",
	"screencapture",
}

// interpreterExclusions are argv[0] basenames the reaper never matches
// against BannedProcesses substrings, since they are generic hosts for
// arbitrary scripts/apps rather than screen-capture tools themselves.
var interpreterExclusions = map[string]bool{
	"node":     true,
	"python":   true,
	"python3":  true,
	"electron": true,
}

// IsInterpreter reports whether name is a well-known script/runtime host
// that must be excluded from argv[0] substring matching.
func IsInterpreter(name string) bool {
	return interpreterExclusions[strings.ToLower(name)]
}

// BannedWindowTitles are top-level window titles the reaper also matches on
// Windows, for capture tools whose process identity alone does not give them
// away (base spec §4.6: "on Windows, also enumerates visible top-level
// windows and terminates processes owning windows whose titles match banned
// titles").
var BannedWindowTitles = []string{
	"Snipping Tool",
	"Snip & Sketch",
	"Xbox Game Bar",
	"Game Bar",
	"Greenshot",
}

// IsBannedTitle reports whether title matches any BannedWindowTitles entry,
// case-insensitively.
func IsBannedTitle(title string) bool {
	if title == "" {
		return false
	}
	lower := strings.ToLower(title)
	for _, t := range BannedWindowTitles {
		if strings.Contains(lower, strings.ToLower(t)) {
			return true
		}
	}
	return false
}

// GitWhitelist are remote-URL substrings approved for git push.
var GitWhitelist = []string{
	"gitlab.siguna.co",
	"github.com/siguna",
}

// IsAllowedApp reports whether appName is a member of AllowedApps.
func IsAllowedApp(appName string) bool {
	return containsFold(AllowedApps, appName)
}

// IsBrowserApp reports whether appName is a member of BrowserApps.
func IsBrowserApp(appName string) bool {
	return containsFold(BrowserApps, appName)
}

// IsAllowedDomain reports whether url contains any AllowedDomains substring.
func IsAllowedDomain(url string) bool {
	if url == "" {
		return false
	}
	for _, d := range AllowedDomains {
		if strings.Contains(url, d) {
			return true
		}
	}
	return false
}

// IsWhitelistedRemote reports whether remoteURL contains any GitWhitelist
// substring.
func IsWhitelistedRemote(remoteURL string) bool {
	for _, w := range GitWhitelist {
		if strings.Contains(remoteURL, w) {
			return true
		}
	}
	return false
}

func containsFold(list []string, needle string) bool {
	for _, s := range list {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}
