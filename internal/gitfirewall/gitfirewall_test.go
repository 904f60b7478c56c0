package gitfirewall

import (
	"strings"
	"testing"
)

func TestCheckPushAllowsWhitelistedRemote(t *testing.T) {
	if !CheckPush("https://github.com/siguna/dlpagent.git") {
		t.Fatal("expected whitelisted remote to be allowed")
	}
}

func TestCheckPushBlocksUnknownRemote(t *testing.T) {
	if CheckPush("https://github.com/someoneelse/random-repo.git") {
		t.Fatal("expected non-whitelisted remote to be blocked")
	}
}

func TestHookScriptsContainWhitelistEntries(t *testing.T) {
	f := &Firewall{agentExe: "/usr/local/bin/dlpagent"}
	scripts := f.hookScripts()

	for name, content := range scripts {
		if len(content) == 0 {
			t.Fatalf("hook script %s is empty", name)
		}
	}
	if got := scripts["pre-push"]; !strings.Contains(got, "gitlab.siguna.co") {
		t.Fatalf("expected pre-push script to embed whitelist entries, got:\n%s", got)
	}
}
