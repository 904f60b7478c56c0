package gitfirewall

import "fmt"

// hookScripts returns the full set of pre-push hook variants written into
// the hooks directory, one per platform/shell combination named in base
// spec §4.10: a POSIX sh hook (used directly by Unix Git and by Git-Bash on
// Windows) plus .bat and .ps1 siblings for native Windows Git. The POSIX
// hook inlines the whitelist substring test, matching the original agent's
// bash-array design; the Windows-native variants delegate the decision to
// the agent binary's `--check-git-push` entry point rather than
// reimplementing substring-over-array matching in batch and PowerShell.
func (f *Firewall) hookScripts() map[string]string {
	return map[string]string{
		"pre-push":     f.shHook(),
		"pre-push.bat": f.batHook(),
		"pre-push.ps1": f.ps1Hook(),
	}
}

func (f *Firewall) shHook() string {
	return fmt.Sprintf(`#!/bin/sh
# DLP Agent git push firewall. Installed by %s; do not edit.
remote="$1"
url="$2"
if [ -z "$url" ]; then
    url=$(git config --get "remote.$remote.url")
fi

allowed="%s"
for entry in %s; do
    case "$url" in
        *"$entry"*) exit 0 ;;
    esac
done

echo "[DLP] BLOCKED: push to $url is not permitted by policy." >&2
"%s" --git-push-alert "$url" >/dev/null 2>&1 &
exit 1
`, f.agentExe, whitelistBashArray(), whitelistBashArray(), f.agentExe)
}

func (f *Firewall) batHook() string {
	return fmt.Sprintf(`@echo off
setlocal
set "remote=%%1"
set "url=%%2"
if "%%url%%"=="" (
    for /f "delims=" %%%%u in ('git config --get remote.%%remote%%.url') do set "url=%%%%u"
)

"%s" --check-git-push "%%url%%"
if errorlevel 1 (
    echo [DLP] BLOCKED: push to %%url%% is not permitted by policy. 1>&2
    start "" /B "%s" --git-push-alert "%%url%%"
    exit /b 1
)
exit /b 0
`, f.agentExe, f.agentExe)
}

func (f *Firewall) ps1Hook() string {
	return fmt.Sprintf(`param(
    [string]$Remote,
    [string]$Url
)
if ([string]::IsNullOrEmpty($Url)) {
    $Url = git config --get "remote.$Remote.url"
}

& "%s" --check-git-push "$Url"
if ($LASTEXITCODE -ne 0) {
    Write-Error "[DLP] BLOCKED: push to $Url is not permitted by policy."
    Start-Process -FilePath "%s" -ArgumentList @("--git-push-alert", $Url) -WindowStyle Hidden
    exit 1
}
exit 0
`, f.agentExe, f.agentExe)
}
