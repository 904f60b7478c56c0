package alertsink

import (
	"context"
	"sync"
	"time"
)

// FakeUserNotifier records every hold notification for test assertions.
type FakeUserNotifier struct {
	mu    sync.Mutex
	Calls []string
}

func (f *FakeUserNotifier) NotifyHold(ctx context.Context, message string, autoDismiss time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, message)
	return nil
}

func (f *FakeUserNotifier) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

var _ UserNotifier = (*FakeUserNotifier)(nil)

// FakeAdminNotifier records every admin email kind sent for test assertions.
type FakeAdminNotifier struct {
	mu           sync.Mutex
	GitPushCalls []string
	PasteCalls   []string
	FileCalls    []string
}

func (f *FakeAdminNotifier) NotifyGitPush(ctx context.Context, repoURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GitPushCalls = append(f.GitPushCalls, repoURL)
	return nil
}

func (f *FakeAdminNotifier) NotifyClipboardPaste(ctx context.Context, preview, app string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PasteCalls = append(f.PasteCalls, app+":"+preview)
	return nil
}

func (f *FakeAdminNotifier) NotifyFileCopy(ctx context.Context, path, app string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.FileCalls = append(f.FileCalls, app+":"+path)
	return nil
}

func (f *FakeAdminNotifier) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.GitPushCalls) + len(f.PasteCalls) + len(f.FileCalls)
}

var _ AdminNotifier = (*FakeAdminNotifier)(nil)
