// Package alertsink implements the Alert Sink (C5): a local modal popup for
// the end user (notify_user) and best-effort admin email notifications
// (notify_admin) for git-push, clipboard-paste and file-copy policy matches,
// plus a local audit trail of delivery attempts (base spec §4.5).
package alertsink

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind identifies the category of alert recorded to the audit log.
type Kind string

const (
	KindClipboardHold Kind = "clipboard_hold"
	KindGitPush        Kind = "git_push"
)

// Record is a best-effort local audit entry for one delivered (or
// attempted) alert. This is NOT a durability guarantee — base spec's
// Non-goals exclude durable audit logging beyond best-effort; a crash
// between Put and fsync can lose the most recent record.
type Record struct {
	ID           string
	Kind         Kind
	App          string
	Payload      string
	CreatedAt    time.Time
	Delivered    bool
	DeliverError string
}

// NewRecord builds a Record with a fresh alert ID.
func NewRecord(kind Kind, app, payload string) Record {
	return Record{
		ID:        uuid.New().String(),
		Kind:      kind,
		App:       app,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
}

// UserNotifier shows a local modal popup to the logged-in user and
// auto-dismisses it after the configured interval (base spec §4.5).
type UserNotifier interface {
	NotifyHold(ctx context.Context, message string, autoDismiss time.Duration) error
}

// AdminNotifier sends fixed-template emails to the configured security
// mailbox for the three policy-match kinds base spec §4.5 names.
type AdminNotifier interface {
	NotifyGitPush(ctx context.Context, repoURL string) error
	NotifyClipboardPaste(ctx context.Context, preview, app string) error
	NotifyFileCopy(ctx context.Context, path, app string) error
}

// AuditLog persists Records for later inspection, best-effort.
type AuditLog interface {
	Append(r Record) error
	Recent(limit int) ([]Record, error)
}
