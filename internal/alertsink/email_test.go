package alertsink_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/siguna/dlpagent/internal/alertsink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyGitPushSkipsWhenUnconfigured(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "alerts.db")
	log, err := alertsink.NewBoltAuditLog(dbPath)
	require.NoError(t, err)
	defer log.Close()

	notifier := alertsink.NewSMTPAdminNotifier("smtp.office365.com", 587, "", "", "", "device-1", log, nil)
	err = notifier.NotifyGitPush(context.Background(), "https://evil.example/repo")
	require.NoError(t, err, "missing SMTP config must be tolerated, not fatal")

	recent, err := log.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.False(t, recent[0].Delivered)
	assert.NotEmpty(t, recent[0].DeliverError)
}
