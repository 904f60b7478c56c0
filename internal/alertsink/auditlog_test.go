package alertsink_test

import (
	"path/filepath"
	"testing"

	"github.com/siguna/dlpagent/internal/alertsink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoltAuditLogAppendAndRecent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "alerts.db")
	log, err := alertsink.NewBoltAuditLog(dbPath)
	require.NoError(t, err)
	defer log.Close()

	r1 := alertsink.NewRecord(alertsink.KindGitPush, "", "https://evil.example/repo")
	r2 := alertsink.NewRecord(alertsink.KindClipboardHold, "Slack", "held text")
	require.NoError(t, log.Append(r1))
	require.NoError(t, log.Append(r2))

	recent, err := log.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, r2.ID, recent[0].ID, "Recent must return newest-first")
}

func TestBoltAuditLogRecentRespectsLimit(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "alerts.db")
	log, err := alertsink.NewBoltAuditLog(dbPath)
	require.NoError(t, err)
	defer log.Close()

	for i := 0; i < 5; i++ {
		require.NoError(t, log.Append(alertsink.NewRecord(alertsink.KindGitPush, "", "repo")))
	}

	recent, err := log.Recent(2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}
