// Package clipboard implements the Clipboard Adapter (C1): atomic
// read/clear/write of the OS clipboard, one item at a time.
package clipboard

import (
	"sync"
	"time"

	"github.com/siguna/dlpagent/internal/fingerprint"
	"github.com/siguna/dlpagent/internal/model"
	"go.uber.org/zap"
)

// Clipboard mediates all access to the OS clipboard. Implementations must
// serialize take/put ordering under a process-local mutex so concurrent
// callers observe serialized access (base spec §4.1).
type Clipboard interface {
	// Snapshot returns the current item without mutating the clipboard.
	Snapshot() (*model.Item, error)

	// Take reads the current item and atomically empties the clipboard.
	// Returns (nil, nil) if there is nothing readable.
	Take() (*model.Item, error)

	// Put writes item, replacing prior clipboard contents.
	Put(item *model.Item) error

	// FingerprintCurrent returns a cheap hash of whatever is currently on
	// the clipboard, used by the browser watchdog's change-detection loop.
	// Returns zero value if the clipboard is empty or unreadable.
	FingerprintCurrent() fingerprint.QuickHash
}

// retryOpen runs fn with bounded retry/backoff, matching base spec §4.1's
// "transient failures to open the platform clipboard MUST be retried with
// backoff" requirement. Used by platform backends wrapping OS clipboard
// handles that can be transiently busy.
func retryOpen(logger *zap.Logger, attempts int, spacing time.Duration, fn func() error) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(spacing)
	}
	if logger != nil {
		logger.Debug("clipboard open exhausted retries", zap.Error(lastErr), zap.Int("attempts", attempts))
	}
	return lastErr
}

// mu serializes take/put across all platform backends within a process, per
// base spec §4.1 ("take+put ordering is sequenced under a process-local
// mutex").
var mu sync.Mutex

func withLock(fn func() error) error {
	mu.Lock()
	defer mu.Unlock()
	return fn()
}
