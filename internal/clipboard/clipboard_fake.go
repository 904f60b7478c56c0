package clipboard

import (
	"sync"

	"github.com/siguna/dlpagent/internal/fingerprint"
	"github.com/siguna/dlpagent/internal/model"
)

// Fake is an in-memory Clipboard used by package tests that exercise the
// mediator/watchdog without a real display server (base spec §9's fake
// adapter requirement).
type Fake struct {
	mu      sync.Mutex
	current *model.Item

	// PutHistory records every item passed to Put, in order, for assertions.
	PutHistory []*model.Item
}

// NewFake returns an empty Fake clipboard.
func NewFake() *Fake {
	return &Fake{}
}

// Seed sets the current clipboard content without going through Put, so
// tests can establish starting state without polluting PutHistory.
func (f *Fake) Seed(item *model.Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = item
}

func (f *Fake) Snapshot() (*model.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current, nil
}

func (f *Fake) Take() (*model.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item := f.current
	f.current = nil
	return item, nil
}

func (f *Fake) Put(item *model.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = item
	f.PutHistory = append(f.PutHistory, item)
	return nil
}

func (f *Fake) FingerprintCurrent() fingerprint.QuickHash {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return 0
	}
	return fingerprint.QuickHashOf(f.current.CanonicalBytes())
}

var _ Clipboard = (*Fake)(nil)
