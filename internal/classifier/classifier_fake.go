package classifier

import (
	"context"
	"sync"

	"github.com/siguna/dlpagent/internal/fingerprint"
	"github.com/siguna/dlpagent/internal/model"
)

// Fake returns a fixed verdict (or a per-fingerprint override) without any
// network call, for mediator and watchdog tests.
type Fake struct {
	mu        sync.Mutex
	Default   model.Verdict
	Overrides map[fingerprint.Fingerprint]model.Verdict
	Calls     []fingerprint.Fingerprint
}

// NewFake returns a Fake that answers def for every fingerprint without an
// override.
func NewFake(def model.Verdict) *Fake {
	return &Fake{Default: def, Overrides: map[fingerprint.Fingerprint]model.Verdict{}}
}

// SetVerdict pins the verdict returned for a specific fingerprint.
func (f *Fake) SetVerdict(fp fingerprint.Fingerprint, v model.Verdict) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Overrides[fp] = v
}

func (f *Fake) Classify(ctx context.Context, fp fingerprint.Fingerprint, item *model.Item) (model.Verdict, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, fp)
	if v, ok := f.Overrides[fp]; ok {
		return v, nil
	}
	return f.Default, nil
}

var _ Classifier = (*Fake)(nil)
