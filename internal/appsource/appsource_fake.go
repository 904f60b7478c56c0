package appsource

import "context"

// Fake is a Source that replays a fixed sequence of events, one per Emit
// call, for tests that drive the mediator deterministically.
type Fake struct {
	ch chan Event
}

// NewFake returns an empty Fake source.
func NewFake() *Fake {
	return &Fake{ch: make(chan Event, 64)}
}

// Emit pushes ev onto the event stream.
func (f *Fake) Emit(ev Event) {
	f.ch <- ev
}

func (f *Fake) Events(ctx context.Context) (<-chan Event, error) {
	go func() {
		<-ctx.Done()
	}()
	return f.ch, nil
}

var _ Source = (*Fake)(nil)
