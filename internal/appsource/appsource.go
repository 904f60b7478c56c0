// Package appsource implements the Active-App Source (C2): a stream of
// foreground-application-activation events the mediator consumes to decide
// whether the held clipboard item should be allowed, denied, or probed
// further (base spec §4.2).
package appsource

import "context"

// Event describes a single foreground-application activation.
type Event struct {
	// AppName is the platform-reported application identity (e.g. "Google
	// Chrome", "chrome.exe"), matched against internal/policy's sets.
	AppName string

	// WindowTitle is the foreground window's title, used by the browser
	// probe as a last-resort heuristic when a native URL API is
	// unavailable (base spec §4.3).
	WindowTitle string
}

// Source streams app-activation events until ctx is cancelled. Implementations
// must not emit duplicate consecutive events for the same foreground app
// (base spec §4.2's "activation, not every poll tick" requirement).
type Source interface {
	// Events returns a channel of activation events. The channel is closed
	// when ctx is done or the source can no longer observe activations.
	Events(ctx context.Context) (<-chan Event, error)
}
