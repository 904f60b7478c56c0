package browserprobe

import "context"

// Fake returns a fixed URL regardless of input, for mediator/watchdog tests.
type Fake struct {
	URL string
	Err error
}

func (f *Fake) CurrentURL(ctx context.Context, appName, windowTitle string) (string, error) {
	return f.URL, f.Err
}

var _ Prober = (*Fake)(nil)
