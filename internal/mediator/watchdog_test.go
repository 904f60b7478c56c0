package mediator

import (
	"testing"
	"time"

	"github.com/siguna/dlpagent/internal/appsource"
	"github.com/siguna/dlpagent/internal/model"
	"github.com/stretchr/testify/require"
)

func TestBrowserWatchdogRestoresOnAllowedDomain(t *testing.T) {
	h := newHarness(model.VerdictCode)
	h.probe.URL = "https://chatgpt.com/chat"

	h.cb.Seed(model.NewText("func main() {}"))
	h.m.HandleAppActivated(appsource.Event{AppName: "Google Chrome"})

	waitFor(t, func() bool { return len(h.cl.Calls) >= 1 }, time.Second)
	time.Sleep(10 * time.Millisecond)
	h.clk.Add(100 * time.Millisecond)

	h.clk.Add(150 * time.Millisecond)
	waitFor(t, func() bool { return len(h.cb.PutHistory) >= 1 }, time.Second)

	h.m.mu.Lock()
	allowed := h.m.state.browserAllowed
	held := h.m.state.heldItem != nil
	h.m.mu.Unlock()
	require.True(t, allowed)
	require.True(t, held)
}

func TestBrowserWatchdogDropsHeldAfterSustainedAllow(t *testing.T) {
	h := newHarness(model.VerdictCode)
	h.probe.URL = "https://chatgpt.com/chat"
	h.m.cfg.BrowserAllowGrace = 500 * time.Millisecond
	h.m.cfg.WatchdogTickInterval = 150 * time.Millisecond

	h.cb.Seed(model.NewText("func main() {}"))
	h.m.HandleAppActivated(appsource.Event{AppName: "Google Chrome"})
	waitFor(t, func() bool { return len(h.cl.Calls) >= 1 }, time.Second)
	time.Sleep(10 * time.Millisecond)
	h.clk.Add(100 * time.Millisecond)

	for i := 0; i < 5; i++ {
		h.clk.Add(150 * time.Millisecond)
		time.Sleep(2 * time.Millisecond)
	}

	h.m.mu.Lock()
	held := h.m.state.heldItem != nil
	h.m.mu.Unlock()
	require.False(t, held, "held item should be dropped after the sustained-allow grace period")
}

func TestBrowserWatchdogClearsClipboardWhenNotAllowed(t *testing.T) {
	h := newHarness(model.VerdictCode)
	h.probe.URL = "https://internal-wiki.example.com/notes"

	h.cb.Seed(model.NewText("func main() {}"))
	h.m.HandleAppActivated(appsource.Event{AppName: "Google Chrome"})
	waitFor(t, func() bool { return len(h.cl.Calls) >= 1 }, time.Second)
	time.Sleep(10 * time.Millisecond)
	h.clk.Add(100 * time.Millisecond)

	h.clk.Add(150 * time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	snap, _ := h.cb.Snapshot()
	require.Nil(t, snap)
}
