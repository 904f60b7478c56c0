package alertsink

import (
	"context"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"
)

// FyneUserNotifier shows a modal popup on the native desktop using a single
// shared Fyne application instance, matching the teacher's gui.App
// construction pattern (app.New / fyneApp.NewWindow) but scoped to a single
// transient alert dialog instead of a persistent window.
type FyneUserNotifier struct {
	fyneApp fyne.App
	Log     AuditLog
	logger  *zap.Logger
}

// NewFyneUserNotifier builds a notifier backed by a hidden driver-owned
// Fyne application. log may be nil to skip auditing.
func NewFyneUserNotifier(log AuditLog, logger *zap.Logger) *FyneUserNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FyneUserNotifier{
		fyneApp: app.New(),
		Log:     log,
		logger:  logger,
	}
}

// RunEventLoop pumps the underlying Fyne driver's event loop and blocks
// until Quit is called. The daemon must run this exactly once, on its own
// goroutine, before any NotifyHold call can render a window.
func (n *FyneUserNotifier) RunEventLoop() {
	n.fyneApp.Run()
}

// Quit stops the Fyne event loop started by RunEventLoop.
func (n *FyneUserNotifier) Quit() {
	n.fyneApp.Quit()
}

func (n *FyneUserNotifier) NotifyHold(ctx context.Context, message string, autoDismiss time.Duration) error {
	record := NewRecord(KindClipboardHold, "", message)

	win := n.fyneApp.NewWindow("DLP Agent")
	win.Resize(fyne.NewSize(420, 160))
	win.SetFixedSize(true)
	win.CenterOnScreen()

	label := widget.NewLabel(message)
	label.Wrapping = fyne.TextWrapWord
	content := container.NewVBox(
		widget.NewLabelWithStyle("Clipboard held", fyne.TextAlignCenter, fyne.TextStyle{Bold: true}),
		label,
	)
	win.SetContent(content)

	done := make(chan struct{})
	win.SetOnClosed(func() { close(done) })
	win.Show()

	if autoDismiss <= 0 {
		autoDismiss = 6 * time.Second
	}
	timer := time.AfterFunc(autoDismiss, func() {
		win.Close()
	})

	select {
	case <-done:
	case <-ctx.Done():
		timer.Stop()
		win.Close()
	}

	record.Delivered = true
	if n.Log != nil {
		if err := n.Log.Append(record); err != nil {
			n.logger.Debug("failed to append hold-alert audit record", zap.Error(err))
		}
	}
	return nil
}

// ShowError is a convenience used by callers that need a blocking
// acknowledgement-style dialog instead of an auto-dismissing hold notice
// (e.g. a fatal startup configuration error in the CLI path).
func ShowError(title, message string, win fyne.Window) {
	dialog.ShowInformation(title, message, win)
}

var _ UserNotifier = (*FyneUserNotifier)(nil)
