//go:build windows

package appsource

import (
	"context"
	"syscall"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                     = windows.NewLazySystemDLL("user32.dll")
	procGetForegroundWindow    = user32.NewProc("GetForegroundWindow")
	procGetWindowTextW         = user32.NewProc("GetWindowTextW")
	procGetWindowThreadProcess = user32.NewProc("GetWindowThreadProcessId")
)

// windowsSource polls GetForegroundWindow, since Win32 has no portable
// cross-process "foreground changed" event short of a global SetWinEventHook
// (which would require a message loop this headless poller doesn't run).
type windowsSource struct {
	pollInterval time.Duration
}

// New returns the Windows app Source, polling every interval.
func New(interval time.Duration) Source {
	if interval <= 0 {
		interval = 200 * time.Millisecond
	}
	return &windowsSource{pollInterval: interval}
}

func (s *windowsSource) Events(ctx context.Context) (<-chan Event, error) {
	out := make(chan Event, 8)
	go func() {
		defer close(out)
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		var last string
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				name, title := foregroundApp()
				if name == "" || name == last {
					continue
				}
				last = name
				out <- Event{AppName: name, WindowTitle: title}
			}
		}
	}()
	return out, nil
}

func foregroundApp() (name, title string) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return "", ""
	}

	buf := make([]uint16, 512)
	n, _, _ := procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n > 0 {
		title = syscall.UTF16ToString(buf[:n])
	}

	var pid uint32
	procGetWindowThreadProcess.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
	if pid == 0 {
		return "", title
	}

	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return "", title
	}
	defer windows.CloseHandle(handle)

	pbuf := make([]uint16, windows.MAX_PATH)
	size := uint32(len(pbuf))
	if err := windows.QueryFullProcessImageName(handle, 0, &pbuf[0], &size); err != nil {
		return "", title
	}
	full := syscall.UTF16ToString(pbuf[:size])
	return baseName(full), title
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '\\' || path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
