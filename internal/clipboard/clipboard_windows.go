//go:build windows

package clipboard

import (
	"fmt"
	"syscall"
	"time"
	"unsafe"

	"github.com/siguna/dlpagent/internal/fingerprint"
	"github.com/siguna/dlpagent/internal/model"
	"go.uber.org/zap"
	"golang.org/x/sys/windows"
)

const (
	cfUnicodeText = 13
	cfHDrop       = 15
	gmemMoveable  = 0x0002
)

var (
	user32                   = windows.NewLazySystemDLL("user32.dll")
	kernel32                 = windows.NewLazySystemDLL("kernel32.dll")
	shell32                  = windows.NewLazySystemDLL("shell32.dll")
	procOpenClipboard        = user32.NewProc("OpenClipboard")
	procCloseClipboard       = user32.NewProc("CloseClipboard")
	procEmptyClipboard       = user32.NewProc("EmptyClipboard")
	procGetClipboardData     = user32.NewProc("GetClipboardData")
	procSetClipboardData     = user32.NewProc("SetClipboardData")
	procIsClipboardFormatAvl = user32.NewProc("IsClipboardFormatAvailable")
	procGlobalAlloc          = kernel32.NewProc("GlobalAlloc")
	procGlobalLock           = kernel32.NewProc("GlobalLock")
	procGlobalUnlock         = kernel32.NewProc("GlobalUnlock")
	procDragQueryFile        = shell32.NewProc("DragQueryFileW")
)

// windowsClipboard implements Clipboard via the Win32 clipboard API, per
// SPEC_FULL.md DOMAIN STACK: golang.org/x/sys/windows carries the DLL/proc
// plumbing, bounded retry covers OpenClipboard's well-known transient
// "clipboard busy" failure mode (base spec §4.1).
type windowsClipboard struct {
	logger *zap.Logger
}

// New returns the Windows Clipboard implementation.
func New(logger *zap.Logger) Clipboard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &windowsClipboard{logger: logger}
}

func (c *windowsClipboard) Snapshot() (*model.Item, error) {
	var item *model.Item
	err := retryOpen(c.logger, 10, 40*time.Millisecond, func() error {
		if ok, _, _ := procOpenClipboard.Call(0); ok == 0 {
			return fmt.Errorf("OpenClipboard failed")
		}
		defer procCloseClipboard.Call()

		if avail, _, _ := procIsClipboardFormatAvl.Call(cfHDrop); avail != 0 {
			if path, ok := readHDrop(); ok {
				item = model.NewFile(path)
				return nil
			}
		}
		if avail, _, _ := procIsClipboardFormatAvl.Call(cfUnicodeText); avail != 0 {
			if text, ok := readUnicodeText(); ok {
				item = model.NewText(text)
				return nil
			}
		}
		return nil
	})
	return item, err
}

func (c *windowsClipboard) Take() (*model.Item, error) {
	var item *model.Item
	err := withLock(func() error {
		snap, err := c.Snapshot()
		if err != nil || snap == nil {
			return err
		}
		item = snap
		return c.clear()
	})
	return item, err
}

func (c *windowsClipboard) Put(item *model.Item) error {
	return withLock(func() error {
		return retryOpen(c.logger, 10, 40*time.Millisecond, func() error {
			if ok, _, _ := procOpenClipboard.Call(0); ok == 0 {
				return fmt.Errorf("OpenClipboard failed")
			}
			defer procCloseClipboard.Call()
			procEmptyClipboard.Call()

			switch item.Kind {
			case model.KindFile:
				if err := writeHDrop(item.Path); err == nil {
					return nil
				}
				c.logger.Warn("file-object clipboard write unavailable, degrading to plain path string",
					zap.String("path", item.Path))
				return writeUnicodeText(item.Path)
			case model.KindImage:
				return nil
			default:
				return writeUnicodeText(item.Text)
			}
		})
	})
}

func (c *windowsClipboard) FingerprintCurrent() fingerprint.QuickHash {
	snap, err := c.Snapshot()
	if err != nil || snap == nil {
		return 0
	}
	return fingerprint.QuickHashOf(snap.CanonicalBytes())
}

func (c *windowsClipboard) clear() error {
	if ok, _, _ := procOpenClipboard.Call(0); ok == 0 {
		return fmt.Errorf("OpenClipboard failed")
	}
	defer procCloseClipboard.Call()
	procEmptyClipboard.Call()
	return nil
}

func readUnicodeText() (string, bool) {
	h, _, _ := procGetClipboardData.Call(cfUnicodeText)
	if h == 0 {
		return "", false
	}
	ptr, _, _ := procGlobalLock.Call(h)
	if ptr == 0 {
		return "", false
	}
	defer procGlobalUnlock.Call(h)
	return windows.UTF16PtrToString((*uint16)(unsafe.Pointer(ptr))), true
}

func writeUnicodeText(s string) error {
	u16, err := syscall.UTF16FromString(s)
	if err != nil {
		return err
	}
	size := len(u16) * 2
	hMem, _, _ := procGlobalAlloc.Call(gmemMoveable, uintptr(size))
	if hMem == 0 {
		return fmt.Errorf("GlobalAlloc failed")
	}
	ptr, _, _ := procGlobalLock.Call(hMem)
	if ptr == 0 {
		return fmt.Errorf("GlobalLock failed")
	}
	dst := unsafe.Slice((*uint16)(unsafe.Pointer(ptr)), len(u16))
	copy(dst, u16)
	procGlobalUnlock.Call(hMem)

	if r, _, _ := procSetClipboardData.Call(cfUnicodeText, hMem); r == 0 {
		return fmt.Errorf("SetClipboardData failed")
	}
	return nil
}

// readHDrop reads the first path out of a CF_HDROP payload, matching base
// spec §4.1's "file URL type preferred over string type" rule.
func readHDrop() (string, bool) {
	h, _, _ := procGetClipboardData.Call(cfHDrop)
	if h == 0 {
		return "", false
	}
	n, _, _ := procDragQueryFile.Call(h, 0xFFFFFFFF, 0, 0)
	if n == 0 {
		return "", false
	}
	buf := make([]uint16, 260)
	ln, _, _ := procDragQueryFile.Call(h, 0, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if ln == 0 {
		return "", false
	}
	return syscall.UTF16ToString(buf[:ln]), true
}

// dropFiles mirrors the Win32 DROPFILES header (pFiles DWORD, pt POINT, fNC
// BOOL, fWide BOOL — 20 bytes), followed by a double-null-terminated list of
// wide-character file paths.
type dropFiles struct {
	pFiles uint32
	ptX    int32
	ptY    int32
	fNC    int32
	fWide  int32
}

// writeHDrop writes path as a CF_HDROP file-object payload, the format base
// spec §4.1 requires attempting before falling back to a plain path string.
func writeHDrop(path string) error {
	u16, err := syscall.UTF16FromString(path)
	if err != nil {
		return err
	}

	const headerSize = 20 // unsafe.Sizeof(dropFiles{})
	listBytes := (len(u16) + 1) * 2 // +1 for the list's extra terminating null
	hMem, _, _ := procGlobalAlloc.Call(gmemMoveable, uintptr(headerSize+listBytes))
	if hMem == 0 {
		return fmt.Errorf("GlobalAlloc failed")
	}
	ptr, _, _ := procGlobalLock.Call(hMem)
	if ptr == 0 {
		return fmt.Errorf("GlobalLock failed")
	}

	header := (*dropFiles)(unsafe.Pointer(ptr))
	*header = dropFiles{pFiles: headerSize, fWide: 1}

	dst := unsafe.Slice((*uint16)(unsafe.Pointer(ptr+headerSize)), len(u16)+1)
	copy(dst, u16)
	dst[len(u16)] = 0 // second null terminates the file list
	procGlobalUnlock.Call(hMem)

	if r, _, _ := procSetClipboardData.Call(cfHDrop, hMem); r == 0 {
		return fmt.Errorf("SetClipboardData failed")
	}
	return nil
}
