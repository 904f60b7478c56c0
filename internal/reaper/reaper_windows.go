//go:build windows

package reaper

import (
	"fmt"
	"strings"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

const th32csSnapprocess = 0x00000002

// processEntry32 mirrors the Win32 PROCESSENTRY32W struct layout needed to
// walk a CreateToolhelp32Snapshot process list.
type processEntry32 struct {
	Size            uint32
	CntUsage        uint32
	ProcessID       uint32
	DefaultHeapID   uintptr
	ModuleID        uint32
	CntThreads      uint32
	ParentProcessID uint32
	PriClassBase    int32
	Flags           uint32
	ExeFile         [windows.MAX_PATH]uint16
}

var (
	kernel32                 = windows.NewLazySystemDLL("kernel32.dll")
	user32                   = windows.NewLazySystemDLL("user32.dll")
	ntdll                    = windows.NewLazySystemDLL("ntdll.dll")
	procCreateToolhelp32Snap = kernel32.NewProc("CreateToolhelp32Snapshot")
	procProcess32FirstW      = kernel32.NewProc("Process32FirstW")
	procProcess32NextW       = kernel32.NewProc("Process32NextW")
	procEnumWindows          = user32.NewProc("EnumWindows")
	procGetWindowTextW       = user32.NewProc("GetWindowTextW")
	procGetWindowThreadPID   = user32.NewProc("GetWindowThreadProcessId")
	procIsWindowVisible      = user32.NewProc("IsWindowVisible")
	procReadProcessMemory    = kernel32.NewProc("ReadProcessMemory")
	procNtQueryInfoProcess   = ntdll.NewProc("NtQueryInformationProcess")
)

// toolhelpScanner walks a CreateToolhelp32Snapshot process list, the
// standard Win32 process-enumeration mechanism this agent's other
// components (appsource) already depend on via golang.org/x/sys/windows.
type toolhelpScanner struct{}

// NewScanner returns the Windows process Scanner.
func NewScanner() Scanner { return toolhelpScanner{} }

func (toolhelpScanner) List() ([]ProcessInfo, error) {
	snap, _, _ := procCreateToolhelp32Snap.Call(th32csSnapprocess, 0)
	if snap == 0 || snap == uintptr(syscall.InvalidHandle) {
		return nil, fmt.Errorf("CreateToolhelp32Snapshot failed")
	}
	defer windows.CloseHandle(windows.Handle(snap))

	var entry processEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))

	var procs []ProcessInfo
	ok, _, _ := procProcess32FirstW.Call(snap, uintptr(unsafe.Pointer(&entry)))
	if ok == 0 {
		return procs, nil
	}
	for {
		pid := entry.ProcessID
		procs = append(procs, ProcessInfo{
			PID:   int(pid),
			Name:  windows.UTF16ToString(entry.ExeFile[:]),
			Path:  queryFullPath(pid),
			Argv0: argv0Of(pid),
		})
		ok, _, _ := procProcess32NextW.Call(snap, uintptr(unsafe.Pointer(&entry)))
		if ok == 0 {
			break
		}
	}

	titles := bannedCandidateWindowTitles()
	for i := range procs {
		if t, ok := titles[uint32(procs[i].PID)]; ok {
			procs[i].Title = t
		}
	}
	return procs, nil
}

// queryFullPath resolves pid's full executable path via
// QueryFullProcessImageName, returning "" (best-effort) if the process has
// exited or denies query access (e.g. a protected system process).
func queryFullPath(pid uint32) string {
	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return ""
	}
	defer windows.CloseHandle(handle)

	buf := make([]uint16, windows.MAX_PATH)
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(handle, 0, &buf[0], &size); err != nil {
		return ""
	}
	return windows.UTF16ToString(buf[:size])
}

// bannedCandidateWindowTitles enumerates every visible top-level window and
// returns the owning PID mapped to its title, the data base spec §4.6's
// Windows-only "terminate processes owning windows whose titles match
// banned titles" rule matches against.
func bannedCandidateWindowTitles() map[uint32]string {
	titles := make(map[uint32]string)
	cb := syscall.NewCallback(func(hwnd syscall.Handle, _ uintptr) uintptr {
		if visible, _, _ := procIsWindowVisible.Call(uintptr(hwnd)); visible == 0 {
			return 1 // keep enumerating
		}
		var buf [256]uint16
		n, _, _ := procGetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
		if n == 0 {
			return 1
		}
		var pid uint32
		procGetWindowThreadPID.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&pid)))
		titles[pid] = windows.UTF16ToString(buf[:n])
		return 1
	})
	procEnumWindows.Call(cb, 0)
	return titles
}

// termKiller opens and terminates a process by PID via OpenProcess +
// TerminateProcess.
type termKiller struct{}

// NewKiller returns the Windows process Killer.
func NewKiller() Killer { return termKiller{} }

func (termKiller) Kill(pid int) error {
	handle, err := windows.OpenProcess(windows.PROCESS_TERMINATE, false, uint32(pid))
	if err != nil {
		return fmt.Errorf("OpenProcess failed: %w", err)
	}
	defer windows.CloseHandle(handle)
	return windows.TerminateProcess(handle, 1)
}

// unicodeString mirrors the Win32 UNICODE_STRING struct (Length,
// MaximumLength, then Buffer padded to an 8-byte boundary on amd64).
type unicodeString struct {
	Length        uint16
	MaximumLength uint16
	_             uint32
	Buffer        uintptr
}

// processBasicInformation mirrors the subset of PROCESS_BASIC_INFORMATION
// NtQueryInformationProcess fills in; only PebBaseAddress is used here.
type processBasicInformation struct {
	ExitStatus                   uintptr
	PebBaseAddress               uintptr
	AffinityMask                 uintptr
	BasePriority                 uintptr
	UniqueProcessID              uintptr
	InheritedFromUniqueProcessID uintptr
}

const processBasicInformationClass = 0

// PEB.ProcessParameters and RTL_USER_PROCESS_PARAMETERS.CommandLine are
// undocumented but stable offsets on 64-bit Windows, the layout this agent
// builds for.
const (
	pebProcessParametersOffset = 0x20
	paramsCommandLineOffset    = 0x70
)

// argv0Of best-effort reads pid's command line via its PEB — the standard,
// if undocumented, way to recover another process's argv on Windows, since
// toolhelp and QueryFullProcessImageName both only ever expose the
// executable path, never argv[0] as actually invoked (e.g. the script name
// for "python sharex_clone.py"). Returns "" on any failure, including
// access-denied for processes of another user or elevation level.
func argv0Of(pid uint32) string {
	cmdline, err := commandLineOf(pid)
	if err != nil || cmdline == "" {
		return ""
	}
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func commandLineOf(pid uint32) (string, error) {
	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_INFORMATION|windows.PROCESS_VM_READ, false, pid)
	if err != nil {
		return "", err
	}
	defer windows.CloseHandle(handle)

	var pbi processBasicInformation
	var retLen uint32
	if ret, _, _ := procNtQueryInfoProcess.Call(
		uintptr(handle), processBasicInformationClass,
		uintptr(unsafe.Pointer(&pbi)), unsafe.Sizeof(pbi), uintptr(unsafe.Pointer(&retLen)),
	); ret != 0 {
		return "", fmt.Errorf("NtQueryInformationProcess failed: 0x%x", ret)
	}

	paramsAddr, err := readPointer(handle, pbi.PebBaseAddress+pebProcessParametersOffset)
	if err != nil {
		return "", err
	}

	var cmdline unicodeString
	if err := readMemory(handle, paramsAddr+paramsCommandLineOffset, unsafe.Pointer(&cmdline), unsafe.Sizeof(cmdline)); err != nil {
		return "", err
	}
	if cmdline.Length == 0 {
		return "", nil
	}

	buf := make([]uint16, cmdline.Length/2)
	if err := readMemory(handle, cmdline.Buffer, unsafe.Pointer(&buf[0]), uintptr(cmdline.Length)); err != nil {
		return "", err
	}
	return windows.UTF16ToString(buf), nil
}

func readPointer(handle windows.Handle, addr uintptr) (uintptr, error) {
	var val uintptr
	if err := readMemory(handle, addr, unsafe.Pointer(&val), unsafe.Sizeof(val)); err != nil {
		return 0, err
	}
	return val, nil
}

func readMemory(handle windows.Handle, addr uintptr, out unsafe.Pointer, size uintptr) error {
	var n uintptr
	ok, _, err := procReadProcessMemory.Call(uintptr(handle), addr, uintptr(out), size, uintptr(unsafe.Pointer(&n)))
	if ok == 0 {
		return err
	}
	return nil
}
