//go:build windows

package window

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32             = windows.NewLazySystemDLL("user32.dll")
	procGetWindowTextW = user32.NewProc("GetWindowTextW")
)

type foregroundInspector struct{}

func newPlatformInspector() Inspector {
	if err := procGetWindowTextW.Find(); err != nil {
		return Unavailable
	}
	return foregroundInspector{}
}

func (foregroundInspector) Title() (string, bool) {
	hwnd := windows.GetForegroundWindow()
	if hwnd == 0 {
		return "", false
	}

	var buf [512]uint16
	n, _, _ := procGetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		return "", false
	}
	return normalize(windows.UTF16ToString(buf[:n]))
}
