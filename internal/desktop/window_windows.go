//go:build windows

package desktop

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

func minimizeNative(handle unsafe.Pointer) bool {
	if handle == nil {
		return false
	}
	windows.ShowWindow(windows.HWND(uintptr(handle)), windows.SW_MINIMIZE)
	return true
}
