//go:build !windows && !(desktop && linux && cgo)

package desktop

import "unsafe"

func minimizeNative(unsafe.Pointer) bool {
	return false
}
