//go:build desktop && linux && cgo

package desktop

/*
#cgo pkg-config: gtk+-3.0
#include <gtk/gtk.h>

static void iconify_window(void *w) {
	gtk_window_iconify(GTK_WINDOW(w));
}
*/
import "C"

import "unsafe"

func minimizeNative(handle unsafe.Pointer) bool {
	if handle == nil {
		return false
	}
	C.iconify_window(handle)
	return true
}
