package desktop

import (
	"runtime"
	"unsafe"

	"github.com/sirupsen/logrus"
)

// Minimizer iconifies the application window.
type Minimizer interface {
	Minimize() bool
}

type nativeWindow struct {
	handle unsafe.Pointer
}

// NativeWindow wraps the platform window handle returned by the webview.
func NativeWindow(handle unsafe.Pointer) Minimizer {
	return &nativeWindow{handle: handle}
}

func (w *nativeWindow) Minimize() bool {
	return minimizeNative(w.handle)
}

type SystemInfo struct {
	Platform  string `json:"platform"`
	Arch      string `json:"arch"`
	GoVersion string `json:"go_version"`
	NumCPU    int    `json:"num_cpu"`
	Webview   string `json:"webview"`
}

// WindowAPI is bound into the page as window.minimize_window and window.get_system_info.
type WindowAPI struct {
	window  Minimizer
	webview string
}

func NewWindowAPI(window Minimizer, webviewName string) *WindowAPI {
	return &WindowAPI{window: window, webview: webviewName}
}

func (a *WindowAPI) MinimizeWindow() bool {
	logrus.Info("Minimizing window")
	ok := a.window.Minimize()
	if !ok {
		logrus.Warn("Window minimize is not supported on this platform")
	}
	return ok
}

func (a *WindowAPI) GetSystemInfo() SystemInfo {
	return SystemInfo{
		Platform:  runtime.GOOS,
		Arch:      runtime.GOARCH,
		GoVersion: runtime.Version(),
		NumCPU:    runtime.NumCPU(),
		Webview:   a.webview,
	}
}
