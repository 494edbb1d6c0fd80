//go:build desktop

package main

import (
	"context"
	"errors"
	"html"
	"os"
	"path/filepath"
	"time"

	"sukesh_education/internal/config"
	"sukesh_education/internal/desktop"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	webview "github.com/webview/webview_go"
)

const (
	windowTitle = "Sukesh Education"
	appDirName  = "SukeshEducation"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	gin.SetMode(gin.ReleaseMode)

	if err := run(); err != nil {
		logrus.WithError(err).Error("Error in desktop application")
		showError(err)
		os.Exit(1)
	}
}

func run() (err error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return err
	}

	cfg, err := config.Desktop(filepath.Join(base, appDirName))
	if err != nil {
		return err
	}

	app, err := desktop.NewApp(context.Background(), cfg)
	if err != nil {
		return err
	}
	defer func() {
		logrus.Info("Shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if closeErr := app.Close(ctx); closeErr != nil {
			logrus.WithError(closeErr).Error("Failed to shut down cleanly")
			err = errors.Join(err, closeErr)
		}
	}()
	app.Server.Start()

	w := webview.New(false)
	defer w.Destroy()

	w.SetTitle(windowTitle)
	w.SetSize(1200, 800, webview.HintNone)
	w.SetSize(800, 600, webview.HintMin)

	api := desktop.NewWindowAPI(desktop.NativeWindow(w.Window()), "webview_go")
	if err := w.Bind("minimize_window", api.MinimizeWindow); err != nil {
		return err
	}
	if err := w.Bind("get_system_info", api.GetSystemInfo); err != nil {
		return err
	}

	logrus.Infof("Opening window at %s", app.Server.URL())
	w.Navigate(app.Server.URL())
	w.Run()

	logrus.Info("Application closed")
	return nil
}

func showError(err error) {
	w := webview.New(false)
	defer w.Destroy()
	w.SetTitle("Error")
	w.SetSize(500, 300, webview.HintNone)
	w.SetHtml("<html><body><h2>Error starting Sukesh Education</h2><p>" + html.EscapeString(err.Error()) + "</p></body></html>")
	w.Run()
}
