package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Page names, matching templates/<name>.page.html.
const (
	PageIndex          = "index"
	PageDashboard      = "dashboard"
	PageLogin          = "login"
	PageRegister       = "register"
	PageForgotPassword = "forgot_password"
	PageResetPassword  = "reset_password"
	PageProfile        = "profile"
	PageMySubjects     = "my_subjects"
	PageError          = "error"
)

// CurrentUserKey holds the logged in user, set by the session middleware.
const CurrentUserKey = "currentUser"

// CSRFTokenKey holds the masked form token, set by the CSRF middleware.
const CSRFTokenKey = "csrfToken"

type PageData struct {
	Title       string
	AppName     string
	Path        string
	Flash       *Flash
	CurrentUser any
	CSRFToken   string
	Form        map[string]string
	Errors      map[string]string
	Data        map[string]any
}

// NewPage collects the per-request values every template needs.
func NewPage(c *gin.Context, title string) *PageData {
	p := &PageData{
		Title:     title,
		Path:      c.Request.URL.Path,
		Flash:     PopFlash(c),
		CSRFToken: c.GetString(CSRFTokenKey),
		Form:      map[string]string{},
		Errors:    map[string]string{},
		Data:      map[string]any{},
	}
	if appName, ok := c.Get(AppNameKey); ok {
		p.AppName, _ = appName.(string)
	}
	if u, ok := c.Get(CurrentUserKey); ok {
		p.CurrentUser = u
	}
	return p
}

func (p *PageData) WithFlash(category, message string) *PageData {
	p.Flash = &Flash{Category: category, Message: message}
	return p
}

// AppNameKey is set once per request by the router.
const AppNameKey = "appName"

func Render(c *gin.Context, status int, page string, data *PageData) {
	c.HTML(status, page, data)
}

// Redirect after a POST uses 303 so browsers follow with GET.
func Redirect(c *gin.Context, location string) {
	status := http.StatusFound
	if c.Request.Method == http.MethodPost {
		status = http.StatusSeeOther
	}
	c.Redirect(status, location)
}
