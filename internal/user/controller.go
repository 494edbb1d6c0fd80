package user

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"sukesh_education/internal/apperror"
	"sukesh_education/internal/auth"
	"sukesh_education/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const defaultRedirect = "/dashboard"

// CookieOptions configures the session cookie.
type CookieOptions struct {
	Name   string
	Secure bool
}

type UserController struct {
	userService UserServiceInterface
	cookie      CookieOptions
}

func NewUserController(userService UserServiceInterface, cookie CookieOptions) *UserController {
	return &UserController{
		userService: userService,
		cookie:      cookie,
	}
}

func (a *UserController) LoginPage(c *gin.Context) {
	data := web.NewPage(c, "Log In")
	data.Form["next"] = c.Query("next")
	web.Render(c, http.StatusOK, web.PageLogin, data)
}

// Login handles the login form and opens a session
func (a *UserController) Login(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	remember := c.PostForm("remember_me") != ""
	form := map[string]string{"email": email, "next": c.Query("next")}

	var fields []apperror.FieldError
	if email == "" {
		fields = append(fields, apperror.FieldError{Field: "email", Message: "This field is required."})
	}
	if password == "" {
		fields = append(fields, apperror.FieldError{Field: "password", Message: "This field is required."})
	}
	if len(fields) > 0 {
		a.renderLoginError(c, form, apperror.NewValidationError(fields...))
		return
	}

	session, err := a.userService.Login(c.Request.Context(), email, password, remember)
	if err != nil {
		a.renderLoginError(c, form, err)
		return
	}

	a.setSessionCookie(c, session)
	web.SetFlash(c, web.FlashSuccess, "Login successful!")
	web.Redirect(c, safeNext(c.Query("next")))
}

func (a *UserController) renderLoginError(c *gin.Context, form map[string]string, err error) {
	web.RenderFormError(c, web.PageLogin, "Log In", form, err)
}

// Logout ends the session. Calling it without a session is harmless.
func (a *UserController) Logout(c *gin.Context) {
	token, _ := c.Cookie(a.cookie.Name)
	if err := a.userService.Logout(c.Request.Context(), token); err != nil {
		logrus.WithError(err).Warn("Failed to delete session on logout")
	}

	a.clearSessionCookie(c)
	web.SetFlash(c, web.FlashInfo, "You have been logged out.")
	web.Redirect(c, "/auth/login")
}

func (a *UserController) RegisterPage(c *gin.Context) {
	web.Render(c, http.StatusOK, web.PageRegister, web.NewPage(c, "Register"))
}

// Register handles the registration form
func (a *UserController) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBind(&input); err != nil {
		web.RenderFormError(c, web.PageRegister, "Register", nil, apperror.NewBadRequest("Invalid form submission."))
		return
	}

	form := map[string]string{"email": input.Email, "name": input.Name}
	if _, err := a.userService.Register(c.Request.Context(), input); err != nil {
		web.RenderFormError(c, web.PageRegister, "Register", form, err)
		return
	}

	web.SetFlash(c, web.FlashSuccess, "Registration successful! You can now log in.")
	web.Redirect(c, "/auth/login")
}

func (a *UserController) ForgotPasswordPage(c *gin.Context) {
	web.Render(c, http.StatusOK, web.PageForgotPassword, web.NewPage(c, "Forgot Password"))
}

// ForgotPassword always answers with the same confirmation
func (a *UserController) ForgotPassword(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))

	message, err := a.userService.RequestPasswordReset(c.Request.Context(), email)
	if err != nil {
		web.RenderFormError(c, web.PageForgotPassword, "Forgot Password", map[string]string{"email": email}, err)
		return
	}

	web.SetFlash(c, web.FlashInfo, message)
	web.Redirect(c, "/auth/login")
}

func (a *UserController) ResetPasswordPage(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		web.SetFlash(c, web.FlashDanger, MsgInvalidResetLink)
		web.Redirect(c, "/auth/forgot-password")
		return
	}

	data := web.NewPage(c, "Reset Password")
	data.Form["token"] = token
	web.Render(c, http.StatusOK, web.PageResetPassword, data)
}

func (a *UserController) ResetPassword(c *gin.Context) {
	token := c.PostForm("token")

	err := a.userService.ResetPassword(c.Request.Context(), token, c.PostForm("password"), c.PostForm("password_confirm"))
	if err != nil {
		if apperror.Is(err, apperror.TypeAuth) {
			web.SetFlash(c, web.FlashDanger, MsgInvalidResetLink)
			web.Redirect(c, "/auth/forgot-password")
			return
		}
		web.RenderFormError(c, web.PageResetPassword, "Reset Password", map[string]string{"token": token}, err)
		return
	}

	web.SetFlash(c, web.FlashSuccess, "Your password has been reset. You can now log in.")
	web.Redirect(c, "/auth/login")
}

func (a *UserController) setSessionCookie(c *gin.Context, session *auth.Session) {
	// Without remember-me the cookie lives until the browser closes
	maxAge := 0
	if session.Remember {
		maxAge = int(time.Until(session.ExpiresAt).Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(a.cookie.Name, session.Token, maxAge, "/", "", a.cookie.Secure, true)
}

func (a *UserController) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(a.cookie.Name, "", -1, "/", "", a.cookie.Secure, true)
}

// safeNext only follows relative paths on this host.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return defaultRedirect
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return defaultRedirect
	}
	return next
}
