package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"sukesh_education/internal/auth"
	"sukesh_education/internal/user"
	"sukesh_education/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const msgLoginRequired = "Please log in to access this page."

// SessionResolver maps a session token to its user.
type SessionResolver interface {
	CurrentUser(ctx context.Context, token string) (*user.User, error)
}

// LoadSession attaches the logged in user, if any, to the request context.
// Stale cookies are cleared; lookup failures leave the request anonymous.
func LoadSession(resolver SessionResolver, cookieName string, secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			c.Next()
			return
		}

		u, err := resolver.CurrentUser(c.Request.Context(), token)
		switch {
		case err == nil:
			c.Set(auth.UserIDKey, u.ID)
			c.Set(auth.SessionTokenKey, token)
			c.Set(web.CurrentUserKey, u)
		case errors.Is(err, auth.ErrSessionNotFound), errors.Is(err, user.ErrUserNotFound):
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cookieName, "", -1, "/", "", secure, true)
		default:
			logrus.WithError(err).Warn("Failed to load session")
		}

		c.Next()
	}
}

// RequireSession rejects anonymous requests. Pages redirect to the login form,
// AJAX and JSON clients get a 401.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth.IsAuthenticated(c) {
			c.Next()
			return
		}

		if web.WantsJSON(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": msgLoginRequired,
			})
			return
		}

		web.SetFlash(c, web.FlashInfo, msgLoginRequired)
		c.Redirect(http.StatusFound, "/auth/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
		c.Abort()
	}
}

// RequireGuest sends logged in users away from the login and registration pages.
func RequireGuest() gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth.IsAuthenticated(c) {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

// AppContext exposes per-application values to every template.
func AppContext(appName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(web.AppNameKey, appName)
		c.Next()
	}
}
