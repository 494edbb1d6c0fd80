package middleware

import (
	"context"
	"net/http"

	"sukesh_education/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
	"github.com/sirupsen/logrus"
)

const (
	// CSRFHeader carries the token on AJAX requests. Every response echoes
	// the current token in it too.
	CSRFHeader = "X-CSRF-Token"
	// CSRFField is the hidden form input rendered by the csrf_field partial.
	CSRFField = "csrf_token"

	csrfCookie      = "_csrf"
	msgCSRFRejected = "Your form has expired. Please reload the page and try again."
)

type CSRFOptions struct {
	// Key is the 32 byte secret that authenticates the CSRF cookie.
	Key    []byte
	Secure bool
	// TrustedOrigins are extra hosts whose Origin or Referer is accepted on HTTPS.
	TrustedOrigins []string
}

type csrfFailureKey struct{}

type csrfFailure struct {
	reason error
	token  string
}

// CSRF rejects unsafe requests that lack a token matching the CSRF cookie.
// The token is taken from the X-CSRF-Token header or the csrf_token form field.
func CSRF(opts CSRFOptions) gin.HandlerFunc {
	protect := csrf.Protect(opts.Key,
		csrf.Secure(opts.Secure),
		csrf.HttpOnly(true),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.CookieName(csrfCookie),
		csrf.FieldName(CSRFField),
		csrf.RequestHeader(CSRFHeader),
		csrf.TrustedOrigins(opts.TrustedOrigins),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if f, ok := r.Context().Value(csrfFailureKey{}).(*csrfFailure); ok {
				f.reason = csrf.FailureReason(r)
				f.token = csrf.Token(r)
			}
		})),
	)

	return func(c *gin.Context) {
		failure := &csrfFailure{}
		req := c.Request.WithContext(context.WithValue(c.Request.Context(), csrfFailureKey{}, failure))
		if !isHTTPS(c) {
			req = csrf.PlaintextHTTPRequest(req)
		}

		passed := false
		protect(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r

			token := csrf.Token(r)
			c.Set(web.CSRFTokenKey, token)
			c.Header(CSRFHeader, token)
			c.Next()
		})).ServeHTTP(c.Writer, req)

		if passed {
			return
		}

		logrus.WithFields(logrus.Fields{
			"client_ip": c.ClientIP(),
			"path":      c.Request.URL.Path,
		}).WithError(failure.reason).Warn("CSRF check failed")

		// A fresh token lets the client retry after reloading.
		c.Set(web.CSRFTokenKey, failure.token)
		c.Header(CSRFHeader, failure.token)

		if web.WantsJSON(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": msgCSRFRejected,
			})
			return
		}

		data := web.NewPage(c, "Form Expired")
		data.Data["message"] = msgCSRFRejected
		web.Render(c, http.StatusForbidden, web.PageError, data)
		c.Abort()
	}
}

// isHTTPS reports whether the browser reached us over TLS, directly or via a proxy.
func isHTTPS(c *gin.Context) bool {
	return c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https"
}
