package web

import (
	"net/http"
	"strings"

	"sukesh_education/internal/apperror"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RespondError writes {success:false, message[, errors]} with the status of err.
func RespondError(c *gin.Context, err error) {
	appErr, ok := apperror.As(err)
	if !ok {
		appErr = apperror.NewInternal(err)
	}

	if appErr.StatusCode() >= http.StatusInternalServerError {
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("Request failed")
	}

	body := gin.H{"success": false, "message": appErr.Message}
	if len(appErr.Fields) > 0 {
		body["errors"] = appErr.FieldMap()
	}
	c.JSON(appErr.StatusCode(), body)
}

// WantsJSON reports whether the client expects a JSON answer rather than a page.
func WantsJSON(c *gin.Context) bool {
	if c.GetHeader("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	if strings.HasPrefix(c.ContentType(), gin.MIMEJSON) {
		return true
	}
	accept := c.GetHeader("Accept")
	return strings.Contains(accept, gin.MIMEJSON) && !strings.Contains(accept, gin.MIMEHTML)
}

// RenderFormError re-renders a form page with field errors or a flash message
// taken from err.
func RenderFormError(c *gin.Context, page, title string, form map[string]string, err error) {
	appErr, ok := apperror.As(err)
	if !ok {
		appErr = apperror.NewInternal(err)
	}

	data := NewPage(c, title)
	for k, v := range form {
		data.Form[k] = v
	}

	switch appErr.Type {
	case apperror.TypeValidation:
		data.Errors = appErr.FieldMap()
	case apperror.TypeAuth, apperror.TypeBadRequest:
		data.WithFlash(FlashDanger, appErr.Message)
	default:
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("Request failed")
		data.WithFlash(FlashDanger, appErr.Message)
	}

	Render(c, appErr.StatusCode(), page, data)
}
