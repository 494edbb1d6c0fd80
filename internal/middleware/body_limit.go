package middleware

import (
	"fmt"
	"net/http"

	"sukesh_education/internal/web"

	"github.com/gin-gonic/gin"
)

// BodyLimit caps every request body at limit bytes. Requests that declare a
// larger body are refused before anything is read.
func BodyLimit(limit int64) gin.HandlerFunc {
	msg := fmt.Sprintf("The request is too large. The limit is %d KB.", limit>>10)
	if limit >= 1<<20 {
		msg = fmt.Sprintf("The request is too large. The limit is %d MB.", limit>>20)
	}

	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			if web.WantsJSON(c) {
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
					"success": false,
					"message": msg,
				})
				return
			}
			data := web.NewPage(c, "Request Too Large")
			data.Data["message"] = msg
			web.Render(c, http.StatusRequestEntityTooLarge, web.PageError, data)
			c.Abort()
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
