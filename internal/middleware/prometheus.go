package middleware

import (
	"strconv"
	"strings"
	"time"

	"sukesh_education/internal/observability"

	"github.com/gin-gonic/gin"
)

const unmatchedRoute = "unmatched"

// PrometheusMiddleware records request counts, latency and in-flight requests.
// Requests are labelled by route pattern; static files share one label and
// unknown paths are grouped so scanners cannot blow up label cardinality.
func PrometheusMiddleware(metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		start := time.Now()
		c.Next()

		endpoint := routeLabel(c)
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

func routeLabel(c *gin.Context) string {
	route := c.FullPath() // e.g. /auth/login
	switch {
	case route == "":
		return unmatchedRoute
	case strings.HasPrefix(route, "/static/"):
		return "/static"
	default:
		return route
	}
}
