package middleware

import (
	_ "embed"
	"fmt"
	"net/http"
	"time"

	"sukesh_education/internal/observability"
	"sukesh_education/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

//go:embed rate_limiter.lua
var luaScript string

var tokenBucket = redis.NewScript(luaScript)

const msgRateLimited = "Too many attempts. Please wait a moment and try again."

// RateLimiterConfig holds rate limiter configuration
type RateLimiterConfig struct {
	Capacity   int     // Maximum number of tokens (max requests)
	RefillRate float64 // Tokens refilled per second
}

// RateLimiterMiddleware implements Token Bucket algorithm using Redis + Lua script.
// Buckets are per client IP and route.
func RateLimiterMiddleware(redisClient *redis.Client, config *RateLimiterConfig, metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}
		key := ClientRateLimiterKey(c.ClientIP(), endpoint)

		// EvalSha with a fallback to Eval when the script is not cached yet
		result, err := tokenBucket.Run(c.Request.Context(), redisClient, []string{key},
			config.Capacity,
			config.RefillRate,
			time.Now().Unix(),
		).Int64()
		if err != nil {
			logrus.WithError(err).Error("Failed to execute rate limiter Lua script")
			// Fail open: allow request if Redis fails
			c.Next()
			return
		}

		if result == 0 {
			metrics.RateLimitedTotal.WithLabelValues(endpoint).Inc()
			logrus.WithFields(logrus.Fields{
				"client_ip": c.ClientIP(),
				"endpoint":  endpoint,
			}).Warn("Rate limit exceeded")

			c.Header("Retry-After", fmt.Sprintf("%.0f", 1.0/config.RefillRate))
			if web.WantsJSON(c) {
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
					"success": false,
					"message": msgRateLimited,
				})
				return
			}

			data := web.NewPage(c, "Too Many Requests")
			data.Data["message"] = msgRateLimited
			web.Render(c, http.StatusTooManyRequests, web.PageError, data)
			c.Abort()
			return
		}

		c.Next()
	}
}

// ClientRateLimiterKey builds the bucket key for one client on one route.
func ClientRateLimiterKey(clientIP, endpoint string) string {
	return fmt.Sprintf("rate_limiter:ip:%s:%s", clientIP, endpoint)
}
