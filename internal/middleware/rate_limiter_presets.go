package middleware

import "sukesh_education/internal/config"

// AuthRateLimiter - For login and registration, from RATE_LIMIT_* settings
// Default: burst 5, sustained 1 request per 10 seconds
func AuthRateLimiter(cfg config.RateLimitConfig) *RateLimiterConfig {
	return &RateLimiterConfig{
		Capacity:   cfg.Capacity,
		RefillRate: cfg.RefillRate,
	}
}

// StrictRateLimiter - For password reset requests, which send mail
// Burst: 3 requests, Sustained: 1 request per minute
func StrictRateLimiter() *RateLimiterConfig {
	return &RateLimiterConfig{
		Capacity:   3,
		RefillRate: 1.0 / 60,
	}
}
