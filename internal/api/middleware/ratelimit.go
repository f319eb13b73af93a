package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/Conceptual-Machines/singalong-genie/internal/logger"
)

// RateLimit rejects requests above the limiter's rate with 429
func RateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter != nil && !limiter.Allow() {
			logger.Warn("Generation rate limit exceeded", logger.WithContext(c))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":      "Too many generation requests, please try again shortly",
				"request_id": c.GetString("request_id"),
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// NewGenerationLimiter allows perMinute generations with a burst of the same size.
// A non-positive rate disables limiting.
func NewGenerationLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute)
}
