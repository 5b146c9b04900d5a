package middleware

import (
	"fmt"
	"net/http"

	"github.com/getOrdira/ordira-voting/internal/admission"
	"github.com/gin-gonic/gin"
)

// Admit gates a costly route through the admission controller. The skip
// list is checked before any counter work so exempt endpoints never
// consume quota. Must run after RequireAuth.
func Admit(controller *admission.Controller, resource string, skipPaths []string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, path := range skipPaths {
		skip[path] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, exempt := skip[c.Request.URL.Path]; exempt {
			c.Next()
			return
		}

		principalID, ok := UserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		decision, err := controller.Check(c.Request.Context(), principalID, resource)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Rate limit check failed"})
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Tier", decision.Tier)
		c.Header("X-RateLimit-Remaining-Minute", fmt.Sprintf("%d", decision.Remaining.Minute))
		c.Header("X-RateLimit-Remaining-Hour", fmt.Sprintf("%d", decision.Remaining.Hour))
		c.Header("X-RateLimit-Remaining-Day", fmt.Sprintf("%d", decision.Remaining.Day))

		if !decision.Allowed {
			c.Set("admission_code", decision.Code)
			c.Header("Retry-After", fmt.Sprintf("%d", decision.RetryAfterSeconds))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":               "Rate limit exceeded",
				"code":                decision.Code,
				"tier":                decision.Tier,
				"retry_after_seconds": decision.RetryAfterSeconds,
				"remaining":           decision.Remaining,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
