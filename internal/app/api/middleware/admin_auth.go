package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/macroflow/trialgate/pkg/response"
)

// AdminAuthMiddleware guards admin routes. The Authorization header must
// contain the configured shared secret; absence or mismatch aborts with
// 401. An empty configured key disables admin access entirely.
func AdminAuthMiddleware(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if adminKey == "" || auth == "" || !strings.Contains(auth, adminKey) {
			response.Fail(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		c.Next()
	}
}
