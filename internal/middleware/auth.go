package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// APIKeyHeader carries the shared client key.
const APIKeyHeader = "X-API-Key"

// APIKeyAuth validates callers against the configured key set using the
// X-API-Key header. With no usable keys every request is refused.
func APIKeyAuth(keys []string) gin.HandlerFunc {
	accepted := make([][]byte, 0, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			accepted = append(accepted, []byte(k))
		}
	}

	if len(accepted) == 0 {
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":     "INTERNAL",
				"message":   "server misconfigured: no API keys configured",
				"requestId": c.GetString(RequestIDKey),
			})
		}
	}

	return func(c *gin.Context) {
		key := []byte(c.GetHeader(APIKeyHeader))
		for _, want := range accepted {
			if subtle.ConstantTimeCompare(key, want) == 1 {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":     "UNAUTHORIZED",
			"message":   "missing or invalid API key",
			"requestId": c.GetString(RequestIDKey),
		})
	}
}
