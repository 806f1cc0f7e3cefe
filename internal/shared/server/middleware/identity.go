package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"records-backend/internal/shared/server/respond"
)

const ownerIDKey = "ownerId"

// Identity resolves the calling owner from the X-Owner-Id header set by the
// upstream gateway. Requests without an identity are rejected except for
// health and metrics probes.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		path := c.Request.URL.Path
		if strings.HasSuffix(path, "/health") || strings.HasSuffix(path, "/metrics") {
			c.Next()
			return
		}

		ownerID := strings.TrimSpace(c.GetHeader("X-Owner-Id"))
		if ownerID == "" {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing identity", nil)
			return
		}

		c.Set(ownerIDKey, ownerID)
		c.Next()
	}
}

// OwnerIDFromContext fetches the owner ID set by the identity middleware.
func OwnerIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(ownerIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
