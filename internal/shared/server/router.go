package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"records-backend/internal/documents"
	"records-backend/internal/ingest"
	"records-backend/internal/renewal"
	"records-backend/internal/shared/config"
	"records-backend/internal/shared/metrics"
	"records-backend/internal/shared/server/middleware"
	"records-backend/internal/shared/server/respond"
)

// RouterDeps carries the handlers the router wires up. Construction of the
// handlers and their dependencies happens in bootstrap, not here.
type RouterDeps struct {
	Config          config.Config
	IngestHandler   *ingest.Handler
	DocumentHandler *documents.Handler
	RenewalHandler  *renewal.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Identity(),
	)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	api.GET("/metrics", metrics.Handler())

	if deps.IngestHandler != nil {
		deps.IngestHandler.RegisterRoutes(api)
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(api)
	}
	if deps.RenewalHandler != nil {
		deps.RenewalHandler.RegisterRoutes(api)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
