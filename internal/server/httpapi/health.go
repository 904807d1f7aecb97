package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/truthmate/truthmate/internal/server/gateway"
)

const dbPingTimeout = 2 * time.Second

// health reports the API, the store and the analysis service. Only an
// unreachable analysis service degrades the overall status.
func (h *handler) health(c *gin.Context) {
	ctx := c.Request.Context()

	database := "healthy"
	if h.Store != nil {
		pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
		err := h.Store.Ping(pingCtx)
		cancel()
		if err != nil {
			h.log.Warn(ctx, "database ping failed", "error", err)
			database = "unreachable"
		}
	}

	ml := gateway.StatusUnreachable
	if h.Gateway != nil {
		ml = h.Gateway.Health(ctx)
	}

	status, code := "ok", http.StatusOK
	if ml == gateway.StatusUnreachable {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services": gin.H{
			"api":      "healthy",
			"database": database,
			"ml":       ml,
		},
	})
}
