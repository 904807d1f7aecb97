package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/truthmate/truthmate/internal/common"
	"github.com/truthmate/truthmate/internal/server/imagestore"
)

const imageCapability = "verify-image"

// callModel forwards the body to one analysis capability. When the upstream
// is down the capability's fallback body is returned with 503.
func (h *handler) callModel(c *gin.Context) {
	capability := c.Param("capability")
	ctx := c.Request.Context()

	var payload map[string]any
	if !h.bindJSON(c, &payload) {
		return
	}

	archived := h.archiveImage(c, capability, payload)

	body, err := h.Gateway.Call(ctx, capability, currentUser(c), payload)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, errorBody{Error: "unknown capability"})
		return
	case errors.Is(err, common.ErrUpstreamUnavailable) && body != nil:
		h.log.Warn(ctx, "analysis fallback served", "capability", capability, "error", err)
		addArchive(body, archived)
		c.JSON(http.StatusServiceUnavailable, body)
		return
	case err != nil:
		h.writeError(c, err)
		return
	}

	addArchive(body, archived)
	c.JSON(http.StatusOK, body)
}

// archiveImage stores an inline verify-image payload when an image store is
// configured. Failures only cost the archive copy.
func (h *handler) archiveImage(c *gin.Context, capability string, payload map[string]any) *imagestore.Archived {
	if h.Images == nil || capability != imageCapability {
		return nil
	}
	raw, ok := payload["image"].(string)
	if !ok || raw == "" {
		return nil
	}

	ctx := c.Request.Context()
	data, contentType, err := imagestore.DecodeImage(raw)
	if err != nil {
		h.log.Debug(ctx, "image not archived", "error", err)
		return nil
	}
	a, err := h.Images.Archive(ctx, currentUser(c), data, contentType)
	if err != nil {
		h.log.Warn(ctx, "image archive failed", "error", err)
		return nil
	}
	return a
}

func addArchive(body map[string]any, a *imagestore.Archived) {
	if a == nil {
		return
	}
	body["archivedImage"] = a.Key
	body["archivedImageUrl"] = a.URL
}
