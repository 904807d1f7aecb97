package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/truthmate/truthmate/internal/common"
)

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

var errInvalidBody = &common.ValidationError{Message: "invalid request body"}

// writeError maps service errors to status codes. Unknown errors are logged
// and answered with a generic 500.
func (h *handler) writeError(c *gin.Context, err error) {
	var ve *common.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, errorBody{Error: ve.Message, Details: strings.Join(ve.Fields, ", ")})
	case errors.Is(err, common.ErrorValidation):
		c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, errorBody{Error: "unauthorized"})
	case errors.Is(err, common.ErrorForbidden):
		c.JSON(http.StatusForbidden, errorBody{Error: "access denied"})
	case errors.Is(err, common.ErrStorageUnavailable):
		h.log.Warn(c.Request.Context(), "storage unavailable", "error", err)
		c.JSON(http.StatusServiceUnavailable, errorBody{Error: "storage temporarily unavailable"})
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, common.ErrorConflict):
		c.JSON(http.StatusConflict, errorBody{Error: "already exists"})
	case errors.Is(err, common.ErrUpstreamUnavailable):
		h.log.Warn(c.Request.Context(), "analysis service unavailable", "error", err)
		c.JSON(http.StatusServiceUnavailable, errorBody{Error: "analysis service temporarily unavailable"})
	default:
		h.log.Error(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}
}

// bindJSON decodes the body into dst, answering 400 on failure.
func (h *handler) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.writeError(c, errInvalidBody)
		return false
	}
	return true
}
