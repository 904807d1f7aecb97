package httpapi

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/truthmate/truthmate/internal/common"
	"github.com/truthmate/truthmate/internal/logging"
)

const userIDKey = "userID"

// requestLogger tags the request with an id and writes one log line per
// request once it is done.
func requestLogger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(common.RequestIDHeaderName)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(common.RequestIDHeaderName, id)
		c.Request = c.Request.WithContext(logging.ContextWithRequestID(c.Request.Context(), id))

		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
		}
		if uid := c.GetString(userIDKey); uid != "" {
			args = append(args, "user_id", uid)
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			log.Warn(c.Request.Context(), "request", args...)
			return
		}
		log.Info(c.Request.Context(), "request", args...)
	}
}

func recovery(log logging.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error(c.Request.Context(), "panic while serving request", "panic", recovered, "path", c.Request.URL.Path)
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{Error: "internal server error"})
	})
}

// sessionToken reads the bearer token, falling back to the session cookie.
func sessionToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := c.Cookie(common.SessionCookieName); err == nil {
		return cookie
	}
	return ""
}

func (h *handler) requireAuth(c *gin.Context) {
	token := sessionToken(c)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "authentication required"})
		return
	}
	userID, err := h.Users.Authenticate(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Error: "invalid or expired session"})
		return
	}
	c.Set(userIDKey, userID)
	c.Next()
}

// optionalAuth resolves the session when there is a valid one; otherwise
// the request continues anonymously.
func (h *handler) optionalAuth(c *gin.Context) {
	if token := sessionToken(c); token != "" {
		if userID, err := h.Users.Authenticate(token); err == nil {
			c.Set(userIDKey, userID)
		}
	}
	c.Next()
}

func currentUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func (h *handler) rateLimit(c *gin.Context) {
	if h.Limiter == nil {
		c.Next()
		return
	}
	d, err := h.Limiter.Allow(c.Request.Context(), currentUser(c))
	if err != nil {
		h.log.Warn(c.Request.Context(), "rate limiter failed", "error", err)
		c.Next()
		return
	}
	if d.Limit > 0 {
		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	}
	if !d.Allowed {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(d.RetryAfter.Seconds()))))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
		return
	}
	c.Next()
}

// clientIP is the first X-Forwarded-For entry, else X-Real-IP, else
// "unknown".
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return "unknown"
}
