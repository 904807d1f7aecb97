package httpapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/truthmate/truthmate/internal/logging"
)

type handler struct {
	Deps
	log logging.Logger
}

func newRouter(deps Deps, log logging.Logger) *gin.Engine {
	h := &handler{Deps: deps, log: log}

	r := gin.New()
	r.Use(requestLogger(log), recovery(log), cors.Default())

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", h.register)
	authGroup.POST("/login", h.login)
	authGroup.POST("/logout", h.logout)

	api.GET("/health", h.health)
	api.GET("/explore", h.explore)

	optional := api.Group("", h.optionalAuth)
	{
		optional.GET("/verify", h.getVerificationByQuery)
		optional.GET("/verifications/:id", h.getVerificationByPath)
		optional.POST("/bookmarks/check", h.checkBookmarks)
	}

	session := api.Group("", h.requireAuth)
	{
		session.POST("/verify", h.verify)
		session.POST("/verifications", h.createVerification)
		session.GET("/verifications", h.listVerifications)
		session.GET("/history", h.history)

		session.POST("/bookmarks", h.createBookmark)
		session.GET("/bookmarks", h.listBookmarks)
		session.DELETE("/bookmarks", h.deleteBookmark)

		session.GET("/user/settings", h.getSettings)
		session.PUT("/user/settings", h.updateSettings)

		session.POST("/models/:capability", h.rateLimit, h.callModel)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorBody{Error: "route not found"})
	})

	return r
}
