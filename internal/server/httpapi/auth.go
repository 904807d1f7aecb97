package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/truthmate/truthmate/internal/common"
	"github.com/truthmate/truthmate/internal/server/services"
)

func (h *handler) register(c *gin.Context) {
	var req registerRequest
	if !h.bindJSON(c, &req) {
		return
	}

	u, err := h.Users.Register(c.Request.Context(), services.RegisterInput{
		Name:     deref(req.Name),
		Email:    deref(req.Email),
		Password: deref(req.Password),
	})
	if errors.Is(err, common.ErrorConflict) {
		c.JSON(http.StatusConflict, errorBody{Error: "user with this email already exists"})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.log.Info(c.Request.Context(), "Registered", "user_id", u.ID)
	c.JSON(http.StatusCreated, gin.H{"user": toUserView(u)})
}

func (h *handler) login(c *gin.Context) {
	var req loginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	sess, err := h.Users.Login(c.Request.Context(), deref(req.Email), deref(req.Password))
	if errors.Is(err, common.ErrorUnauthorized) {
		c.JSON(http.StatusUnauthorized, errorBody{Error: "invalid email or password"})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(common.SessionCookieName, sess.Token, int(h.SessionTTL.Seconds()), "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, gin.H{
		"token":     sess.Token,
		"expiresAt": sess.ExpiresAt,
		"user":      toUserView(sess.User),
	})
}

func (h *handler) logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(common.SessionCookieName, "", -1, "/", "", c.Request.TLS != nil, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *handler) getSettings(c *gin.Context) {
	u, err := h.Users.Profile(c.Request.Context(), currentUser(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toSettingsView(u)})
}

func (h *handler) updateSettings(c *gin.Context) {
	var req settingsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	u, err := h.Users.UpdateProfile(c.Request.Context(), currentUser(c), services.ProfileUpdate{Name: req.Name, Email: req.Email})
	if errors.Is(err, common.ErrorConflict) {
		c.JSON(http.StatusConflict, errorBody{Error: "email is already in use"})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toSettingsView(u)})
}
