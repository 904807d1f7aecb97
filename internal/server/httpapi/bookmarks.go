package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/truthmate/truthmate/internal/common"
	"github.com/truthmate/truthmate/internal/server/services"
)

func (h *handler) createBookmark(c *gin.Context) {
	var req bookmarkRequest
	if !h.bindJSON(c, &req) {
		return
	}

	b, err := h.Bookmarks.Create(c.Request.Context(), currentUser(c), services.BookmarkInput{
		VerificationID: deref(req.VerificationID),
		Notes:          deref(req.Notes),
		Tags:           req.Tags,
	})
	switch {
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, errorBody{Error: "verification not found"})
		return
	case errors.Is(err, common.ErrorConflict):
		c.JSON(http.StatusConflict, errorBody{Error: "verification is already bookmarked"})
		return
	case err != nil:
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "bookmarkId": b.ID})
}

func (h *handler) listBookmarks(c *gin.Context) {
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		h.writeError(c, err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		h.writeError(c, err)
		return
	}

	page, err := h.Bookmarks.List(c.Request.Context(), currentUser(c), limit, offset)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookmarks": toBookmarkViews(page.Items),
		"pagination": bookmarkPageView{
			Limit:   page.Limit,
			Offset:  page.Offset,
			HasMore: page.HasMore,
		},
	})
}

func (h *handler) deleteBookmark(c *gin.Context) {
	err := h.Bookmarks.Delete(c.Request.Context(), currentUser(c), c.Query("id"), c.Query("verificationId"))
	if errors.Is(err, common.ErrorNotFound) {
		c.JSON(http.StatusNotFound, errorBody{Error: "bookmark not found"})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "bookmark removed"})
}

// checkBookmarks answers for anonymous callers too, with an empty map.
func (h *handler) checkBookmarks(c *gin.Context) {
	if currentUser(c) == "" {
		c.JSON(http.StatusOK, gin.H{"bookmarked": map[string]bool{}})
		return
	}

	var req checkBookmarksRequest
	if !h.bindJSON(c, &req) {
		return
	}

	marked, err := h.Bookmarks.CheckBatch(c.Request.Context(), currentUser(c), req.VerificationIDs)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookmarked": marked})
}
