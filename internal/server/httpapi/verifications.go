package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/truthmate/truthmate/internal/common"
	"github.com/truthmate/truthmate/internal/server/models"
	"github.com/truthmate/truthmate/internal/server/services"
)

func requestMeta(c *gin.Context) services.RequestMeta {
	return services.RequestMeta{
		IPAddress: clientIP(c.Request),
		UserAgent: c.GetHeader("User-Agent"),
	}
}

// queryInt parses an optional integer query parameter.
func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, common.InvalidField(name, "%s must be an integer", name)
	}
	return n, nil
}

func pageParams(c *gin.Context) (page, limit int, err error) {
	if page, err = queryInt(c, "page", 1); err != nil {
		return 0, 0, err
	}
	if limit, err = queryInt(c, "limit", 0); err != nil {
		return 0, 0, err
	}
	return page, limit, nil
}

func (h *handler) verify(c *gin.Context) {
	var req verifyRequest
	if !h.bindJSON(c, &req) {
		return
	}

	res, err := h.Verifications.Verify(c.Request.Context(), currentUser(c), services.VerifyInput{
		Claim:     deref(req.Claim),
		ClaimType: deref(req.ClaimType),
		Image:     deref(req.Image),
		ImageURL:  deref(req.ImageURL),
		IsPublic:  deref(req.IsPublic),
		Category:  deref(req.Category),
	}, requestMeta(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	body := gin.H{
		"verificationId": res.Verification.ID,
		"result":         toVerificationView(res.Verification),
		"saved":          res.Saved,
		"duplicate":      res.Duplicate,
	}
	if res.Warning != "" {
		body["warning"] = res.Warning
	}
	c.JSON(http.StatusOK, body)
}

func (h *handler) createVerification(c *gin.Context) {
	var req createVerificationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	res, err := h.Verifications.Create(c.Request.Context(), currentUser(c), req.input(), requestMeta(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	status := http.StatusCreated
	if res.Duplicate {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{
		"success":      true,
		"verification": toVerificationView(res.Verification),
		"duplicate":    res.Duplicate,
	})
}

func (h *handler) getVerificationByQuery(c *gin.Context) {
	h.getVerification(c, c.Query("id"))
}

func (h *handler) getVerificationByPath(c *gin.Context) {
	h.getVerification(c, c.Param("id"))
}

func (h *handler) getVerification(c *gin.Context, id string) {
	res, err := h.Verifications.Get(c.Request.Context(), strings.TrimSpace(id), currentUser(c))
	if errors.Is(err, common.ErrorNotFound) {
		c.JSON(http.StatusNotFound, errorBody{Error: "verification not found"})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	view := toVerificationView(res.Verification)
	view.IsOwner = &res.IsOwner
	c.JSON(http.StatusOK, gin.H{"verification": view})
}

func (h *handler) listVerifications(c *gin.Context) {
	page, limit, err := pageParams(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	filter, err := services.ParseFilter(c.Query("category"), c.Query("verdict"), c.Query("search"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	res, err := h.Verifications.ListForUser(c.Request.Context(), currentUser(c), services.ListQuery{
		Page:   page,
		Limit:  limit,
		Filter: filter,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"verifications": toVerificationViews(res.Items),
		"pagination":    toPageView(res.Pagination),
	})
}

func (h *handler) history(c *gin.Context) {
	page, limit, err := pageParams(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	res, err := h.Verifications.History(c.Request.Context(), currentUser(c), page, limit)
	if errors.Is(err, common.ErrStorageUnavailable) {
		h.log.Warn(c.Request.Context(), "history degraded", "error", err)
		c.JSON(http.StatusOK, gin.H{
			"verifications": []historyItem{},
			"stats":         historyStatsView{},
			"pagination":    pageView{Page: max(page, 1), Limit: limit},
			"message":       "history temporarily unavailable",
		})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"verifications": toHistoryItems(res.Items),
		"stats":         historyStatsView{Total: res.Stats.Total, Today: res.Stats.Today},
		"pagination":    toPageView(res.Pagination),
	})
}

func (h *handler) explore(c *gin.Context) {
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
	sort, ok := models.ParseSortOrder(c.Query("sort"))
	if !ok {
		h.writeError(c, common.InvalidField("sort", "sort must be recent or trending"))
		return
	}
	filter, err := services.ParseFilter(c.Query("category"), "", c.Query("search"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	res, err := h.Verifications.ListPublic(c.Request.Context(), services.PublicQuery{
		Filter: filter,
		Sort:   sort,
		Limit:  limit,
		Offset: offset,
	})
	if errors.Is(err, common.ErrStorageUnavailable) {
		h.log.Warn(c.Request.Context(), "explore degraded", "error", err)
		c.JSON(http.StatusOK, gin.H{
			"verifications": []verificationView{},
			"stats":         exploreStatsView{},
			"pagination":    offsetView{Limit: limit, Offset: max(offset, 0)},
			"message":       "explore temporarily unavailable",
		})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	st := res.Stats
	c.JSON(http.StatusOK, gin.H{
		"verifications": toVerificationViews(res.Items),
		"stats": exploreStatsView{
			TotalVerifications: st.TotalVerifications,
			TodayVerifications: st.TodayVerifications,
			FakeNewsToday:      st.FakeNewsToday,
			ActiveUsersToday:   st.ActiveUsersToday,
		},
		"pagination": offsetView{
			Limit:   res.Pagination.Limit,
			Offset:  res.Pagination.Offset,
			Total:   res.Pagination.Total,
			HasMore: res.Pagination.HasMore,
		},
	})
}
