package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"tieba-stats/cache"
	"tieba-stats/database"
	"tieba-stats/logger"
	"tieba-stats/models"
	"tieba-stats/upstream"
)

func (h *Handler) leaderboardPage(ctx context.Context, page, pageSize int) (models.LeaderboardPage, bool, error) {
	return cache.Through(ctx, h.fallback, upstream.EndpointUsers, fmt.Sprintf("%d/%d", page, pageSize),
		func(ctx context.Context) (models.LeaderboardPage, error) {
			return h.source.Leaderboard(ctx, page, pageSize)
		})
}

// Leaderboard serves one page of the member ranking. An explicit pageSize is
// remembered for later requests.
func (h *Handler) Leaderboard(c *gin.Context) {
	ctx := c.Request.Context()

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		badRequest(c, "page must be a positive integer")
		return
	}

	var pageSize int
	if raw := c.Query("pageSize"); raw != "" {
		pageSize, err = strconv.Atoi(raw)
		if err != nil {
			badRequest(c, "pageSize must be an integer")
			return
		}
		if err := h.prefs.SetPageSize(ctx, pageSize); err != nil {
			if errors.Is(err, database.ErrInvalidPageSize) {
				badRequest(c, err.Error())
				return
			}
			h.log.Warn("Storing page size preference failed", logger.Error(err))
		}
	} else if pageSize, err = h.prefs.PageSize(ctx); err != nil {
		h.log.Warn("Reading page size preference failed", logger.Error(err))
	}

	result, stale, err := h.leaderboardPage(ctx, page, pageSize)
	if err != nil {
		h.sourceFailed(c, upstream.EndpointUsers, err)
		return
	}

	users := make([]gin.H, 0, len(result.Users))
	for _, u := range result.Users {
		users = append(users, gin.H{
			"rank":        u.Rank,
			"name":        u.Name,
			"displayName": u.DisplayName(),
			"link":        u.Link,
			"member":      u.Member,
			"level":       u.Level,
			"exp":         u.Exp,
		})
	}

	c.JSON(http.StatusOK, staleFields(gin.H{
		"page":            result.Page,
		"pageSize":        result.PageSize,
		"pageSizeOptions": database.PageSizeOptions,
		"total":           result.Total,
		"users":           users,
	}, stale))
}

// SearchUsers finds members by name. An empty keyword matches nobody.
func (h *Handler) SearchUsers(c *gin.Context) {
	keyword := strings.TrimSpace(c.Query("keyword"))
	if keyword == "" {
		c.JSON(http.StatusOK, gin.H{"users": []models.LeaderboardEntry{}})
		return
	}

	users, err := h.source.SearchUsers(c.Request.Context(), keyword)
	if err != nil {
		h.sourceFailed(c, upstream.EndpointSearch, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

type profileRequest struct {
	Link string `json:"link" binding:"required"`
}

// UserProfile looks a member up by profile link.
func (h *Handler) UserProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "link is required")
		return
	}

	profile, err := h.source.LookupUser(c.Request.Context(), strings.TrimSpace(req.Link))
	switch {
	case errors.Is(err, upstream.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case err != nil:
		h.sourceFailed(c, upstream.EndpointUser, err)
	default:
		c.JSON(http.StatusOK, gin.H{"user": profile})
	}
}
