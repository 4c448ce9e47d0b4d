package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tieba-stats/cache"
	"tieba-stats/derive"
	"tieba-stats/feed"
	"tieba-stats/logger"
	"tieba-stats/models"
	"tieba-stats/upstream"
)

// News serves the accumulated news feed without fetching.
func (h *Handler) News(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"feed": h.feed.Snapshot()})
}

// RefreshNews reloads the feed from its first page.
func (h *Handler) RefreshNews(c *gin.Context) {
	snap, err := h.feed.Refresh(c.Request.Context())
	if feedBusy(c, h.feed, err) {
		return
	}
	h.feedResponse(c, snap, true, err)
}

// MoreNews appends the next page of the feed.
func (h *Handler) MoreNews(c *gin.Context) {
	snap, err := h.feed.LoadMore(c.Request.Context())
	if feedBusy(c, h.feed, err) {
		return
	}
	h.feedResponse(c, snap, true, err)
}

// feedBusy answers 409 when the request lost a race with another fetch.
func feedBusy(c *gin.Context, f *feed.Feed, err error) bool {
	if !errors.Is(err, feed.ErrNotLoadable) && !errors.Is(err, feed.ErrSuperseded) {
		return false
	}
	c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "feed": f.Snapshot()})
	return true
}

// ScrollNews reports the viewport position; the next page is loaded once
// the viewport reaches the bottom of the list.
func (h *Handler) ScrollNews(c *gin.Context) {
	var pos feed.ScrollPosition
	if err := c.ShouldBindJSON(&pos); err != nil {
		badRequest(c, "scrollTop, clientHeight and scrollHeight are required")
		return
	}
	snap, loaded, err := h.feed.OnScroll(c.Request.Context(), pos)
	h.feedResponse(c, snap, loaded, err)
}

func (h *Handler) feedResponse(c *gin.Context, snap feed.Snapshot, loaded bool, err error) {
	if err != nil {
		_ = c.Error(err)
		h.log.Error("News page fetch failed", logger.Int("page", snap.PageIndex), logger.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": unavailableNotice, "feed": snap})
		return
	}
	c.JSON(http.StatusOK, gin.H{"loaded": loaded, "feed": snap})
}

type outbreakRow struct {
	models.OutbreakStats
	CureRate derive.Figure `json:"cureRate"`
	DieRate  derive.Figure `json:"dieRate"`
}

// Outbreak serves the epidemic tracker summary with cure and death rates.
func (h *Handler) Outbreak(c *gin.Context) {
	snap, stale, err := cache.Through(c.Request.Context(), h.fallback, upstream.EndpointOutbreak, "",
		func(ctx context.Context) (models.OutbreakSnapshot, error) { return h.source.Outbreak(ctx) })
	if err != nil {
		h.sourceFailed(c, upstream.EndpointOutbreak, err)
		return
	}

	provinces := derive.SortProvinces(snap.Provinces)
	rows := make([]outbreakRow, 0, len(provinces))
	for _, p := range provinces {
		rows = append(rows, outbreakRow{
			OutbreakStats: p,
			CureRate:      derive.OutbreakRate(p.Cure, p),
			DieRate:       derive.OutbreakRate(p.Die, p),
		})
	}

	c.JSON(http.StatusOK, staleFields(gin.H{
		"global": outbreakRow{
			OutbreakStats: snap.Global,
			CureRate:      derive.OutbreakRate(snap.Global.Cure, snap.Global),
			DieRate:       derive.OutbreakRate(snap.Global.Die, snap.Global),
		},
		"provinces": rows,
		"others":    snap.Others,
	}, stale))
}
