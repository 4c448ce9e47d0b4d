package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"tieba-stats/cache"
	"tieba-stats/derive"
	"tieba-stats/models"
	"tieba-stats/upstream"
)

// Distribution serves the level histogram of one day, today by default.
func (h *Handler) Distribution(c *gin.Context) {
	date, err := h.dateParam(c, "date", h.now())
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	day := derive.DayKey(date, h.opts.Location)

	snap, stale, err := cache.Through(c.Request.Context(), h.fallback, upstream.EndpointDistribution, day,
		func(ctx context.Context) (models.DistributionSnapshot, error) { return h.source.Distribution(ctx, date) })
	if err != nil {
		h.sourceFailed(c, upstream.EndpointDistribution, err)
		return
	}

	c.JSON(http.StatusOK, staleFields(gin.H{
		"date":   day,
		"result": derive.ReduceDistribution(snap.Levels, snap.PopulationStats, h.opts.ThresholdLevel),
	}, stale))
}
