package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tieba-stats/cache"
	"tieba-stats/derive"
	"tieba-stats/models"
	"tieba-stats/upstream"
)

// Community milestones the event view counts days from.
var (
	renameDay  = time.Date(2020, 9, 28, 0, 0, 0, 0, time.UTC)
	foundedDay = time.Date(2019, 6, 21, 0, 0, 0, 0, time.UTC)
)

func (h *Handler) civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, h.opts.Location)
}

// Events serves what happened on a day and how many days it lies after the
// selected anniversary. Days before the anniversary count from the founding
// day instead.
func (h *Handler) Events(c *gin.Context) {
	date, err := h.dateParam(c, "date", h.now())
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	anniversary, err := h.dateParam(c, "anniversary", h.civil(renameDay))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	if date.Before(anniversary) {
		anniversary = h.civil(foundedDay)
	}
	day := derive.DayKey(date, h.opts.Location)

	events, stale, err := cache.Through(c.Request.Context(), h.fallback, upstream.EndpointEvents, day,
		func(ctx context.Context) ([]string, error) { return h.source.Events(ctx, date) })
	if err != nil {
		h.sourceFailed(c, upstream.EndpointEvents, err)
		return
	}

	c.JSON(http.StatusOK, staleFields(gin.H{
		"date":        derive.DayLabel(date, h.opts.Location),
		"anniversary": derive.DayKey(anniversary, h.opts.Location),
		"days":        derive.DaysSince(anniversary, date, h.opts.Location),
		"events":      derive.EventsOrPlaceholder(events),
	}, stale))
}

// Anniversaries serves the milestones with the days elapsed at date.
func (h *Handler) Anniversaries(c *gin.Context) {
	date, err := h.dateParam(c, "date", h.now())
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	list, stale, err := cache.Through(c.Request.Context(), h.fallback, upstream.EndpointAnniversaries, "",
		func(ctx context.Context) ([]models.Anniversary, error) { return h.source.Anniversaries(ctx) })
	if err != nil {
		h.sourceFailed(c, upstream.EndpointAnniversaries, err)
		return
	}

	c.JSON(http.StatusOK, staleFields(gin.H{
		"anniversaries": h.anniversaryViews(list, date),
	}, stale))
}
