package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tieba-stats/cache"
	"tieba-stats/derive"
	"tieba-stats/logger"
	"tieba-stats/models"
	"tieba-stats/upstream"
)

type postView struct {
	models.IntervalRecord
	Label      string `json:"label"`
	TotalLabel string `json:"totalLabel"`
}

// Posts serves the per-day post series and the slice selected by the
// optional start/end window. A window that cannot be resolved keeps the
// previously selected slice and is flagged windowStale.
func (h *Handler) Posts(c *gin.Context) {
	ctx := c.Request.Context()
	now := h.now()
	detail := boolParam(c, "detail")

	def := derive.DefaultWindow(now)
	start, err := h.dateParam(c, "start", def.Start)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	end, err := h.dateParam(c, "end", def.End)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	series, stale, err := cache.Through(ctx, h.fallback, upstream.EndpointPostHistory, derive.DayKey(now, h.opts.Location),
		func(ctx context.Context) (models.PostSeries, error) { return h.source.Posts(ctx, now) })
	if err != nil {
		h.sourceFailed(c, upstream.EndpointPostHistory, err)
		return
	}

	records := derive.BuildDeltaSeries(series.Points, series.LiveTotal, now)

	body := gin.H{}
	r := h.currentRange()
	if c.Query("start") != "" || c.Query("end") != "" {
		w := models.DateWindow{Start: start, End: end}
		resolved, err := derive.ResolveRange(records, w, r, h.opts.Location)
		switch {
		case err == nil:
			h.setRange(resolved)
		case errors.Is(err, derive.ErrInvalidWindow), errors.Is(err, derive.ErrWindowUnresolved):
			h.log.Warn("Keeping previous posts window",
				logger.String("start", derive.DayKey(start, h.opts.Location)),
				logger.String("end", derive.DayKey(end, h.opts.Location)),
				logger.Error(err),
			)
			body["windowStale"] = true
			body["windowError"] = err.Error()
		}
		r = resolved
	}
	if _, ok := body["windowStale"]; !ok {
		body["windowStale"] = false
	}

	selected := derive.SliceWindow(records, r)
	var windowPosts int64
	for _, rec := range selected {
		windowPosts += rec.Delta
	}

	body["liveTotal"] = series.LiveTotal
	body["liveTotalLabel"] = derive.FormatWan(float64(series.LiveTotal), detail)
	body["series"] = h.postViews(records, detail)
	body["range"] = r
	body["selected"] = h.postViews(selected, detail)
	body["windowPosts"] = windowPosts
	c.JSON(http.StatusOK, staleFields(body, stale))
}

func (h *Handler) postViews(records []models.IntervalRecord, detail bool) []postView {
	out := make([]postView, 0, len(records))
	for _, rec := range records {
		out = append(out, postView{
			IntervalRecord: rec,
			Label:          derive.DayLabel(rec.Timestamp, h.opts.Location),
			TotalLabel:     derive.FormatWan(float64(rec.CumulativeTotal), detail),
		})
	}
	return out
}

func (h *Handler) currentRange() models.IndexRange {
	h.rangeMu.Lock()
	defer h.rangeMu.Unlock()
	return h.postRange
}

func (h *Handler) setRange(r models.IndexRange) {
	h.rangeMu.Lock()
	defer h.rangeMu.Unlock()
	h.postRange = r
}
