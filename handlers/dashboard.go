package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"tieba-stats/cache"
	"tieba-stats/derive"
	"tieba-stats/logger"
	"tieba-stats/models"
	"tieba-stats/upstream"
)

// Part is one independently loaded section of the bootstrap view.
type Part[T any] struct {
	Data  T      `json:"data"`
	Stale bool   `json:"stale"`
	Error string `json:"error,omitempty"`
}

type AnniversaryView struct {
	models.Anniversary
	Short string `json:"short"`
	Days  int    `json:"days"`
}

type BootstrapData struct {
	Anniversaries Part[[]AnniversaryView]      `json:"anniversaries"`
	EventDays     Part[[]string]               `json:"eventDays"`
	Leaderboard   Part[models.LeaderboardPage] `json:"leaderboard"`
}

// Bootstrap loads the landing view. The three parts are fetched concurrently
// and fail independently; the response is always 200.
func (h *Handler) Bootstrap(c *gin.Context) {
	ctx := c.Request.Context()
	now := h.now()

	pageSize, err := h.prefs.PageSize(ctx)
	if err != nil {
		h.log.Warn("Reading page size preference failed", logger.Error(err))
	}

	var data BootstrapData
	// Errors are recorded per part, so no fetch cancels its siblings.
	var g errgroup.Group

	g.Go(func() error {
		list, stale, err := cache.Through(ctx, h.fallback, upstream.EndpointAnniversaries, "",
			func(ctx context.Context) ([]models.Anniversary, error) { return h.source.Anniversaries(ctx) })
		data.Anniversaries = newPart(h.log, upstream.EndpointAnniversaries, h.anniversaryViews(list, now), stale, err)
		return nil
	})
	g.Go(func() error {
		days, stale, err := cache.Through(ctx, h.fallback, upstream.EndpointEventDays, "",
			func(ctx context.Context) ([]string, error) { return h.source.EventDays(ctx) })
		data.EventDays = newPart(h.log, upstream.EndpointEventDays, days, stale, err)
		return nil
	})
	g.Go(func() error {
		page, stale, err := h.leaderboardPage(ctx, 1, pageSize)
		data.Leaderboard = newPart(h.log, upstream.EndpointUsers, page, stale, err)
		return nil
	})
	_ = g.Wait()

	c.JSON(http.StatusOK, data)
}

func newPart[T any](log logger.Logger, endpoint string, data T, stale bool, err error) Part[T] {
	p := Part[T]{Data: data, Stale: stale}
	if err != nil {
		log.Warn("Bootstrap part failed", logger.String("endpoint", endpoint), logger.Error(err))
		p.Error = unavailableNotice
	}
	return p
}

func (h *Handler) anniversaryViews(list []models.Anniversary, at time.Time) []AnniversaryView {
	out := make([]AnniversaryView, 0, len(list))
	for _, a := range list {
		out = append(out, AnniversaryView{
			Anniversary: a,
			Short:       derive.ShortEventName(a.Event),
			Days:        derive.DaysSince(a.Date, at, h.opts.Location),
		})
	}
	return out
}
