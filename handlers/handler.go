// Package handlers serves the dashboard views as JSON over gin.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"tieba-stats/cache"
	"tieba-stats/derive"
	"tieba-stats/feed"
	"tieba-stats/logger"
	"tieba-stats/metrics"
	"tieba-stats/models"
)

// Source is the upstream the dashboard reads from.
type Source interface {
	Leaderboard(ctx context.Context, page, pageSize int) (models.LeaderboardPage, error)
	LookupUser(ctx context.Context, link string) (models.UserProfile, error)
	SearchUsers(ctx context.Context, keyword string) ([]models.LeaderboardEntry, error)
	Anniversaries(ctx context.Context) ([]models.Anniversary, error)
	EventDays(ctx context.Context) ([]string, error)
	Events(ctx context.Context, date time.Time) ([]string, error)
	Posts(ctx context.Context, now time.Time) (models.PostSeries, error)
	Distribution(ctx context.Context, date time.Time) (models.DistributionSnapshot, error)
	Income(ctx context.Context, start, end time.Time) (models.RevenueReport, error)
	Outbreak(ctx context.Context) (models.OutbreakSnapshot, error)
}

// PageSizeStore persists the leaderboard page size.
type PageSizeStore interface {
	PageSize(ctx context.Context) (int, error)
	SetPageSize(ctx context.Context, size int) error
}

// Options tune the derivations.
type Options struct {
	Location       *time.Location
	ThresholdLevel int
	IncomeStart    time.Time
	Now            func() time.Time
}

// Handler holds the dependencies shared by every endpoint.
type Handler struct {
	source   Source
	fallback *cache.Fallback
	prefs    PageSizeStore
	feed     *feed.Feed
	log      logger.Logger
	metrics  *metrics.Metrics
	opts     Options

	// Last resolved posts window, kept when a new window cannot be resolved.
	rangeMu   sync.Mutex
	postRange models.IndexRange
}

// New creates a Handler.
func New(source Source, fallback *cache.Fallback, prefs PageSizeStore, news *feed.Feed, log logger.Logger, m *metrics.Metrics, opts Options) *Handler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.ThresholdLevel <= 0 {
		opts.ThresholdLevel = derive.DefaultThresholdLevel
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Handler{
		source:    source,
		fallback:  fallback,
		prefs:     prefs,
		feed:      news,
		log:       log,
		metrics:   m,
		opts:      opts,
		postRange: derive.DefaultRange(),
	}
}

const unavailableNotice = "statistics source unavailable, please try again later"

const staleNotice = "statistics source unavailable, showing the last successful result"

// sourceFailed answers 502 for an upstream failure with nothing cached.
func (h *Handler) sourceFailed(c *gin.Context, endpoint string, err error) {
	_ = c.Error(err)
	h.log.Error("Upstream unavailable", logger.String("endpoint", endpoint), logger.Error(err))
	c.JSON(http.StatusBadGateway, gin.H{"error": unavailableNotice})
}

// staleFields annotates a response served from the last-good cache.
func staleFields(body gin.H, stale bool) gin.H {
	body["stale"] = stale
	if stale {
		body["notice"] = staleNotice
	}
	return body
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// dateParam parses an optional YYYY-MM-DD query parameter in the configured
// location, falling back to def.
func (h *Handler) dateParam(c *gin.Context, name string, def time.Time) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, h.opts.Location)
	if err != nil {
		return time.Time{}, errors.New(name + " must be YYYY-MM-DD")
	}
	return t, nil
}

func boolParam(c *gin.Context, name string) bool {
	v, _ := strconv.ParseBool(c.DefaultQuery(name, "false"))
	return v
}

func (h *Handler) now() time.Time {
	return h.opts.Now().In(h.opts.Location)
}
