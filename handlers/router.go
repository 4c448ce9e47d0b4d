package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tieba-stats/logger"
	"tieba-stats/metrics"
)

// Pinger is a dependency the health check pings.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter mounts the API, the health check and the metrics endpoint.
func NewRouter(h *Handler, log logger.Logger, m *metrics.Metrics, checks map[string]Pinger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), Logger(log), Metrics(m))

	r.GET("/health", Health(checks))
	r.GET("/metrics", gin.WrapH(m.Handler()))

	api := r.Group("/api")
	{
		api.GET("/bootstrap", h.Bootstrap)
		api.GET("/leaderboard", h.Leaderboard)
		api.GET("/users/search", h.SearchUsers)
		api.POST("/users/profile", h.UserProfile)
		api.GET("/events", h.Events)
		api.GET("/anniversaries", h.Anniversaries)
		api.GET("/posts", h.Posts)
		api.GET("/distribution", h.Distribution)
		api.GET("/income", h.Income)
		api.GET("/outbreak", h.Outbreak)

		news := api.Group("/news")
		news.GET("", h.News)
		news.POST("/refresh", h.RefreshNews)
		news.POST("/more", h.MoreNews)
		news.POST("/scroll", h.ScrollNews)
	}

	return r
}

// Health reports "ok", or "degraded" with the failing dependencies.
func Health(checks map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		failed := gin.H{}
		for name, p := range checks {
			if err := p.Ping(ctx); err != nil {
				failed[name] = err.Error()
			}
		}
		if len(failed) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "checks": failed})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
