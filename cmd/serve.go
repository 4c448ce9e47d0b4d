package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"tieba-stats/cache"
	"tieba-stats/database"
	"tieba-stats/feed"
	"tieba-stats/handlers"
	"tieba-stats/logger"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := newDeps()
			if err != nil {
				return err
			}
			defer d.flush()
			return serve(cmd.Context(), d)
		},
	}
}

func serve(ctx context.Context, d *deps) error {
	db, err := database.Open(d.cfg.Database.Path)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()
	prefs := database.NewPreferences(db)

	checks := map[string]handlers.Pinger{"database": prefs}

	var store cache.Store
	if d.cfg.Cache.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     d.cfg.Cache.RedisAddr,
			Password: d.cfg.Cache.RedisPassword,
			DB:       d.cfg.Cache.RedisDB,
		})
		defer func() { _ = client.Close() }()

		rs := cache.NewRedis(client, d.cfg.Cache.Prefix, d.cfg.Cache.TTL)
		if err := rs.Ping(ctx); err != nil {
			d.log.Warn("Redis unreachable at startup", logger.String("addr", d.cfg.Cache.RedisAddr), logger.Error(err))
		}
		checks["redis"] = rs
		store = rs
	} else {
		store = cache.NewMemory(d.cfg.Cache.LRUSize, d.cfg.Cache.TTL)
	}

	news := feed.New(feed.FetcherFunc(d.client.NewsPage), feed.WithPageHook(d.metrics.FeedPageLoaded))
	h := handlers.New(d.client, cache.NewFallback(store, d.log, d.metrics), prefs, news, d.log, d.metrics, handlers.Options{
		Location:       d.loc,
		ThresholdLevel: d.cfg.Derive.ThresholdLevel,
		IncomeStart:    d.incomeStart,
	})

	gin.SetMode(d.cfg.Server.Mode)
	srv := &http.Server{
		Addr:         d.cfg.Server.Address(),
		Handler:      handlers.NewRouter(h, d.log, d.metrics, checks),
		ReadTimeout:  d.cfg.Server.ReadTimeout,
		WriteTimeout: d.cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		d.log.Info("Starting server", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	d.log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), d.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	d.log.Info("Server stopped")
	return nil
}
