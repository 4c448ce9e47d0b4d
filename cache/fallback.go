package cache

import (
	"context"
	"encoding/json"
	"errors"

	"tieba-stats/logger"
	"tieba-stats/metrics"
)

// Fallback records successful fetches and replays them when a fetch fails.
type Fallback struct {
	store   Store
	log     logger.Logger
	metrics *metrics.Metrics
}

// NewFallback creates a Fallback over store.
func NewFallback(store Store, log logger.Logger, m *metrics.Metrics) *Fallback {
	return &Fallback{store: store, log: log, metrics: m}
}

// Through runs fetch. On success the value is remembered under the
// endpoint/params key; on failure the remembered value is returned with stale
// set. The fetch error is returned only when nothing was remembered.
func Through[T any](ctx context.Context, f *Fallback, endpoint, params string, fetch func(context.Context) (T, error)) (T, bool, error) {
	key := endpoint + ":" + params
	val, err := fetch(ctx)
	if err == nil {
		f.remember(ctx, key, val)
		return val, false, nil
	}

	var cached T
	raw, getErr := f.store.Get(ctx, key)
	if getErr != nil {
		if !errors.Is(getErr, ErrMiss) {
			f.log.Warn("Last-good lookup failed", logger.String("key", key), logger.Error(getErr))
		}
		return cached, false, err
	}
	if decodeErr := json.Unmarshal(raw, &cached); decodeErr != nil {
		f.log.Warn("Discarding undecodable cache entry", logger.String("key", key), logger.Error(decodeErr))
		return cached, false, err
	}

	f.log.Warn("Serving last-good payload",
		logger.String("key", key),
		logger.Error(err),
	)
	f.metrics.StaleServed(endpoint)
	return cached, true, nil
}

func (f *Fallback) remember(ctx context.Context, key string, val any) {
	raw, err := json.Marshal(val)
	if err != nil {
		f.log.Warn("Encoding cache entry failed", logger.String("key", key), logger.Error(err))
		return
	}
	if err := f.store.Set(ctx, key, raw); err != nil {
		f.log.Warn("Storing cache entry failed", logger.String("key", key), logger.Error(err))
	}
}
