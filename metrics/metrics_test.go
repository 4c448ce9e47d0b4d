package metrics_test

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tieba-stats/metrics"
)

func TestObserveUpstream(t *testing.T) {
	m := metrics.New()

	m.ObserveUpstream("posts", time.Millisecond, nil)
	m.ObserveUpstream("posts", time.Millisecond, errors.New("boom"))
	m.StaleServed("posts")
	m.FeedPageLoaded()
	m.ObserveHTTP("GET", "/api/posts", 200, time.Millisecond)

	n, err := testutil.GatherAndCount(m.Registry(),
		"tieba_stats_upstream_requests_total",
		"tieba_stats_stale_responses_total",
		"tieba_stats_feed_pages_loaded_total",
		"tieba_stats_http_requests_total",
	)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.ObserveUpstream("x", time.Second, nil)
		m.ObserveHTTP("GET", "/", 200, time.Second)
		m.StaleServed("x")
		m.FeedPageLoaded()
	})
	assert.NotNil(t, m.Handler())
	assert.Nil(t, m.Registry())
}
