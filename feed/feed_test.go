package feed_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tieba-stats/feed"
	"tieba-stats/models"
)

type pagedSource struct {
	mu       sync.Mutex
	requests []int
	fail     map[int]error
	block    chan struct{}
	gate     map[int]chan struct{}
}

func (s *pagedSource) FetchPage(_ context.Context, pageIndex int) ([]models.NewsItem, error) {
	s.mu.Lock()
	s.requests = append(s.requests, pageIndex)
	err := s.fail[pageIndex]
	block := s.block
	gate := s.gate[pageIndex]
	s.mu.Unlock()

	if block != nil {
		<-block
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return []models.NewsItem{
		{Title: fmt.Sprintf("p%d-a", pageIndex)},
		{Title: fmt.Sprintf("p%d-b", pageIndex)},
	}, nil
}

func (s *pagedSource) seen() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.requests...)
}

func titles(items []models.NewsItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Title
	}
	return out
}

var bottom = feed.ScrollPosition{ScrollTop: 900, ClientHeight: 100, ScrollHeight: 1000}

func TestLoadMore_BeforeRefresh(t *testing.T) {
	f := feed.New(&pagedSource{})
	_, err := f.LoadMore(context.Background())
	require.ErrorIs(t, err, feed.ErrNotLoadable)
}

func TestFeed_Monotonic(t *testing.T) {
	ctx := context.Background()
	src := &pagedSource{}
	f := feed.New(src)

	snap, err := f.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.PageIndex)
	assert.True(t, snap.Loadable)
	assert.Equal(t, feed.Idle, snap.State)

	for i := 0; i < 3; i++ {
		_, err = f.LoadMore(ctx)
		require.NoError(t, err)
	}

	snap = f.Snapshot()
	assert.Equal(t, []int{0, 1, 2, 3}, src.seen())
	assert.Equal(t, 3, snap.PageIndex)
	assert.Equal(t, []string{
		"p0-a", "p0-b", "p1-a", "p1-b", "p2-a", "p2-b", "p3-a", "p3-b",
	}, titles(snap.Items))
}

func TestRefresh_Resets(t *testing.T) {
	ctx := context.Background()
	src := &pagedSource{}
	f := feed.New(src)

	_, err := f.Refresh(ctx)
	require.NoError(t, err)
	_, err = f.LoadMore(ctx)
	require.NoError(t, err)

	snap, err := f.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.PageIndex)
	assert.Equal(t, []string{"p0-a", "p0-b"}, titles(snap.Items))
	assert.Equal(t, []int{0, 1, 0}, src.seen())
}

func TestOnScroll_Gating(t *testing.T) {
	ctx := context.Background()
	src := &pagedSource{}
	f := feed.New(src)

	// not armed before the first refresh
	_, loaded, err := f.OnScroll(ctx, bottom)
	require.NoError(t, err)
	assert.False(t, loaded)

	_, err = f.Refresh(ctx)
	require.NoError(t, err)

	tests := []struct {
		name string
		pos  feed.ScrollPosition
		want bool
	}{
		{"at top", feed.ScrollPosition{ScrollTop: 0, ClientHeight: 1000, ScrollHeight: 1000}, false},
		{"mid list", feed.ScrollPosition{ScrollTop: 200, ClientHeight: 100, ScrollHeight: 1000}, false},
		{"at bottom", bottom, true},
		{"overscrolled", feed.ScrollPosition{ScrollTop: 950, ClientHeight: 100, ScrollHeight: 1000}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, loaded, err := f.OnScroll(ctx, tt.pos)
			require.NoError(t, err)
			assert.Equal(t, tt.want, loaded)
		})
	}
	assert.Equal(t, []int{0, 1, 2}, src.seen())
}

func TestLoadMore_SingleInFlight(t *testing.T) {
	ctx := context.Background()
	src := &pagedSource{}
	f := feed.New(src)
	_, err := f.Refresh(ctx)
	require.NoError(t, err)

	src.mu.Lock()
	src.block = make(chan struct{})
	src.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		_, err := f.LoadMore(ctx)
		done <- err
	}()

	require.Eventually(t, func() bool { return f.Snapshot().State == feed.Loading }, time.Second, time.Millisecond)

	_, err = f.LoadMore(ctx)
	require.ErrorIs(t, err, feed.ErrNotLoadable)
	_, loaded, err := f.OnScroll(ctx, bottom)
	require.NoError(t, err)
	assert.False(t, loaded)

	close(src.block)
	require.NoError(t, <-done)
	assert.Equal(t, []int{0, 1}, src.seen())
	assert.Equal(t, 1, f.Snapshot().PageIndex)
}

// holdPage makes fetches of pageIndex wait until the returned func is called.
func (s *pagedSource) holdPage(pageIndex int) func() {
	ch := make(chan struct{})
	s.mu.Lock()
	if s.gate == nil {
		s.gate = map[int]chan struct{}{}
	}
	s.gate[pageIndex] = ch
	s.mu.Unlock()
	return func() { close(ch) }
}

func TestRefresh_DropsPageInFlight(t *testing.T) {
	tests := []struct {
		name string
		fail error
	}{
		{"late page succeeds", nil},
		{"late page fails", errors.New("upstream down")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			src := &pagedSource{fail: map[int]error{1: tt.fail}}
			f := feed.New(src)
			_, err := f.Refresh(ctx)
			require.NoError(t, err)

			release := src.holdPage(1)
			done := make(chan error, 1)
			go func() {
				_, err := f.LoadMore(ctx)
				done <- err
			}()
			require.Eventually(t, func() bool { return f.Snapshot().State == feed.Loading }, time.Second, time.Millisecond)

			snap, err := f.Refresh(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"p0-a", "p0-b"}, titles(snap.Items))

			release()
			require.ErrorIs(t, <-done, feed.ErrSuperseded)

			snap = f.Snapshot()
			assert.Equal(t, 0, snap.PageIndex)
			assert.Equal(t, []string{"p0-a", "p0-b"}, titles(snap.Items))
			assert.True(t, snap.Loadable)
			assert.Equal(t, feed.Idle, snap.State)

			// the cursor continues from the refreshed list
			snap, err = f.LoadMore(ctx)
			if tt.fail != nil {
				require.ErrorIs(t, err, tt.fail)
				assert.Equal(t, 0, snap.PageIndex)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, snap.PageIndex)
			assert.Equal(t, []string{"p0-a", "p0-b", "p1-a", "p1-b"}, titles(snap.Items))
		})
	}
}

func TestRefresh_SingleInFlight(t *testing.T) {
	ctx := context.Background()
	src := &pagedSource{}
	f := feed.New(src)

	release := src.holdPage(0)
	done := make(chan error, 1)
	go func() {
		_, err := f.Refresh(ctx)
		done <- err
	}()
	require.Eventually(t, func() bool { return f.Snapshot().State == feed.Loading }, time.Second, time.Millisecond)

	_, err := f.Refresh(ctx)
	require.ErrorIs(t, err, feed.ErrNotLoadable)

	release()
	require.NoError(t, <-done)
	snap := f.Snapshot()
	assert.Equal(t, []string{"p0-a", "p0-b"}, titles(snap.Items))
	assert.Equal(t, []int{0}, src.seen())
}

func TestLoadMore_FailureRetriesSamePage(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("upstream down")
	src := &pagedSource{fail: map[int]error{1: boom}}
	f := feed.New(src)
	_, err := f.Refresh(ctx)
	require.NoError(t, err)

	snap, err := f.LoadMore(ctx)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, snap.PageIndex)
	assert.True(t, snap.Loadable)
	assert.Equal(t, feed.Idle, snap.State)
	assert.Len(t, snap.Items, 2)

	src.mu.Lock()
	delete(src.fail, 1)
	src.mu.Unlock()

	snap, err = f.LoadMore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.PageIndex)
	assert.Equal(t, []int{0, 1, 1}, src.seen())
}

func TestRefresh_Failure(t *testing.T) {
	boom := errors.New("upstream down")
	f := feed.New(&pagedSource{fail: map[int]error{0: boom}})

	snap, err := f.Refresh(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Empty(t, snap.Items)
	assert.False(t, snap.Loadable)
	assert.Equal(t, feed.Idle, snap.State)
}

func TestPageHook(t *testing.T) {
	ctx := context.Background()
	var pages int
	f := feed.New(&pagedSource{}, feed.WithPageHook(func() { pages++ }))

	_, err := f.Refresh(ctx)
	require.NoError(t, err)
	_, err = f.LoadMore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, pages)
}

func TestSnapshot_IsCopy(t *testing.T) {
	f := feed.New(&pagedSource{})
	_, err := f.Refresh(context.Background())
	require.NoError(t, err)

	snap := f.Snapshot()
	snap.Items[0].Title = "changed"
	assert.Equal(t, "p0-a", f.Snapshot().Items[0].Title)
}

func TestFetcherFunc(t *testing.T) {
	var got int
	f := feed.New(feed.FetcherFunc(func(_ context.Context, pageIndex int) ([]models.NewsItem, error) {
		got = pageIndex
		return nil, nil
	}))
	_, err := f.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, got)
}
